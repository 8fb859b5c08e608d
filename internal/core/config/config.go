package config

import (
	"time"

	redisclient "github.com/vietddude/merchantloader/internal/infra/redis"
	"github.com/vietddude/merchantloader/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Chain    ChainConfig        `yaml:"chain"`
	Contract ContractConfig     `yaml:"contract"`
	Signer   SignerConfig       `yaml:"signer"`
	Submit   SubmitConfig       `yaml:"submit"`
	Data     DataConfig         `yaml:"data"`
	Report   ReportConfig       `yaml:"report"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds the metrics/health HTTP server settings. Port 0 disables it.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ChainConfig describes the ledger endpoint.
type ChainConfig struct {
	ID      uint64        `yaml:"id"`
	Name    string        `yaml:"name"`
	RPCURL  string        `yaml:"rpc_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ContractConfig describes the merchant registry contract.
type ContractConfig struct {
	Address string `yaml:"address"`
}

// SignerConfig holds the admin credential. Address is optional and, when set,
// must match the key.
type SignerConfig struct {
	PrivateKey string `yaml:"private_key"`
	Address    string `yaml:"address"`
}

// SubmitConfig tunes the sequential submitter.
type SubmitConfig struct {
	GasLimit     uint64        `yaml:"gas_limit"`
	MaxRetries   int           `yaml:"max_retries"`
	GasPriceBump float64       `yaml:"gas_price_bump"`
	MaxGasPrice  string        `yaml:"max_gas_price"` // wei, empty or "0" = unbounded
	PollDelay    time.Duration `yaml:"poll_delay"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
}

// DataConfig locates the record files. Paths are keys inside Bucket.
type DataConfig struct {
	Bucket    string      `yaml:"bucket"` // gocloud.dev blob URL, e.g. file:///srv/data
	CSVPrefix string      `yaml:"csv_prefix"`
	JSONDir   string      `yaml:"json_dir"`
	Combined  string      `yaml:"combined"`
	Stripped  string      `yaml:"stripped"`
	Fields    FieldConfig `yaml:"fields"`
}

// FieldConfig names the CSV columns projected into a record.
type FieldConfig struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
}

// ReportConfig controls the parquet outcome report. Path is a key prefix in
// the data bucket; the report lands at <path><run_id>.parquet. Empty Path
// disables it.
type ReportConfig struct {
	Path string `yaml:"path"`
}
