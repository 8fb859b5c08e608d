package config

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ConfigurationError is returned when the configuration cannot drive an upload.
// It is fatal at startup and never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// ValidateUpload checks everything the submitter needs before touching the chain.
func (c *AppConfig) ValidateUpload() error {
	if _, err := c.Signer.Key(); err != nil {
		return err
	}
	if _, err := c.Signer.Account(); err != nil {
		return err
	}
	if _, err := c.Contract.ContractAddress(); err != nil {
		return err
	}
	if c.Chain.RPCURL == "" {
		return &ConfigurationError{Field: "chain.rpc_url", Reason: "required"}
	}
	if c.Submit.MaxRetries < 1 {
		return &ConfigurationError{Field: "submit.max_retries", Reason: "must be at least 1"}
	}
	if c.Submit.GasPriceBump <= 1 {
		return &ConfigurationError{Field: "submit.gas_price_bump", Reason: "must be greater than 1"}
	}
	if _, err := c.Submit.MaxGasPriceWei(); err != nil {
		return err
	}
	return nil
}

// Key parses the admin private key.
func (s SignerConfig) Key() (*ecdsa.PrivateKey, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s.PrivateKey), "0x")
	if raw == "" {
		return nil, &ConfigurationError{Field: "signer.private_key", Reason: "required"}
	}
	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		return nil, &ConfigurationError{Field: "signer.private_key", Reason: err.Error()}
	}
	return key, nil
}

// Account returns the sender address derived from the key, cross-checked
// against signer.address when that is set.
func (s SignerConfig) Account() (common.Address, error) {
	key, err := s.Key()
	if err != nil {
		return common.Address{}, err
	}
	derived := crypto.PubkeyToAddress(key.PublicKey)
	if s.Address == "" {
		return derived, nil
	}
	if !common.IsHexAddress(s.Address) {
		return common.Address{}, &ConfigurationError{Field: "signer.address", Reason: "not a hex address"}
	}
	if common.HexToAddress(s.Address) != derived {
		return common.Address{}, &ConfigurationError{
			Field:  "signer.address",
			Reason: fmt.Sprintf("key belongs to %s", derived.Hex()),
		}
	}
	return derived, nil
}

// ContractAddress parses the registry contract address.
func (c ContractConfig) ContractAddress() (common.Address, error) {
	if !common.IsHexAddress(c.Address) {
		return common.Address{}, &ConfigurationError{Field: "contract.address", Reason: "not a hex address"}
	}
	return common.HexToAddress(c.Address), nil
}

// MaxGasPriceWei returns the gas price ceiling, or nil when unbounded.
func (s SubmitConfig) MaxGasPriceWei() (*big.Int, error) {
	if s.MaxGasPrice == "" || s.MaxGasPrice == "0" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s.MaxGasPrice, 10)
	if !ok || v.Sign() < 0 {
		return nil, &ConfigurationError{Field: "submit.max_gas_price", Reason: "not a decimal wei amount"}
	}
	return v, nil
}
