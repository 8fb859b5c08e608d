package files

import (
	"fmt"

	"github.com/vietddude/merchantloader/internal/core/config"
)

// Layout maps shard names to keys inside the data bucket.
type Layout struct {
	CSVPrefix string
	JSONDir   string
	Combined  string
	Stripped  string
}

// NewLayout builds a Layout from the data configuration.
func NewLayout(cfg config.DataConfig) Layout {
	return Layout{
		CSVPrefix: cfg.CSVPrefix,
		JSONDir:   cfg.JSONDir,
		Combined:  cfg.Combined,
		Stripped:  cfg.Stripped,
	}
}

// CSVKey is the raw extract for a shard: <prefix>A.csv .. <prefix>Z.csv and
// <prefix>Others.csv.
func (l Layout) CSVKey(shard string) string {
	if shard == "others" {
		shard = "Others"
	}
	return fmt.Sprintf("%s%s.csv", l.CSVPrefix, shard)
}

// ShardKey is the projected JSON file for a shard.
func (l Layout) ShardKey(shard string) string {
	return fmt.Sprintf("%s%s.json", l.JSONDir, shard)
}
