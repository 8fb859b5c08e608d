// Package report writes the per-run outcome report as a parquet file.
package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/vietddude/merchantloader/internal/core/domain"
)

// Row is one outcome in the report.
type Row struct {
	RunID       string    `parquet:"run_id"`
	UEN         string    `parquet:"uen"`
	EntityName  string    `parquet:"entity_name"`
	Success     bool      `parquet:"success"`
	Reverted    bool      `parquet:"reverted"`
	TxHash      string    `parquet:"tx_hash,optional"`
	Error       string    `parquet:"error,optional"`
	Attempts    int32     `parquet:"attempts"`
	Nonce       uint64    `parquet:"nonce"`
	GasPrice    string    `parquet:"gas_price,optional"`
	BlockNumber uint64    `parquet:"block_number"`
	FinishedAt  time.Time `parquet:"finished_at,timestamp(millisecond)"`
}

// FromOutcome converts an outcome into a report row.
func FromOutcome(o domain.Outcome) Row {
	return Row{
		RunID:       o.RunID,
		UEN:         o.RecordID,
		EntityName:  o.Name,
		Success:     o.Success,
		Reverted:    o.Reverted,
		TxHash:      o.TxHash,
		Error:       o.Error,
		Attempts:    int32(o.Attempts),
		Nonce:       o.Nonce,
		GasPrice:    o.GasPrice,
		BlockNumber: o.BlockNumber,
		FinishedAt:  o.FinishedAt.UTC(),
	}
}

// Write encodes outcomes as snappy-compressed parquet to w.
func Write(w io.Writer, outcomes []domain.Outcome) error {
	rows := make([]Row, len(outcomes))
	for i, o := range outcomes {
		rows[i] = FromOutcome(o)
	}

	pw := parquet.NewGenericWriter[Row](w, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// Encode returns the parquet bytes for outcomes.
func Encode(outcomes []domain.Outcome) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, outcomes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads report rows back from parquet bytes.
func Decode(data []byte) ([]Row, error) {
	rows, err := parquet.Read[Row](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}
	return rows, nil
}

// Key returns the bucket key of a run's report under prefix.
func Key(prefix, runID string) string {
	return fmt.Sprintf("%s%s.parquet", prefix, runID)
}
