package domain

import (
	"math/big"
	"time"
)

// SubmissionState is the lifecycle position of a record inside the submitter.
type SubmissionState string

const (
	StatePreparing    SubmissionState = "preparing"
	StateSigning      SubmissionState = "signing"
	StateBroadcasting SubmissionState = "broadcasting"
	StateConfirming   SubmissionState = "confirming"
	StateSucceeded    SubmissionState = "succeeded"
	StateFailed       SubmissionState = "failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s SubmissionState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Attempt is the per-record working state. It lives only while the record
// is being processed.
type Attempt struct {
	Record       Record
	Nonce        uint64
	GasPrice     *big.Int
	AttemptCount int
	LastError    error
	State        SubmissionState
}

// Outcome is the terminal result for one record.
type Outcome struct {
	RunID       string    `json:"run_id"       db:"run_id"`
	RecordID    string    `json:"uen"          db:"record_id"`
	Name        string    `json:"entity_name"  db:"name"`
	Success     bool      `json:"success"      db:"success"`
	TxHash      string    `json:"tx_hash"      db:"tx_hash"`
	Error       string    `json:"error"        db:"error_msg"`
	Attempts    int       `json:"attempts"     db:"attempts"`
	Nonce       uint64    `json:"nonce"        db:"nonce"`
	GasPrice    string    `json:"gas_price"    db:"gas_price"`
	Reverted    bool      `json:"reverted"     db:"reverted"`
	BlockNumber uint64    `json:"block_number" db:"block_number"`
	FinishedAt  time.Time `json:"finished_at"  db:"finished_at"`
}
