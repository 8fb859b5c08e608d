package submit

import (
	"errors"
	"fmt"
)

// Transient ledger conditions. Ledger implementations wrap provider errors
// with these so the submitter can match them with errors.Is.
var (
	// ErrPriceTooLow is an underpriced (replacement) rejection; fixed by a gas price bump.
	ErrPriceTooLow = errors.New("transaction underpriced")

	// ErrStaleNonce is a nonce too low rejection; fixed by re-reading the nonce.
	ErrStaleNonce = errors.New("nonce too low")

	// ErrReceiptPending means the transaction has no receipt yet; fixed by polling again.
	ErrReceiptPending = errors.New("transaction receipt not found")

	// ErrGasPriceCeiling is returned when an underpriced rejection arrives while
	// the gas price already sits at the configured ceiling.
	ErrGasPriceCeiling = errors.New("gas price ceiling reached")
)

// RecordSubmissionError is the terminal failure of one record after the
// record-level retry budget is spent.
type RecordSubmissionError struct {
	RecordID string
	Attempts int
	Err      error
}

func (e *RecordSubmissionError) Error() string {
	return fmt.Sprintf("record %s failed after %d attempts: %v", e.RecordID, e.Attempts, e.Err)
}

func (e *RecordSubmissionError) Unwrap() error {
	return e.Err
}
