package domain

// ReceiptStatus mirrors the EVM receipt status field.
type ReceiptStatus uint64

const (
	ReceiptStatusFailed  ReceiptStatus = 0
	ReceiptStatusSuccess ReceiptStatus = 1
)

// Receipt is the subset of a mined transaction receipt the loader cares about.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	BlockHash   string
	GasUsed     uint64
	Status      ReceiptStatus
}

// Reverted reports whether the transaction was mined but execution failed.
func (r *Receipt) Reverted() bool {
	return r.Status == ReceiptStatusFailed
}
