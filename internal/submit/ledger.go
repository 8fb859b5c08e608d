package submit

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vietddude/merchantloader/internal/core/domain"
)

// Ledger is the chain client the submitter drives.
//
// Broadcast must report underpriced and stale nonce rejections as
// ErrPriceTooLow / ErrStaleNonce, and GetReceipt must return ErrReceiptPending
// while the transaction is not yet mined.
type Ledger interface {
	GetNonce(ctx context.Context, account common.Address) (uint64, error)
	GetGasPrice(ctx context.Context) (*big.Int, error)
	Sign(tx *types.Transaction, key *ecdsa.PrivateKey) (*types.Transaction, error)
	Broadcast(ctx context.Context, signed *types.Transaction) (common.Hash, error)
	GetReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error)
}

// Encoder turns a record into contract call data.
type Encoder interface {
	Encode(record domain.Record) ([]byte, error)
}

// OutcomeSink receives every terminal outcome. Sink failures never stop a batch.
type OutcomeSink interface {
	Save(ctx context.Context, outcome *domain.Outcome) error
}
