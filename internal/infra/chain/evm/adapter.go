// Package evm implements the ledger client for EVM chains on top of the
// JSON-RPC transport.
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vietddude/merchantloader/internal/core/domain"
	"github.com/vietddude/merchantloader/internal/infra/rpc"
	"github.com/vietddude/merchantloader/internal/submit"
)

// ErrChainMismatch is returned when the node serves a different chain than configured.
var ErrChainMismatch = errors.New("chain id mismatch")

type EVMAdapter struct {
	chainID *big.Int
	client  rpc.RPCClient
	signer  types.Signer
	log     *slog.Logger
}

var _ submit.Ledger = (*EVMAdapter)(nil)

func NewEVMAdapter(chainID uint64, client rpc.RPCClient) *EVMAdapter {
	id := new(big.Int).SetUint64(chainID)
	return &EVMAdapter{
		chainID: id,
		client:  client,
		signer:  types.LatestSignerForChainID(id),
		log:     slog.Default().With("component", "evm", "chain_id", chainID),
	}
}

// GetChainID asks the node which chain it serves.
func (a *EVMAdapter) GetChainID(ctx context.Context) (uint64, error) {
	result, err := a.client.Execute(ctx, rpc.NewHTTPOperation("eth_chainId"))
	if err != nil {
		return 0, fmt.Errorf("eth_chainId failed: %w", err)
	}
	return parseHexString(getString(result))
}

// VerifyChainID fails with ErrChainMismatch when the node's chain differs
// from the one transactions are signed for.
func (a *EVMAdapter) VerifyChainID(ctx context.Context) error {
	remote, err := a.GetChainID(ctx)
	if err != nil {
		return err
	}
	if remote != a.chainID.Uint64() {
		return fmt.Errorf("%w: node serves %d, configured %d", ErrChainMismatch, remote, a.chainID.Uint64())
	}
	return nil
}

// GetNonce returns the account's next nonce, counting pending transactions.
func (a *EVMAdapter) GetNonce(ctx context.Context, account common.Address) (uint64, error) {
	op := rpc.NewHTTPOperation("eth_getTransactionCount", account.Hex(), "pending")
	result, err := a.client.Execute(ctx, op)
	if err != nil {
		return 0, fmt.Errorf("eth_getTransactionCount failed: %w", err)
	}
	s, ok := result.(string)
	if !ok {
		return 0, fmt.Errorf("invalid nonce response: %v", result)
	}
	return parseHexString(s)
}

// GetGasPrice returns the node's suggested legacy gas price.
func (a *EVMAdapter) GetGasPrice(ctx context.Context) (*big.Int, error) {
	result, err := a.client.Execute(ctx, rpc.NewHTTPOperation("eth_gasPrice"))
	if err != nil {
		return nil, fmt.Errorf("eth_gasPrice failed: %w", err)
	}
	s, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("invalid gas price response: %v", result)
	}
	return parseHexToBigInt(s)
}

// Sign signs tx for the configured chain (EIP-155).
func (a *EVMAdapter) Sign(tx *types.Transaction, key *ecdsa.PrivateKey) (*types.Transaction, error) {
	return types.SignTx(tx, a.signer, key)
}

// Broadcast submits a signed transaction. Rejections the submitter can
// recover from are wrapped with submit.ErrPriceTooLow or submit.ErrStaleNonce.
// A node that already holds the exact transaction is treated as accepted.
func (a *EVMAdapter) Broadcast(ctx context.Context, signed *types.Transaction) (common.Hash, error) {
	raw, err := signed.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode transaction: %w", err)
	}

	result, err := a.client.Execute(ctx, rpc.NewSendOperation("eth_sendRawTransaction", hexutil.Encode(raw)))
	if err != nil {
		if isAlreadyKnown(err) {
			a.log.Debug("Transaction already known", "tx", signed.Hash().Hex())
			return signed.Hash(), nil
		}
		return common.Hash{}, ClassifyTxError(err)
	}

	hash := signed.Hash()
	if s := getString(result); s != "" && !strings.EqualFold(s, hash.Hex()) {
		a.log.Warn("Node returned unexpected transaction hash", "expected", hash.Hex(), "got", s)
	}
	return hash, nil
}

// GetReceipt returns the receipt of a mined transaction, or
// submit.ErrReceiptPending while it is still unknown to the node.
func (a *EVMAdapter) GetReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error) {
	result, err := a.client.Execute(ctx, rpc.NewHTTPOperation("eth_getTransactionReceipt", hash.Hex()))
	if err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt failed: %w", err)
	}
	if result == nil {
		return nil, submit.ErrReceiptPending
	}

	raw, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid receipt format")
	}
	// Some nodes return a receipt stub without a block for pending transactions.
	if getString(raw["blockNumber"]) == "" {
		return nil, submit.ErrReceiptPending
	}
	return parseReceipt(raw)
}

func parseReceipt(raw map[string]any) (*domain.Receipt, error) {
	blockNumber, err := parseHexString(getString(raw["blockNumber"]))
	if err != nil {
		return nil, fmt.Errorf("receipt block number: %w", err)
	}
	status, err := parseHexString(getString(raw["status"]))
	if err != nil {
		return nil, fmt.Errorf("receipt status: %w", err)
	}
	gasUsed, _ := parseHexString(getString(raw["gasUsed"]))

	return &domain.Receipt{
		TxHash:      getString(raw["transactionHash"]),
		BlockNumber: blockNumber,
		BlockHash:   getString(raw["blockHash"]),
		GasUsed:     gasUsed,
		Status:      domain.ReceiptStatus(status),
	}, nil
}

func parseHexToBigInt(hexStr string) (*big.Int, error) {
	n, err := hexutil.DecodeBig(hexStr)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", hexStr, err)
	}
	return n, nil
}

func parseHexString(hexStr string) (uint64, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return 0, fmt.Errorf("invalid hex: %q", hexStr)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("hex out of range: %s", hexStr)
	}
	return n.Uint64(), nil
}

func getString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
