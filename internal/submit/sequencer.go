package submit

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Sequencer holds the account nonce and gas price. It is owned by one
// Submitter and is not safe for concurrent use.
type Sequencer struct {
	account  common.Address
	nonce    uint64
	gasPrice *big.Int
}

// NewSequencer creates a sequencer for account.
func NewSequencer(account common.Address) *Sequencer {
	return &Sequencer{account: account, gasPrice: new(big.Int)}
}

// Account returns the sending account.
func (s *Sequencer) Account() common.Address {
	return s.account
}

// Nonce returns the nonce the next transaction will use.
func (s *Sequencer) Nonce() uint64 {
	return s.nonce
}

// GasPrice returns a copy of the current gas price.
func (s *Sequencer) GasPrice() *big.Int {
	return new(big.Int).Set(s.gasPrice)
}

// Refresh reads both nonce and gas price from the ledger.
func (s *Sequencer) Refresh(ctx context.Context, ledger Ledger) error {
	if err := s.RefreshNonce(ctx, ledger); err != nil {
		return err
	}
	price, err := ledger.GetGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("get gas price: %w", err)
	}
	if price == nil {
		return fmt.Errorf("get gas price: empty result")
	}
	s.gasPrice = new(big.Int).Set(price)
	return nil
}

// RefreshNonce re-reads the account nonce.
func (s *Sequencer) RefreshNonce(ctx context.Context, ledger Ledger) error {
	nonce, err := ledger.GetNonce(ctx, s.account)
	if err != nil {
		return fmt.Errorf("get nonce: %w", err)
	}
	s.nonce = nonce
	return nil
}

// ClampGasPrice lowers the gas price to ceiling when it is above it and
// reports whether it did. A nil ceiling is unbounded.
func (s *Sequencer) ClampGasPrice(ceiling *big.Int) bool {
	if ceiling == nil || s.gasPrice.Cmp(ceiling) <= 0 {
		return false
	}
	s.gasPrice = new(big.Int).Set(ceiling)
	return true
}

// BumpGasPrice multiplies the gas price by factor, truncating to whole wei.
// The price always grows by at least one wei. With a non-nil ceiling the
// price is clamped to it, and ErrGasPriceCeiling is returned once no
// further increase is possible.
func (s *Sequencer) BumpGasPrice(factor float64, ceiling *big.Int) error {
	next := bumpGasPrice(s.gasPrice, factor)
	if ceiling != nil && next.Cmp(ceiling) > 0 {
		if s.gasPrice.Cmp(ceiling) >= 0 {
			return fmt.Errorf("%w: %s wei", ErrGasPriceCeiling, ceiling)
		}
		next = new(big.Int).Set(ceiling)
	}
	s.gasPrice = next
	return nil
}

func bumpGasPrice(price *big.Int, factor float64) *big.Int {
	f := new(big.Float).SetInt(price)
	f.Mul(f, big.NewFloat(factor))
	next, _ := f.Int(nil)
	if next.Cmp(price) <= 0 {
		next = new(big.Int).Add(price, big.NewInt(1))
	}
	return next
}
