// Package submit sends one contract write per record, strictly one record
// at a time, against a single account nonce.
//
// Two retry policies coexist. Underpriced rejections, stale nonces and
// missing receipts are expected to clear on their own and are retried
// without limit inside the record's attempt. Any other failure abandons the
// attempt; the record is retried from scratch up to MaxRetries times and
// then reported as failed while the batch moves on.
package submit

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vietddude/merchantloader/internal/core/config"
	"github.com/vietddude/merchantloader/internal/core/domain"
	"github.com/vietddude/merchantloader/internal/metrics"
)

// Config holds the submitter settings.
type Config struct {
	RunID        string
	Contract     common.Address
	Key          *ecdsa.PrivateKey
	GasLimit     uint64
	MaxRetries   int
	GasPriceBump float64
	MaxGasPrice  *big.Int // nil = unbounded
	PollDelay    time.Duration
	RetryDelay   time.Duration
}

// Option customizes a Submitter.
type Option func(*Submitter)

// WithSink registers a sink for terminal outcomes.
func WithSink(sink OutcomeSink) Option {
	return func(s *Submitter) {
		s.sinks = append(s.sinks, sink)
	}
}

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Submitter) {
		s.log = log
	}
}

// Submitter processes records sequentially against one account.
type Submitter struct {
	cfg     Config
	ledger  Ledger
	encoder Encoder
	seq     *Sequencer
	sinks   []OutcomeSink
	log     *slog.Logger
	now     func() time.Time
}

// NewSubmitter creates a Submitter. It fails with a *config.ConfigurationError
// when no signing key is configured.
func NewSubmitter(cfg Config, ledger Ledger, encoder Encoder, opts ...Option) (*Submitter, error) {
	if cfg.Key == nil {
		return nil, &config.ConfigurationError{Field: "signer.private_key", Reason: "required"}
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = config.DefaultMaxRetries
	}
	if cfg.GasPriceBump <= 1 {
		cfg.GasPriceBump = config.DefaultGasPriceBump
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = config.DefaultGasLimit
	}

	s := &Submitter{
		cfg:     cfg,
		ledger:  ledger,
		encoder: encoder,
		seq:     NewSequencer(crypto.PubkeyToAddress(cfg.Key.PublicKey)),
		log:     slog.Default().With("component", "submitter"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Account returns the sending address.
func (s *Submitter) Account() common.Address {
	return s.seq.Account()
}

// Run submits every record in order and returns one outcome per processed
// record, in input order. A failed record never stops the batch; only
// context cancellation does, in which case the outcomes gathered so far are
// returned together with the context error.
func (s *Submitter) Run(ctx context.Context, records []domain.Record) ([]domain.Outcome, error) {
	outcomes := make([]domain.Outcome, 0, len(records))
	metrics.BatchRecords.WithLabelValues("total").Set(float64(len(records)))
	metrics.BatchRecords.WithLabelValues("processed").Set(0)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		outcome := s.Submit(ctx, rec)
		outcomes = append(outcomes, outcome)
		s.publish(ctx, &outcome)
		metrics.BatchRecords.WithLabelValues("processed").Set(float64(i + 1))

		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
	}

	return outcomes, nil
}

// Submit drives a single record to a terminal state.
func (s *Submitter) Submit(ctx context.Context, rec domain.Record) domain.Outcome {
	attempt := &domain.Attempt{Record: rec, State: domain.StatePreparing}

	for {
		metrics.RecordAttempts.Inc()
		receipt, err := s.try(ctx, attempt)
		if err == nil {
			attempt.State = domain.StateSucceeded
			return s.succeeded(attempt, receipt)
		}

		attempt.AttemptCount++
		attempt.LastError = err

		if ctx.Err() != nil {
			attempt.State = domain.StateFailed
			return s.failed(attempt)
		}

		if attempt.AttemptCount >= s.cfg.MaxRetries {
			attempt.State = domain.StateFailed
			return s.failed(attempt)
		}

		s.log.Warn("Record attempt failed, retrying",
			"uen", rec.ID,
			"attempt", attempt.AttemptCount+1,
			"max", s.cfg.MaxRetries,
			"error", err,
		)
		if err := sleep(ctx, s.cfg.RetryDelay); err != nil {
			attempt.LastError = err
			attempt.State = domain.StateFailed
			return s.failed(attempt)
		}
	}
}

// try runs one record-level attempt: PREPARING through CONFIRMING.
func (s *Submitter) try(ctx context.Context, a *domain.Attempt) (*domain.Receipt, error) {
	a.State = domain.StatePreparing
	if err := s.seq.Refresh(ctx, s.ledger); err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	if s.seq.ClampGasPrice(s.cfg.MaxGasPrice) {
		s.log.Warn("Network gas price above ceiling, using ceiling",
			"uen", a.Record.ID,
			"gas_price", s.cfg.MaxGasPrice.String(),
		)
	}

	data, err := s.encoder.Encode(a.Record)
	if err != nil {
		return nil, fmt.Errorf("encode call: %w", err)
	}

	var hash common.Hash
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a.State = domain.StateSigning
		a.Nonce = s.seq.Nonce()
		a.GasPrice = s.seq.GasPrice()

		tx := types.NewTx(&types.LegacyTx{
			Nonce:    a.Nonce,
			GasPrice: a.GasPrice,
			Gas:      s.cfg.GasLimit,
			To:       &s.cfg.Contract,
			Data:     data,
		})
		signed, err := s.ledger.Sign(tx, s.cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("sign: %w", err)
		}
		metrics.AccountNonce.Set(float64(a.Nonce))
		gasPrice, _ := new(big.Float).SetInt(a.GasPrice).Float64()
		metrics.GasPriceWei.Set(gasPrice)

		a.State = domain.StateBroadcasting
		hash, err = s.ledger.Broadcast(ctx, signed)
		if err == nil {
			break
		}

		switch {
		case errors.Is(err, ErrPriceTooLow):
			if bumpErr := s.seq.BumpGasPrice(s.cfg.GasPriceBump, s.cfg.MaxGasPrice); bumpErr != nil {
				return nil, bumpErr
			}
			metrics.GasPriceBumps.Inc()
			s.log.Info("Increasing gas price", "uen", a.Record.ID, "gas_price", s.seq.GasPrice().String())
		case errors.Is(err, ErrStaleNonce):
			if nonceErr := s.seq.RefreshNonce(ctx, s.ledger); nonceErr != nil {
				return nil, fmt.Errorf("refresh nonce: %w", nonceErr)
			}
			metrics.NonceRefreshes.Inc()
			s.log.Info("Updating nonce", "uen", a.Record.ID, "nonce", s.seq.Nonce())
		default:
			return nil, fmt.Errorf("broadcast: %w", err)
		}
	}

	a.State = domain.StateConfirming
	s.log.Debug("Transaction broadcast", "uen", a.Record.ID, "tx", hash.Hex(), "nonce", a.Nonce)
	return s.awaitReceipt(ctx, hash)
}

// awaitReceipt polls until the transaction is mined.
func (s *Submitter) awaitReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error) {
	for {
		receipt, err := s.ledger.GetReceipt(ctx, hash)
		if err == nil {
			if receipt == nil {
				return nil, fmt.Errorf("receipt %s: empty result", hash.Hex())
			}
			return receipt, nil
		}
		if !errors.Is(err, ErrReceiptPending) {
			return nil, fmt.Errorf("receipt %s: %w", hash.Hex(), err)
		}

		metrics.ReceiptPolls.Inc()
		s.log.Debug("Transaction not found, polling again", "tx", hash.Hex())
		if err := sleep(ctx, s.cfg.PollDelay); err != nil {
			return nil, err
		}
	}
}

func (s *Submitter) succeeded(a *domain.Attempt, receipt *domain.Receipt) domain.Outcome {
	metrics.RecordsTotal.WithLabelValues("succeeded").Inc()

	if receipt.Reverted() {
		s.log.Warn("Transaction mined but reverted", "uen", a.Record.ID, "tx", receipt.TxHash)
	}
	s.log.Info("Added merchant",
		"uen", a.Record.ID,
		"name", a.Record.Name,
		"tx", receipt.TxHash,
		"block", receipt.BlockNumber,
	)

	return domain.Outcome{
		RunID:       s.cfg.RunID,
		RecordID:    a.Record.ID,
		Name:        a.Record.Name,
		Success:     true,
		TxHash:      receipt.TxHash,
		Attempts:    a.AttemptCount + 1,
		Nonce:       a.Nonce,
		GasPrice:    a.GasPrice.String(),
		Reverted:    receipt.Reverted(),
		BlockNumber: receipt.BlockNumber,
		FinishedAt:  s.now(),
	}
}

func (s *Submitter) failed(a *domain.Attempt) domain.Outcome {
	metrics.RecordsTotal.WithLabelValues("failed").Inc()

	err := &RecordSubmissionError{RecordID: a.Record.ID, Attempts: a.AttemptCount, Err: a.LastError}
	s.log.Error("Failed to add merchant", "uen", a.Record.ID, "attempts", a.AttemptCount, "error", a.LastError)

	outcome := domain.Outcome{
		RunID:      s.cfg.RunID,
		RecordID:   a.Record.ID,
		Name:       a.Record.Name,
		Success:    false,
		Error:      err.Error(),
		Attempts:   a.AttemptCount,
		Nonce:      a.Nonce,
		FinishedAt: s.now(),
	}
	if a.GasPrice != nil {
		outcome.GasPrice = a.GasPrice.String()
	}
	return outcome
}

// publish hands outcome to every sink. Sinks run detached from cancellation
// so the outcome of an interrupted record is still stored.
func (s *Submitter) publish(ctx context.Context, outcome *domain.Outcome) {
	ctx = context.WithoutCancel(ctx)
	for _, sink := range s.sinks {
		if err := sink.Save(ctx, outcome); err != nil {
			s.log.Warn("Failed to record outcome", "uen", outcome.RecordID, "error", err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
