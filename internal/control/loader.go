// Package control wires the loader's components together.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/merchantloader/internal/core/config"
	"github.com/vietddude/merchantloader/internal/core/domain"
	"github.com/vietddude/merchantloader/internal/core/worker"
	"github.com/vietddude/merchantloader/internal/health"
	"github.com/vietddude/merchantloader/internal/infra/chain/evm"
	redisclient "github.com/vietddude/merchantloader/internal/infra/redis"
	"github.com/vietddude/merchantloader/internal/infra/rpc"
	"github.com/vietddude/merchantloader/internal/infra/rpc/provider"
	"github.com/vietddude/merchantloader/internal/infra/storage"
	"github.com/vietddude/merchantloader/internal/infra/storage/memory"
	"github.com/vietddude/merchantloader/internal/infra/storage/postgres"
	"github.com/vietddude/merchantloader/internal/submit"
)

// Loader is the upload application: it owns the ledger client, the
// submitter and the collaborators that receive outcomes.
type Loader struct {
	cfg          *config.AppConfig
	runID        string
	provider     *provider.HTTPProvider
	client       *rpc.Client
	ledger       *evm.EVMAdapter
	submitter    *submit.Submitter
	outcomes     storage.OutcomeRepository
	pruner       *worker.Pruner
	db           *postgres.DB
	redisClient  *redisclient.Client
	lock         *redisclient.AccountLock
	healthMon    *health.Monitor
	healthServer *health.Server
	log          *slog.Logger
}

// NewLoader creates a Loader with all dependencies initialized. The
// configuration must already pass ValidateUpload.
func NewLoader(ctx context.Context, cfg *config.AppConfig, runID string) (*Loader, error) {
	key, err := cfg.Signer.Key()
	if err != nil {
		return nil, err
	}
	contract, err := cfg.Contract.ContractAddress()
	if err != nil {
		return nil, err
	}
	maxGasPrice, err := cfg.Submit.MaxGasPriceWei()
	if err != nil {
		return nil, err
	}

	l := &Loader{
		cfg:   cfg,
		runID: runID,
		log:   slog.Default().With("run_id", runID),
	}

	// 1. Initialize Storage
	if cfg.Database.Enabled() {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		l.db = db
		l.outcomes = postgres.NewOutcomeRepo(db)
		l.pruner = worker.NewPruner(cfg.Database.Retention, l.outcomes)
		l.log.Info("Using PostgreSQL storage")
	} else {
		l.outcomes = memory.NewOutcomeRepo(memory.NewMemoryStorage())
		l.log.Info("Using Memory storage")
	}

	// 2. Initialize RPC and ledger client
	l.provider = provider.NewHTTPProvider(cfg.Chain.Name, cfg.Chain.RPCURL, cfg.Chain.Timeout)
	l.client = rpc.NewClient(cfg.Chain.Name, l.provider)
	l.ledger = evm.NewEVMAdapter(cfg.Chain.ID, l.client)

	encoder, err := evm.NewMerchantEncoder()
	if err != nil {
		l.close()
		return nil, err
	}

	// 3. Initialize Health
	if l.db != nil {
		l.healthMon = health.NewMonitor(l.provider, l.db)
	} else {
		l.healthMon = health.NewMonitor(l.provider, nil)
	}
	if cfg.Server.Port > 0 {
		l.healthServer = health.NewServer(l.healthMon, cfg.Server.Port)
	}

	// 4. Initialize Submitter
	l.submitter, err = submit.NewSubmitter(submit.Config{
		RunID:        runID,
		Contract:     contract,
		Key:          key,
		GasLimit:     cfg.Submit.GasLimit,
		MaxRetries:   cfg.Submit.MaxRetries,
		GasPriceBump: cfg.Submit.GasPriceBump,
		MaxGasPrice:  maxGasPrice,
		PollDelay:    cfg.Submit.PollDelay,
		RetryDelay:   cfg.Submit.RetryDelay,
	}, l.ledger, encoder,
		submit.WithSink(l.outcomes),
		submit.WithSink(l.healthMon),
		submit.WithLogger(l.log.With("component", "submitter")),
	)
	if err != nil {
		l.close()
		return nil, err
	}

	// 5. Initialize Redis
	if cfg.Redis.Enabled() {
		l.redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			l.close()
			return nil, err
		}
	}

	return l, nil
}

// RunID identifies this upload.
func (l *Loader) RunID() string {
	return l.runID
}

// Outcomes exposes the outcome repository.
func (l *Loader) Outcomes() storage.OutcomeRepository {
	return l.outcomes
}

// Start checks the ledger, takes the account lock and starts the health server.
func (l *Loader) Start(ctx context.Context) error {
	if err := l.ledger.VerifyChainID(ctx); err != nil {
		return err
	}

	if l.redisClient != nil {
		lock, err := l.redisClient.AcquireAccountLock(ctx, l.cfg.Chain.ID, l.submitter.Account().Hex(), l.runID)
		if err != nil {
			return err
		}
		l.lock = lock
	}

	if l.healthServer != nil {
		l.healthServer.Start()
	}
	if l.db != nil {
		l.db.StartMetricsCollector(ctx)
		go l.pruner.Start(ctx)
	}

	l.log.Info("Loader started",
		"chain", l.cfg.Chain.Name,
		"chain_id", l.cfg.Chain.ID,
		"account", l.submitter.Account().Hex(),
		"contract", l.cfg.Contract.Address,
	)
	return nil
}

// Upload submits records sequentially. When skipDone is set, records already
// registered by a previous run are left out.
func (l *Loader) Upload(ctx context.Context, records []domain.Record, skipDone bool) ([]domain.Outcome, error) {
	if skipDone {
		done, err := l.outcomes.Succeeded(ctx)
		if err != nil {
			return nil, err
		}
		pending := records[:0:0]
		for _, rec := range records {
			if !done[rec.ID] {
				pending = append(pending, rec)
			}
		}
		if skipped := len(records) - len(pending); skipped > 0 {
			l.log.Info("Skipping records already registered", "skipped", skipped)
		}
		records = pending
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if l.lock != nil {
		go func() {
			select {
			case <-l.lock.Lost():
				l.log.Error("Account lock lost, stopping upload")
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	l.healthMon.StartBatch(l.runID, len(records))
	start := time.Now()
	outcomes, err := l.submitter.Run(ctx, records)

	var succeeded, reverted int
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
		if o.Reverted {
			reverted++
		}
	}
	l.log.Info("Upload finished",
		"total", len(records),
		"processed", len(outcomes),
		"succeeded", succeeded,
		"failed", len(outcomes)-succeeded,
		"reverted", reverted,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return outcomes, err
}

// Stop releases the lock and closes all connections.
func (l *Loader) Stop(ctx context.Context) error {
	l.log.Info("Stopping Loader...")

	var errs []error
	if l.healthServer != nil {
		if err := l.healthServer.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop health server: %w", err))
		}
	}
	if l.lock != nil {
		if err := l.lock.Release(ctx); err != nil {
			errs = append(errs, err)
		}
		l.lock = nil
	}
	l.close()
	return errors.Join(errs...)
}

func (l *Loader) close() {
	if l.redisClient != nil {
		if err := l.redisClient.Close(); err != nil {
			l.log.Warn("Failed to close Redis", "error", err)
		}
		l.redisClient = nil
	}
	if l.client != nil {
		_ = l.client.Close()
		l.client = nil
	}
	if l.db != nil {
		if err := l.db.Close(); err != nil {
			l.log.Warn("Failed to close database", "error", err)
		}
		l.db = nil
	}
}
