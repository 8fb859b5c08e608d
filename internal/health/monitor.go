package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/merchantloader/internal/core/domain"
	"github.com/vietddude/merchantloader/internal/infra/rpc/provider"
)

// Pinger is implemented by the outcome database.
type Pinger interface {
	Health(ctx context.Context) error
}

// Monitor aggregates health status from the loader's components. It also
// counts outcomes as they are produced, acting as a submit.OutcomeSink.
type Monitor struct {
	provider provider.Provider
	db       Pinger

	mu         sync.RWMutex
	batch      BatchHealth
	lastCheck  time.Time
	lastReport HealthReport
	cacheFor   time.Duration
}

// NewMonitor creates a new health monitor. db may be nil.
func NewMonitor(p provider.Provider, db Pinger) *Monitor {
	return &Monitor{
		provider: p,
		db:       db,
		cacheFor: 10 * time.Second,
	}
}

// StartBatch resets batch progress.
func (m *Monitor) StartBatch(runID string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batch = BatchHealth{RunID: runID, Total: total}
	m.lastCheck = time.Time{}
}

// Save records a terminal outcome.
func (m *Monitor) Save(ctx context.Context, outcome *domain.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batch.Processed++
	if outcome.Success {
		m.batch.Succeeded++
	} else {
		m.batch.Failed++
	}
	return nil
}

// CheckHealth builds a health report. Results are cached briefly so frequent
// requests do not hammer the database. The lock is not held during the ping,
// so a slow database never delays Save.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.RLock()
	fresh := !m.lastCheck.IsZero() && time.Since(m.lastCheck) < m.cacheFor
	cached := m.lastReport
	m.mu.RUnlock()

	if fresh {
		cached.Batch = m.batchSnapshot()
		return cached
	}

	report := HealthReport{SystemStatus: StatusHealthy}

	if m.provider != nil {
		h := m.provider.GetHealth()
		report.Ledger = LedgerHealth{
			Status:       StatusHealthy,
			Provider:     m.provider.GetName(),
			RPCErrorRate: h.ErrorRate,
			LatencyMs:    h.Latency.Milliseconds(),
		}
		switch {
		case !m.provider.IsAvailable():
			report.Ledger.Status = StatusCritical
		case h.ErrorRate > 0.1:
			report.Ledger.Status = StatusDegraded
		}
	}

	if m.db != nil {
		report.Database = StatusHealthy
		if err := m.db.Health(ctx); err != nil {
			report.Database = StatusDegraded
		}
	}

	// Aggregate status (worst case wins)
	report.SystemStatus = worst(report.Ledger.Status, report.Database)

	m.mu.Lock()
	m.lastCheck = time.Now()
	m.lastReport = report
	report.Batch = m.batch
	m.mu.Unlock()
	return report
}

func (m *Monitor) batchSnapshot() BatchHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.batch
}

func worst(statuses ...SystemStatus) SystemStatus {
	result := StatusHealthy
	for _, s := range statuses {
		switch s {
		case StatusCritical:
			return StatusCritical
		case StatusDegraded:
			result = StatusDegraded
		}
	}
	return result
}
