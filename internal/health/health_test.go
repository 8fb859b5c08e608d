package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/merchantloader/internal/core/domain"
	"github.com/vietddude/merchantloader/internal/infra/rpc/provider"
)

// =============================================================================
// Mocks
// =============================================================================

type stubProvider struct {
	available bool
	errorRate float64
}

func (s *stubProvider) GetName() string { return "stub" }
func (s *stubProvider) GetHealth() provider.HealthStatus {
	return provider.HealthStatus{Available: s.available, ErrorRate: s.errorRate, Latency: 20 * time.Millisecond}
}
func (s *stubProvider) IsAvailable() bool { return s.available }
func (s *stubProvider) Close() error      { return nil }

type stubDB struct {
	err error
}

func (s *stubDB) Health(ctx context.Context) error { return s.err }

// =============================================================================
// Tests
// =============================================================================

func TestMonitor_CheckHealth(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
		db       Pinger
		want     SystemStatus
	}{
		{"healthy", &stubProvider{available: true}, &stubDB{}, StatusHealthy},
		{"no database", &stubProvider{available: true}, nil, StatusHealthy},
		{"rpc errors", &stubProvider{available: true, errorRate: 0.3}, nil, StatusDegraded},
		{"database down", &stubProvider{available: true}, &stubDB{err: errors.New("down")}, StatusDegraded},
		{"provider throttled", &stubProvider{available: false}, &stubDB{}, StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(tt.provider, tt.db)
			report := m.CheckHealth(context.Background())
			if report.SystemStatus != tt.want {
				t.Errorf("status = %s, want %s", report.SystemStatus, tt.want)
			}
			if report.Ledger.LatencyMs != 20 {
				t.Errorf("latency = %d", report.Ledger.LatencyMs)
			}
		})
	}
}

func TestMonitor_BatchProgress(t *testing.T) {
	m := NewMonitor(&stubProvider{available: true}, nil)
	m.StartBatch("run-1", 3)

	ctx := context.Background()
	_ = m.Save(ctx, &domain.Outcome{RecordID: "A1", Success: true})
	_ = m.CheckHealth(ctx) // populate cache
	_ = m.Save(ctx, &domain.Outcome{RecordID: "A2", Success: false})

	report := m.CheckHealth(ctx)
	want := BatchHealth{RunID: "run-1", Total: 3, Processed: 2, Succeeded: 1, Failed: 1}
	if report.Batch != want {
		t.Errorf("batch = %+v, want %+v", report.Batch, want)
	}
}

func TestServer_Endpoints(t *testing.T) {
	srv := NewServer(NewMonitor(&stubProvider{available: false}, nil), 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["status"] != "critical" {
		t.Errorf("unexpected body %v (%v)", body, err)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))
	var report HealthReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Ledger.Provider != "stub" {
		t.Errorf("unexpected report %+v", report)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected metrics 200, got %d", rec.Code)
	}
}

type slowDB struct {
	entered chan struct{}
	release chan struct{}
}

func (s *slowDB) Health(ctx context.Context) error {
	close(s.entered)
	<-s.release
	return nil
}

func TestMonitor_SlowPingDoesNotBlockSave(t *testing.T) {
	db := &slowDB{entered: make(chan struct{}), release: make(chan struct{})}
	m := NewMonitor(&stubProvider{available: true}, db)
	m.StartBatch("run-1", 1)

	checked := make(chan HealthReport)
	go func() {
		checked <- m.CheckHealth(context.Background())
	}()
	<-db.entered

	saved := make(chan struct{})
	go func() {
		_ = m.Save(context.Background(), &domain.Outcome{RecordID: "A1", Success: true})
		close(saved)
	}()

	select {
	case <-saved:
	case <-time.After(time.Second):
		t.Fatal("Save blocked behind a health check")
	}

	close(db.release)
	report := <-checked
	if report.Batch.Processed != 1 {
		t.Errorf("expected the report to include the saved outcome, got %+v", report.Batch)
	}
}
