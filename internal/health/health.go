// Package health provides loader health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the loader or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// LedgerHealth describes the RPC endpoint.
type LedgerHealth struct {
	Status       SystemStatus `json:"status"`
	Provider     string       `json:"provider"`
	RPCErrorRate float64      `json:"rpc_error_rate"`
	LatencyMs    int64        `json:"latency_ms"`
}

// BatchHealth describes progress through the current batch.
type BatchHealth struct {
	RunID     string `json:"run_id,omitempty"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// HealthReport contains the full health report.
type HealthReport struct {
	SystemStatus SystemStatus `json:"system_status"`
	Ledger       LedgerHealth `json:"ledger"`
	Database     SystemStatus `json:"database,omitempty"`
	Batch        BatchHealth  `json:"batch"`
}
