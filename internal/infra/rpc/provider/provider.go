// Package provider implements the JSON-RPC transport to the ledger node.
//
// This package contains:
//   - Provider / RPCProvider interfaces: the abstraction the chain client uses
//   - HTTPProvider: JSON-RPC 2.0 over HTTP
//   - ProviderMonitor: latency and throttle tracking
package provider

import (
	"context"
	"fmt"
	"time"
)

// Provider defines lifecycle and health methods shared by every transport.
type Provider interface {
	// GetName returns provider identifier (e.g., "alchemy", "local")
	GetName() string

	// GetHealth returns current health metrics
	GetHealth() HealthStatus

	// IsAvailable checks if the provider is healthy enough to use
	IsAvailable() bool

	// Close cleans up resources
	Close() error
}

// RPCProvider extends Provider with JSON-RPC calls.
type RPCProvider interface {
	Provider

	// Call makes a single RPC request
	Call(ctx context.Context, method string, params []any) (any, error)
}

// RPCError is an error object returned by the node inside a JSON-RPC response.
// The message carries the node's wording, which callers classify
// (e.g. "nonce too low").
type RPCError struct {
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("rpc error: %s", e.Message)
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool
	Latency       time.Duration
	ErrorRate     float64
	LastSuccessAt time.Time
	LastFailureAt time.Time
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}
