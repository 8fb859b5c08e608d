// Package rpc provides the JSON-RPC client used to talk to the ledger node.
//
// The package is organized into sub-packages:
//
//   - provider/ - HTTP transport and endpoint monitoring
//   - routing/  - error classification and retry with backoff
package rpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/merchantloader/internal/infra/rpc/provider"
	"github.com/vietddude/merchantloader/internal/infra/rpc/routing"
	"github.com/vietddude/merchantloader/internal/metrics"
)

// RPCClient is what chain adapters depend on.
type RPCClient interface {
	Execute(ctx context.Context, op Operation) (any, error)
}

// Client executes operations against one provider with retry and metrics.
type Client struct {
	chain    string
	provider provider.RPCProvider
	retry    routing.RetryConfig
	log      *slog.Logger
}

// NewClient creates a new RPC client.
func NewClient(chain string, p provider.RPCProvider) *Client {
	return &Client{
		chain:    chain,
		provider: p,
		retry:    routing.DefaultRetryConfig,
		log:      slog.Default().With("component", "rpc", "chain", chain),
	}
}

// WithRetry overrides the transport retry policy.
func (c *Client) WithRetry(cfg routing.RetryConfig) *Client {
	c.retry = cfg
	return c
}

// Execute runs op, retrying transient transport failures unless op.Once.
func (c *Client) Execute(ctx context.Context, op Operation) (any, error) {
	start := time.Now()
	metrics.RPCCallsTotal.WithLabelValues(c.chain, op.Method).Inc()

	var (
		result any
		err    error
	)
	if op.Once {
		result, err = c.provider.Call(ctx, op.Method, op.Params)
	} else {
		result, err = routing.CallWithRetry(ctx, c.provider, op.Method, op.Params, c.retry)
	}

	metrics.RPCLatency.WithLabelValues(c.chain, op.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		action := routing.ClassifyError(err)
		metrics.RPCErrorsTotal.WithLabelValues(c.chain, op.Method, action.String()).Inc()
		c.log.Debug("RPC call failed", "method", op.Method, "action", action.String(), "error", err)
		return nil, err
	}
	return result, nil
}

// Provider returns the underlying provider.
func (c *Client) Provider() provider.RPCProvider {
	return c.provider
}

// Close releases the provider's resources.
func (c *Client) Close() error {
	return c.provider.Close()
}
