// Package routing decides how transport failures are handled.
package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/merchantloader/internal/infra/rpc/provider"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     5,
	InitialDelay:    500 * time.Millisecond,
	MaxDelay:        30 * time.Second,
	BackoffMultiple: 2.0,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionThrottled
	ActionFatal
)

func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionThrottled:
		return "throttled"
	case ActionFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// throttlePatterns are the phrases hosted providers put in error messages
// when rate limiting. Status codes are matched on HTTPStatusError instead.
var throttlePatterns = []string{
	"too many requests",
	"quota",
	"plan limit",
	"rate limit",
	"count exceeded",
	"compute units per second",
}

// Standard JSON-RPC codes for a malformed request. Repeating it cannot help.
var malformedCodes = []string{"-32700", "-32600", "-32601", "-32602"}

// ClassifyError determines the action for a given error.
//
// Errors the node returned inside a JSON-RPC response are final for the
// transport: the request reached the node and was answered. The exceptions
// are provider throttling messages. Network failures and 5xx retry.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ActionFatal
	}

	if errors.Is(err, provider.ErrThrottled) {
		return ActionThrottled
	}

	var statusErr *provider.HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests, statusErr.StatusCode == http.StatusForbidden:
			return ActionThrottled
		case statusErr.StatusCode >= 400 && statusErr.StatusCode < 500:
			return ActionFatal
		}
	}

	msg := strings.ToLower(err.Error())
	if containsAny(msg, throttlePatterns) {
		return ActionThrottled
	}

	var rpcErr *provider.RPCError
	if errors.As(err, &rpcErr) || containsAny(msg, malformedCodes) {
		return ActionFatal
	}
	return ActionRetry
}

// retryAfterer is implemented by providers that know how long they are
// throttled for.
type retryAfterer interface {
	RetryAfter() time.Duration
}

// CallWithRetry executes an RPC call with exponential backoff. A throttled
// provider is waited out for its Retry-After window, capped at MaxDelay.
func CallWithRetry(
	ctx context.Context,
	p provider.RPCProvider,
	method string,
	params []any,
	config RetryConfig,
) (any, error) {
	var lastErr error

	for attempt := range config.MaxAttempts {
		result, err := p.Call(ctx, method, params)
		if err == nil {
			return result, nil
		}
		lastErr = err

		action := ClassifyError(err)
		if action == ActionFatal {
			return nil, err
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateBackoff(attempt, config)
		if ra, ok := p.(retryAfterer); ok && action == ActionThrottled {
			delay = max(delay, min(ra.RetryAfter(), config.MaxDelay))
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("%s failed after %d attempts: %w", method, config.MaxAttempts, lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	return time.Duration(math.Min(delay, float64(config.MaxDelay)))
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
