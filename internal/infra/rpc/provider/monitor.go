package provider

import (
	"strings"
	"sync"
	"time"
)

// ProviderStatus represents the health state of a provider.
type ProviderStatus int

const (
	StatusHealthy   ProviderStatus = iota // Provider is working normally
	StatusDegraded                        // Provider is slow but working
	StatusThrottled                       // Provider is rate limiting
	StatusBlocked                         // Provider has blocked this client
)

func (s ProviderStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MonitorStats holds monitoring statistics for a provider.
type MonitorStats struct {
	Status           ProviderStatus
	AverageLatency   time.Duration
	ThrottleCount429 int
	ThrottleCount403 int
	Requests         int
}

const (
	latencyWindow      = 100
	slowResponse       = 3 * time.Second
	defaultThrottleFor = 60 * time.Second
	blockedFor         = 10 * time.Minute
)

// throttlePatterns are provider messages that mean "slow down" even when the
// HTTP status is 200.
var throttlePatterns = []string{
	"rate limit exceeded",
	"too many requests",
	"daily request count exceeded",
	"project rate limit",
	"monthly capacity limit exceeded",
	"compute units per second",
}

// ProviderMonitor tracks latency and throttling for one endpoint.
type ProviderMonitor struct {
	mu sync.RWMutex

	// ring buffer of the last latencyWindow latencies
	latencies [latencyWindow]time.Duration
	next      int
	filled    int
	sum       time.Duration
	requests  int

	count429     int
	count403     int
	penaltyCode  int // status of the most recent throttle
	penaltyStart time.Time
	penaltyFor   time.Duration

	now func() time.Time
}

// NewProviderMonitor creates a new monitor with default settings.
func NewProviderMonitor() *ProviderMonitor {
	return &ProviderMonitor{now: time.Now}
}

// RecordRequest records a successful request with its latency.
func (pm *ProviderMonitor) RecordRequest(latency time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.requests++
	if pm.filled == latencyWindow {
		pm.sum -= pm.latencies[pm.next]
	} else {
		pm.filled++
	}
	pm.latencies[pm.next] = latency
	pm.sum += latency
	pm.next = (pm.next + 1) % latencyWindow
}

// RecordThrottle records a rate limiting (429) or blocking (403) response.
// retryAfter comes from the Retry-After header and may be zero.
func (pm *ProviderMonitor) RecordThrottle(statusCode int, retryAfter time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	switch statusCode {
	case 429:
		pm.count429++
		pm.penaltyFor = retryAfter
		if pm.penaltyFor <= 0 {
			pm.penaltyFor = defaultThrottleFor
		}
	case 403:
		pm.count403++
		pm.penaltyFor = blockedFor
	default:
		return
	}
	pm.penaltyCode = statusCode
	pm.penaltyStart = pm.now()
}

// DetectThrottlePattern checks if a message contains throttle patterns.
func (pm *ProviderMonitor) DetectThrottlePattern(message string) bool {
	msg := strings.ToLower(message)
	for _, pattern := range throttlePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// CheckProviderStatus returns the current status of the provider.
func (pm *ProviderMonitor) CheckProviderStatus() ProviderStatus {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.statusLocked()
}

func (pm *ProviderMonitor) statusLocked() ProviderStatus {
	if pm.remainingLocked() > 0 {
		if pm.penaltyCode == 403 {
			return StatusBlocked
		}
		return StatusThrottled
	}
	if pm.filled > 10 && pm.averageLocked() > slowResponse {
		return StatusDegraded
	}
	return StatusHealthy
}

// GetRetryAfter returns remaining time before retry is allowed.
func (pm *ProviderMonitor) GetRetryAfter() time.Duration {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.remainingLocked()
}

func (pm *ProviderMonitor) remainingLocked() time.Duration {
	if pm.penaltyCode == 0 {
		return 0
	}
	return max(pm.penaltyFor-pm.now().Sub(pm.penaltyStart), 0)
}

func (pm *ProviderMonitor) averageLocked() time.Duration {
	if pm.filled == 0 {
		return 0
	}
	return pm.sum / time.Duration(pm.filled)
}

// GetStats returns current monitoring statistics.
func (pm *ProviderMonitor) GetStats() MonitorStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return MonitorStats{
		Status:           pm.statusLocked(),
		AverageLatency:   pm.averageLocked(),
		ThrottleCount429: pm.count429,
		ThrottleCount403: pm.count403,
		Requests:         pm.requests,
	}
}
