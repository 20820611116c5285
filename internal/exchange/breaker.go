package exchange

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/irfndi/cryptogap-go/internal/models"
)

// ErrCircuitOpen is returned while an exchange is being skipped after
// repeated failures.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState represents the current state of a breaker.
type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds configuration for the circuit breaker
type BreakerConfig struct {
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold int
	// Cooldown is how long an open breaker rejects calls before one probe
	// is let through.
	Cooldown time.Duration
}

// BreakerStats holds statistics for one breaker.
type BreakerStats struct {
	State           string    `json:"state"`
	TotalRequests   int64     `json:"total_requests"`
	FailedRequests  int64     `json:"failed_requests"`
	Rejected        int64     `json:"rejected"`
	LastFailureTime time.Time `json:"last_failure_time"`
	StateChanges    int64     `json:"state_changes"`
}

// GuardedFetcher stops calling an exchange that keeps failing. While open,
// FetchPrices fails fast with ErrCircuitOpen, which the calculator treats
// like any other failed fetch.
type GuardedFetcher struct {
	next   Fetcher
	config BreakerConfig
	logger *slog.Logger
	now    func() time.Time

	mu              sync.Mutex
	state           BreakerState
	failures        int
	probing         bool
	lastStateChange time.Time
	stats           BreakerStats
}

// NewGuardedFetcher wraps next. Zero config values fall back to five
// failures and a two minute cooldown.
func NewGuardedFetcher(next Fetcher, config BreakerConfig, logger *slog.Logger) *GuardedFetcher {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GuardedFetcher{
		next:   next,
		config: config,
		logger: logger.With("component", "circuit_breaker", "exchange", next.Name()),
		now:    time.Now,
	}
}

func (g *GuardedFetcher) Name() string {
	return g.next.Name()
}

func (g *GuardedFetcher) FetchPrices(ctx context.Context, symbols, markets []string) (models.PriceTable, error) {
	if !g.allow() {
		return nil, ErrCircuitOpen
	}

	prices, err := g.next.FetchPrices(ctx, symbols, markets)
	if err != nil && ctx.Err() == nil {
		g.onFailure(err)
		return nil, err
	}
	if err == nil {
		g.onSuccess()
	} else {
		g.release()
	}
	return prices, err
}

// allow admits the call. In the half-open state only one probe is in
// flight at a time.
func (g *GuardedFetcher) allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stats.TotalRequests++
	switch g.state {
	case Open:
		if g.now().Sub(g.lastStateChange) < g.config.Cooldown {
			g.stats.Rejected++
			return false
		}
		g.setState(HalfOpen)
		g.probing = true
		return true
	case HalfOpen:
		if g.probing {
			g.stats.Rejected++
			return false
		}
		g.probing = true
		return true
	default:
		return true
	}
}

func (g *GuardedFetcher) onSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failures = 0
	g.probing = false
	if g.state != Closed {
		g.setState(Closed)
	}
}

func (g *GuardedFetcher) onFailure(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stats.FailedRequests++
	g.stats.LastFailureTime = g.now()
	g.failures++
	g.probing = false

	if g.state == HalfOpen || g.failures >= g.config.FailureThreshold {
		if g.state != Open {
			g.logger.Warn("Exchange failing, pausing fetches",
				"failures", g.failures,
				"cooldown", g.config.Cooldown.String(),
				"error", err)
		}
		g.setState(Open)
	}
}

// release frees a probe slot after a call cut short by its own context.
func (g *GuardedFetcher) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.probing = false
}

// setState changes the state. Callers hold g.mu.
func (g *GuardedFetcher) setState(state BreakerState) {
	if g.state == state {
		g.lastStateChange = g.now()
		return
	}
	g.logger.Info("Circuit breaker state changed", "old_state", g.state.String(), "new_state", state.String())
	g.state = state
	g.lastStateChange = g.now()
	g.stats.StateChanges++
}

// State returns the current breaker state.
func (g *GuardedFetcher) State() BreakerState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Stats returns a copy of the breaker counters.
func (g *GuardedFetcher) Stats() BreakerStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	stats := g.stats
	stats.State = g.state.String()
	return stats
}
