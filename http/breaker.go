package http

import (
	"sync"
	"time"
)

// Breaker suspends requests to a host after repeated consecutive
// failures, so a dead or blocking endpoint does not slow down the rest
// of a run with doomed retry loops.
type Breaker struct {
	mu     sync.Mutex
	hosts  map[string]*breakerState
	config BreakerConfig
}

type breakerState struct {
	consecutiveFailures int
	suspendedUntil      time.Time
}

// BreakerConfig defines failure-breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before a
	// host is suspended.
	FailureThreshold int
	// SuspendFor is how long a suspended host is skipped.
	SuspendFor time.Duration
}

// DefaultBreakerConfig returns defaults suited to a single batch run.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuspendFor:       2 * time.Minute,
	}
}

// NewBreaker creates a failure breaker with the given configuration.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if cfg.SuspendFor == 0 {
		cfg.SuspendFor = DefaultBreakerConfig().SuspendFor
	}
	return &Breaker{
		hosts:  make(map[string]*breakerState),
		config: cfg,
	}
}

// Allow reports whether a request to the host may proceed. It returns
// ErrHostSuspended while the host is suspended.
func (b *Breaker) Allow(host string) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.hosts[host]
	if !ok {
		return nil
	}
	if time.Now().Before(state.suspendedUntil) {
		return ErrHostSuspended
	}
	return nil
}

// RecordSuccess resets the failure count for a host.
func (b *Breaker) RecordSuccess(host string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.hosts, host)
}

// RecordFailure counts a failure and suspends the host once the
// threshold is reached.
func (b *Breaker) RecordFailure(host string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.hosts[host]
	if !ok {
		state = &breakerState{}
		b.hosts[host] = state
	}
	state.consecutiveFailures++
	if state.consecutiveFailures >= b.config.FailureThreshold {
		state.suspendedUntil = time.Now().Add(b.config.SuspendFor)
		state.consecutiveFailures = 0
	}
}
