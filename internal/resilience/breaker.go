// Package resilience provides failover primitives for the remote provider
// backends.
//
// A [Breaker] is a three-state circuit breaker (closed, open, half-open)
// that stops calls to a backend after repeated failures and probes it again
// after a cooldown. [Group] composes several backends of the same provider
// kind behind per-backend breakers, trying them in order until one answers.
// The STT, LLM and TTS wrappers in this package expose a Group through the
// regular provider interfaces so the rest of the relay never sees failover.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBreakerOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrBreakerOpen = errors.New("resilience: breaker open")

// BreakerState is the operating mode of a [Breaker].
type BreakerState int

const (
	// BreakerClosed forwards all calls.
	BreakerClosed BreakerState = iota

	// BreakerOpen rejects calls until the cooldown elapses.
	BreakerOpen

	// BreakerHalfOpen lets a bounded number of probe calls through to decide
	// whether the backend has recovered.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// BreakerConfig tunes a [Breaker]. Zero fields take defaults.
type BreakerConfig struct {
	// Name labels the breaker in log output.
	Name string

	// FailureLimit is how many consecutive failures open the breaker.
	// Default 5.
	FailureLimit int

	// Cooldown is how long the breaker stays open before probing.
	// Default 30s.
	Cooldown time.Duration

	// ProbeLimit is how many half-open probes must succeed before the
	// breaker closes again. Default 3.
	ProbeLimit int
}

// Breaker is a three-state circuit breaker.
type Breaker struct {
	name         string
	failureLimit int
	cooldown     time.Duration
	probeLimit   int

	mu       sync.Mutex
	state    BreakerState
	failures int
	probes   int
	openedAt time.Time
}

// NewBreaker builds a closed [Breaker] from cfg.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.ProbeLimit <= 0 {
		cfg.ProbeLimit = 3
	}
	return &Breaker{
		name:         cfg.Name,
		failureLimit: cfg.FailureLimit,
		cooldown:     cfg.Cooldown,
		probeLimit:   cfg.ProbeLimit,
	}
}

// Do runs fn unless the breaker rejects the call, and feeds the outcome back
// into the state machine. While open it returns [ErrBreakerOpen] without
// calling fn.
func (b *Breaker) Do(fn func() error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}

	err = fn()
	b.settle(probe, err == nil)
	return err
}

// admit decides whether a call may proceed, transitioning open breakers to
// half-open once the cooldown has elapsed. It reports whether the admitted
// call counts as a half-open probe.
func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if time.Since(b.openedAt) < b.cooldown {
			return false, ErrBreakerOpen
		}
		b.state = BreakerHalfOpen
		b.probes = 0
		slog.Info("breaker half-open", "name", b.name)
		return true, nil
	case BreakerHalfOpen:
		return true, nil
	}
	return false, nil
}

// settle records a call outcome.
func (b *Breaker) settle(probe, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !ok {
		b.failures++
		b.openedAt = time.Now()
		if probe || b.failures >= b.failureLimit {
			if b.state != BreakerOpen {
				slog.Warn("breaker opened", "name", b.name, "failures", b.failures)
			}
			b.state = BreakerOpen
		}
		return
	}

	if probe {
		b.probes++
		if b.probes >= b.probeLimit {
			b.state = BreakerClosed
			b.failures = 0
			slog.Info("breaker closed", "name", b.name)
		}
		return
	}
	b.failures = 0
}

// State reports the breaker's current mode. An open breaker whose cooldown
// has elapsed reports half-open; the transition itself happens on the next Do.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && time.Since(b.openedAt) >= b.cooldown {
		return BreakerHalfOpen
	}
	return b.state
}

// Reset forces the breaker back to closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failures = 0
	b.probes = 0
}
