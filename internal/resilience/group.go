package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllBackendsFailed is returned when every backend in a [Group] failed or
// had an open breaker.
var ErrAllBackendsFailed = errors.New("resilience: all backends failed")

// member pairs a backend with its dedicated breaker.
type member[T any] struct {
	name    string
	backend T
	breaker *Breaker
}

// Group holds an ordered list of interchangeable backends, each guarded by
// its own [Breaker]. Calls go to the first backend whose breaker admits them;
// on failure the next backend is tried.
type Group[T any] struct {
	members []member[T]
	breaker BreakerConfig
}

// NewGroup creates a [Group] with primary as the preferred backend. breaker
// is the template config applied to every member's breaker.
func NewGroup[T any](name string, primary T, breaker BreakerConfig) *Group[T] {
	g := &Group[T]{breaker: breaker}
	g.Add(name, primary)
	return g
}

// Add appends a fallback backend. Backends are tried in insertion order.
func (g *Group[T]) Add(name string, backend T) {
	cfg := g.breaker
	cfg.Name = name
	g.members = append(g.members, member[T]{
		name:    name,
		backend: backend,
		breaker: NewBreaker(cfg),
	})
}

// Len reports the number of backends in the group.
func (g *Group[T]) Len() int { return len(g.members) }

// do tries fn against each backend in order until one succeeds. Backends
// with open breakers are skipped. A generic function rather than a method
// because methods cannot introduce the result type parameter R.
func do[T, R any](g *Group[T], fn func(T) (R, error)) (R, error) {
	var lastErr error
	for i := range g.members {
		m := &g.members[i]
		var result R
		err := m.breaker.Do(func() error {
			var callErr error
			result, callErr = fn(m.backend)
			return callErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if errors.Is(err, ErrBreakerOpen) {
			slog.Debug("skipping backend, breaker open", "backend", m.name)
		} else {
			slog.Warn("backend failed, trying next", "backend", m.name, "error", err)
		}
	}
	var zero R
	return zero, fmt.Errorf("%w: %v", ErrAllBackendsFailed, lastErr)
}
