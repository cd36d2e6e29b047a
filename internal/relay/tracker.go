package relay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ausculto/ausculto/internal/observe"
)

// Tracker keeps the set of live sessions so the server can report them and
// close them all during shutdown. All methods are safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*Session
	metrics  *observe.Metrics
}

// NewTracker creates an empty Tracker. When metrics is nil,
// [observe.DefaultMetrics] is used.
func NewTracker(metrics *observe.Metrics) *Tracker {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Tracker{
		sessions: make(map[string]*Session),
		metrics:  metrics,
	}
}

// Add registers a session and bumps the active-sessions gauge.
func (t *Tracker) Add(ctx context.Context, s *Session) {
	t.mu.Lock()
	t.sessions[s.ID()] = s
	t.mu.Unlock()
	t.metrics.ActiveSessions.Add(ctx, 1)
}

// Remove unregisters a session. Removing an unknown session is a no-op.
func (t *Tracker) Remove(ctx context.Context, s *Session) {
	t.mu.Lock()
	_, ok := t.sessions[s.ID()]
	delete(t.sessions, s.ID())
	t.mu.Unlock()
	if ok {
		t.metrics.ActiveSessions.Add(ctx, -1)
	}
}

// Count returns the number of live sessions.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// CloseAll closes every live session's channel. Sessions remove themselves
// from the tracker as their Run loops unwind.
func (t *Tracker) CloseAll() {
	t.mu.Lock()
	sessions := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.mu.Unlock()

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			slog.Warn("session close failed", "session_id", s.ID(), "err", err)
		}
	}
}
