package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/ausculto/ausculto/internal/observe"
	"github.com/ausculto/ausculto/pkg/audio"
)

// State is the lifecycle phase of a Session.
type State int

const (
	// StateAccepting means the session exists but no audio has arrived yet.
	StateAccepting State = iota

	// StateReceiving means at least one audio frame has been buffered.
	StateReceiving

	// StateTurnActive means end-of-turn was signalled and the pipeline is
	// processing the captured utterance.
	StateTurnActive

	// StateTerminated means the session is finished and the channel closed.
	StateTerminated
)

// String implements fmt.Stringer for log output.
func (s State) String() string {
	switch s {
	case StateAccepting:
		return "accepting"
	case StateReceiving:
		return "receiving"
	case StateTurnActive:
		return "turn_active"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session drives one client connection through a single turn: buffer audio
// frames until end-of-turn, run the pipeline, then close the channel.
//
// End-of-turn is signalled by an empty frame or by the client closing its
// side of the connection.
type Session struct {
	id       string
	ch       *Channel
	pipeline *Pipeline
	log      *slog.Logger
	metrics  *observe.Metrics

	mu    sync.Mutex
	state State
	buf   audio.FrameBuffer

	startedAt time.Time
}

// NewSession creates a session over ch. The session starts in
// [StateAccepting] and is driven by [Session.Run].
func NewSession(ch *Channel, pipeline *Pipeline, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		ch:        ch,
		pipeline:  pipeline,
		log:       log.With("session_id", id),
		metrics:   pipeline.metrics,
		startedAt: time.Now(),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Run receives audio until end-of-turn, processes the turn, and closes the
// channel. It always leaves the session in [StateTerminated]. The returned
// error reports pipeline failures; a client disconnect is not an error.
func (s *Session) Run(ctx context.Context) error {
	defer s.terminate()

	s.log.Info("session started")

	if err := s.receive(ctx); err != nil {
		// Read errors cover both clean disconnects and network failures;
		// either way the buffered audio is all we will get.
		s.log.Debug("receive ended", "err", err)
	}

	samples := s.drain()

	// An idle connection never becomes an active turn: it goes straight
	// from its receive state to terminated.
	if len(samples) == 0 {
		s.log.Info("no audio received")
		_ = s.ch.Send(ctx, Log("No audio data received."))
		s.metrics.RecordTurn(ctx, "no_audio")
		return nil
	}

	s.setState(StateTurnActive)
	err := s.pipeline.RunTurn(ctx, s.ch, samples)
	if err != nil {
		s.log.Error("turn failed", "err", err)
	}
	return err
}

// receive buffers binary frames until an empty frame, a text frame, or a
// read error. Text frames are treated as end-of-turn markers so simple
// clients can signal completion without an empty binary frame.
func (s *Session) receive(ctx context.Context) error {
	for {
		typ, data, err := s.ch.Receive(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageBinary || len(data) == 0 {
			return nil
		}
		s.append(data)
		s.metrics.AudioBytesReceived.Add(ctx, int64(len(data)))
	}
}

// Close tears the session down immediately, interrupting any in-flight
// receive. Used during server shutdown.
func (s *Session) Close() error {
	return s.ch.Close(websocket.StatusGoingAway, "server shutting down")
}

func (s *Session) append(frame []byte) {
	s.mu.Lock()
	s.buf.Append(frame)
	s.state = StateReceiving
	s.mu.Unlock()
}

func (s *Session) drain() []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Drain()
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) terminate() {
	s.setState(StateTerminated)
	_ = s.ch.Close(websocket.StatusNormalClosure, "turn complete")
	s.log.Info("session ended", "duration", time.Since(s.startedAt))
}
