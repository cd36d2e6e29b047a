package relay

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
)

// defaultMaxFrameBytes caps a single inbound frame at 1 MiB, roughly 32
// seconds of 16 kHz mono PCM.
const defaultMaxFrameBytes = 1 << 20

// HandlerConfig configures the websocket [Handler].
type HandlerConfig struct {
	// Pipeline processes each captured turn. Required.
	Pipeline *Pipeline

	// Tracker registers live sessions. Required.
	Tracker *Tracker

	// OriginPatterns is passed to [websocket.AcceptOptions]. Empty means
	// same-origin only.
	OriginPatterns []string

	// MaxFrameBytes caps the size of a single inbound frame. Default: 1 MiB.
	MaxFrameBytes int64
}

// Handler upgrades HTTP requests to websocket sessions and runs them to
// completion.
type Handler struct {
	pipeline       *Pipeline
	tracker        *Tracker
	originPatterns []string
	maxFrameBytes  int64
}

var _ http.Handler = (*Handler)(nil)

// NewHandler constructs a Handler from cfg.
func NewHandler(cfg HandlerConfig) *Handler {
	maxFrame := cfg.MaxFrameBytes
	if maxFrame <= 0 {
		maxFrame = defaultMaxFrameBytes
	}
	return &Handler{
		pipeline:       cfg.Pipeline,
		tracker:        cfg.Tracker,
		originPatterns: cfg.OriginPatterns,
		maxFrameBytes:  maxFrame,
	}
}

// ServeHTTP implements http.Handler. The request blocks until the session
// completes its turn or the client disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	conn.SetReadLimit(h.maxFrameBytes)

	ctx := r.Context()
	sess := NewSession(NewChannel(conn), h.pipeline, slog.Default())

	h.tracker.Add(ctx, sess)
	defer h.tracker.Remove(ctx, sess)

	_ = sess.Run(ctx)
}
