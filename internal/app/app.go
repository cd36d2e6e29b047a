// Package app wires all Ausculto subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ausculto/ausculto/internal/config"
	"github.com/ausculto/ausculto/internal/health"
	"github.com/ausculto/ausculto/internal/observe"
	"github.com/ausculto/ausculto/internal/relay"
	"github.com/ausculto/ausculto/internal/staging"
	"github.com/ausculto/ausculto/internal/transcript"
	"github.com/ausculto/ausculto/pkg/provider/llm"
	"github.com/ausculto/ausculto/pkg/provider/stt"
	"github.com/ausculto/ausculto/pkg/provider/tts"
	"github.com/ausculto/ausculto/pkg/provider/vad"
)

const (
	// defaultListenAddr is used when server.listen_addr is not configured.
	defaultListenAddr = ":8080"

	// defaultStagingDir is used when staging.dir is not configured.
	defaultStagingDir = "temp_audio"

	// shutdownGrace bounds the HTTP server drain during Run teardown.
	shutdownGrace = 10 * time.Second
)

// Providers holds one interface value per provider slot. All four are
// required. Populated by main.go via the config registry.
type Providers struct {
	VAD vad.Detector
	STT stt.Provider
	LLM llm.Provider
	TTS tts.Provider
}

// App owns all subsystem lifetimes and serves the Ausculto voice relay.
type App struct {
	cfg *config.Config

	store     *staging.Store
	corrector *transcript.Corrector
	pipeline  *relay.Pipeline
	tracker   *relay.Tracker
	metrics   *observe.Metrics
	srv       *http.Server

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithMetrics injects a Metrics instance instead of using the package
// default. Useful in tests to avoid cross-test pollution.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithStagingStore injects a staging store instead of creating one from
// config.
func WithStagingStore(s *staging.Store) Option {
	return func(a *App) { a.store = s }
}

// New creates an App by wiring all subsystems together. The providers
// struct comes from main.go (populated via the config registry).
func New(cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Staging store ─────────────────────────────────────────────────
	if a.store == nil {
		dir := cfg.Staging.Dir
		if dir == "" {
			dir = defaultStagingDir
		}
		store, err := staging.New(dir, staging.WithKeepArtifacts(cfg.Staging.KeepArtifacts))
		if err != nil {
			return nil, fmt.Errorf("app: init staging: %w", err)
		}
		a.store = store
	}

	// ── 2. Vocabulary corrector ──────────────────────────────────────────
	if len(cfg.Vocabulary) > 0 {
		a.corrector = transcript.New(cfg.Vocabulary)
		slog.Info("vocabulary corrector enabled", "terms", len(cfg.Vocabulary))
	}

	// ── 3. Turn pipeline ─────────────────────────────────────────────────
	pipeline, err := relay.NewPipeline(relay.PipelineConfig{
		Detector:     providers.VAD,
		STT:          providers.STT,
		LLM:          providers.LLM,
		TTS:          providers.TTS,
		Staging:      a.store,
		Corrector:    a.corrector,
		SystemPrompt: cfg.Pipeline.SystemPrompt,
		Voice: tts.VoiceProfile{
			Voice:  cfg.Pipeline.Voice,
			Format: cfg.Pipeline.AudioFormat,
		},
		SampleRate:  cfg.Pipeline.SampleRate,
		ChunkBytes:  cfg.Pipeline.ChunkBytes,
		Temperature: cfg.Pipeline.Temperature,
		MaxTokens:   cfg.Pipeline.MaxTokens,
		Metrics:     a.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("app: init pipeline: %w", err)
	}
	a.pipeline = pipeline

	// ── 4. Session tracker + websocket handler ───────────────────────────
	a.tracker = relay.NewTracker(a.metrics)
	wsHandler := relay.NewHandler(relay.HandlerConfig{
		Pipeline:       a.pipeline,
		Tracker:        a.tracker,
		OriginPatterns: cfg.Server.OriginPatterns,
		MaxFrameBytes:  cfg.Server.MaxFrameBytes,
	})

	// ── 5. HTTP routes ───────────────────────────────────────────────────
	healthHandler := health.New(health.Staging(a.store))

	// The observability middleware wraps the response writer, which breaks
	// the connection hijack the websocket upgrade needs. The /ws route is
	// therefore mounted outside the middleware chain.
	observed := http.NewServeMux()
	healthHandler.Register(observed)
	observed.Handle("GET /metrics", promhttp.Handler())

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.Handle("/", observe.Middleware(a.metrics)(observed))

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = defaultListenAddr
	}
	a.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Handler returns the root HTTP handler. Exposed for tests that serve the
// app through httptest.
func (a *App) Handler() http.Handler {
	return a.srv.Handler
}

// Tracker returns the live-session tracker.
func (a *App) Tracker() *relay.Tracker {
	return a.tracker
}

// Run serves HTTP (or HTTPS when TLS is configured) until ctx is cancelled,
// then drains in-flight requests and closes live sessions.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			slog.Info("listening", "addr", a.srv.Addr, "tls", true)
			err = a.srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			slog.Info("listening", "addr", a.srv.Addr, "tls", false)
			err = a.srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()

		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		a.tracker.CloseAll()
		return a.srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// Shutdown tears down the server immediately. Run performs the same
// teardown on context cancellation; Shutdown exists for callers that manage
// the server lifecycle directly.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.stopOnce.Do(func() {
		a.tracker.CloseAll()
		err = a.srv.Shutdown(ctx)
	})
	return err
}
