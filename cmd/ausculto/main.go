// Command ausculto runs the voice relay server.
//
// It loads the YAML configuration, registers the built-in provider
// backends, wires them into the application and serves until SIGINT or
// SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/ausculto/ausculto/internal/app"
	"github.com/ausculto/ausculto/internal/config"
	"github.com/ausculto/ausculto/internal/observe"
	"github.com/ausculto/ausculto/internal/resilience"
	"github.com/ausculto/ausculto/pkg/provider/llm"
	"github.com/ausculto/ausculto/pkg/provider/llm/anyllm"
	llmopenai "github.com/ausculto/ausculto/pkg/provider/llm/openai"
	"github.com/ausculto/ausculto/pkg/provider/stt"
	sttopenai "github.com/ausculto/ausculto/pkg/provider/stt/openai"
	"github.com/ausculto/ausculto/pkg/provider/tts"
	ttsopenai "github.com/ausculto/ausculto/pkg/provider/tts/openai"
	"github.com/ausculto/ausculto/pkg/provider/vad"
	"github.com/ausculto/ausculto/pkg/provider/vad/energy"
)

const version = "0.1.0"

// shutdownTimeout bounds the graceful teardown after a signal.
const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "configuration file %q not found; pass -config with the path to your YAML config\n", *configPath)
			return 1
		}
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		return 1
	}

	slog.SetDefault(newLogger(cfg.Server.LogLevel, cfg.Server.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "ausculto",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("init telemetry", "error", err)
		return 1
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otelShutdown(shutCtx); err != nil {
			slog.Error("telemetry shutdown", "error", err)
		}
	}()

	registry := config.NewRegistry()
	registerBuiltinProviders(registry)

	providers, err := buildProviders(registry, cfg)
	if err != nil {
		slog.Error("build providers", "error", err)
		return 1
	}

	application, err := app.New(cfg, providers)
	if err != nil {
		slog.Error("init application", "error", err)
		return 1
	}

	printStartupSummary(cfg)

	if err := application.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// newLogger builds the process-wide logger at the configured level and format.
func newLogger(level config.LogLevel, format string) *slog.Logger {
	var l slog.Level
	switch level {
	case config.LogDebug:
		l = slog.LevelDebug
	case config.LogWarn:
		l = slog.LevelWarn
	case config.LogError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: l}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// anyllmBackends are the LLM backend names served through any-llm-go. The
// "openai" name is handled separately by the native openai-go provider.
var anyllmBackends = []string{
	"anthropic", "gemini", "ollama", "deepseek",
	"mistral", "groq", "llamacpp", "llamafile",
}

// registerBuiltinProviders installs the factories for every backend that
// ships with the binary.
func registerBuiltinProviders(r *config.Registry) {
	r.RegisterVAD("energy", func(entry config.ProviderEntry) (vad.Detector, error) {
		var opts []energy.Option
		if v, ok := optFloat(entry.Options, "threshold"); ok {
			opts = append(opts, energy.WithThreshold(v))
		}
		if v, ok := optInt(entry.Options, "window_ms"); ok {
			opts = append(opts, energy.WithWindowMs(v))
		}
		if v, ok := optInt(entry.Options, "hangover_ms"); ok {
			opts = append(opts, energy.WithHangoverMs(v))
		}
		if v, ok := optInt(entry.Options, "min_speech_ms"); ok {
			opts = append(opts, energy.WithMinSpeechMs(v))
		}
		return energy.New(opts...), nil
	})

	r.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []sttopenai.Option
		if entry.Model != "" {
			opts = append(opts, sttopenai.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, sttopenai.WithBaseURL(entry.BaseURL))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, sttopenai.WithLanguage(lang))
		}
		return sttopenai.New(entry.APIKey, opts...)
	})

	r.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []llmopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, llmopenai.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, llmopenai.WithOrganization(org))
		}
		return llmopenai.New(entry.APIKey, entry.Model, opts...)
	})
	for _, name := range anyllmBackends {
		backend := name
		r.RegisterLLM(backend, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(backend, entry.Model, opts...)
		})
	}

	r.RegisterTTS("openai", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []ttsopenai.Option
		if entry.Model != "" {
			opts = append(opts, ttsopenai.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, ttsopenai.WithBaseURL(entry.BaseURL))
		}
		return ttsopenai.New(entry.APIKey, opts...)
	})
}

// buildProviders instantiates the four provider slots from configuration.
// VAD falls back to the built-in energy detector when unnamed; the remote
// providers must be configured explicitly. Entries with fallbacks are
// wrapped in a resilience failover group.
func buildProviders(r *config.Registry, cfg *config.Config) (*app.Providers, error) {
	vadEntry := cfg.Providers.VAD
	if vadEntry.Name == "" {
		vadEntry.Name = "energy"
	}
	detector, err := r.CreateVAD(vadEntry)
	if err != nil {
		return nil, fmt.Errorf("vad: %w", err)
	}
	slog.Info("provider ready", "kind", "vad", "name", vadEntry.Name)

	transcriber, err := buildSTT(r, cfg.Providers.STT)
	if err != nil {
		return nil, err
	}
	completer, err := buildLLM(r, cfg.Providers.LLM)
	if err != nil {
		return nil, err
	}
	synthesizer, err := buildTTS(r, cfg.Providers.TTS)
	if err != nil {
		return nil, err
	}

	return &app.Providers{
		VAD: detector,
		STT: transcriber,
		LLM: completer,
		TTS: synthesizer,
	}, nil
}

func buildSTT(r *config.Registry, entry config.ProviderEntry) (stt.Provider, error) {
	if entry.Name == "" {
		return nil, errors.New("providers.stt.name must be configured")
	}
	primary, err := r.CreateSTT(entry)
	if err != nil {
		return nil, fmt.Errorf("stt: %w", err)
	}
	slog.Info("provider ready", "kind", "stt", "name", entry.Name, "model", entry.Model, "fallbacks", len(entry.Fallbacks))
	if len(entry.Fallbacks) == 0 {
		return primary, nil
	}

	group := resilience.NewSTT(entry.Name, primary, resilience.BreakerConfig{})
	for _, fb := range entry.Fallbacks {
		backend, err := r.CreateSTT(fb)
		if err != nil {
			return nil, fmt.Errorf("stt fallback: %w", err)
		}
		group.Add(fb.Name, backend)
	}
	return group, nil
}

func buildLLM(r *config.Registry, entry config.ProviderEntry) (llm.Provider, error) {
	if entry.Name == "" {
		return nil, errors.New("providers.llm.name must be configured")
	}
	primary, err := r.CreateLLM(entry)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	slog.Info("provider ready", "kind", "llm", "name", entry.Name, "model", entry.Model, "fallbacks", len(entry.Fallbacks))
	if len(entry.Fallbacks) == 0 {
		return primary, nil
	}

	group := resilience.NewLLM(entry.Name, primary, resilience.BreakerConfig{})
	for _, fb := range entry.Fallbacks {
		backend, err := r.CreateLLM(fb)
		if err != nil {
			return nil, fmt.Errorf("llm fallback: %w", err)
		}
		group.Add(fb.Name, backend)
	}
	return group, nil
}

func buildTTS(r *config.Registry, entry config.ProviderEntry) (tts.Provider, error) {
	if entry.Name == "" {
		return nil, errors.New("providers.tts.name must be configured")
	}
	primary, err := r.CreateTTS(entry)
	if err != nil {
		return nil, fmt.Errorf("tts: %w", err)
	}
	slog.Info("provider ready", "kind", "tts", "name", entry.Name, "model", entry.Model, "fallbacks", len(entry.Fallbacks))
	if len(entry.Fallbacks) == 0 {
		return primary, nil
	}

	group := resilience.NewTTS(entry.Name, primary, resilience.BreakerConfig{})
	for _, fb := range entry.Fallbacks {
		backend, err := r.CreateTTS(fb)
		if err != nil {
			return nil, fmt.Errorf("tts fallback: %w", err)
		}
		group.Add(fb.Name, backend)
	}
	return group, nil
}

// printStartupSummary prints a human-readable overview of the effective
// configuration to stderr.
func printStartupSummary(cfg *config.Config) {
	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	vadName := cfg.Providers.VAD.Name
	if vadName == "" {
		vadName = "energy"
	}

	rows := [][2]string{
		{"listen", addr},
		{"vad", vadName},
		{"stt", providerLabel(cfg.Providers.STT)},
		{"llm", providerLabel(cfg.Providers.LLM)},
		{"tts", providerLabel(cfg.Providers.TTS)},
		{"vocabulary", fmt.Sprintf("%d terms", len(cfg.Vocabulary))},
	}
	if cfg.Staging.Dir != "" {
		rows = append(rows, [2]string{"staging", cfg.Staging.Dir})
	}

	width := 0
	for _, row := range rows {
		if n := len(row[0]) + len(row[1]); n > width {
			width = n
		}
	}

	var b strings.Builder
	title := fmt.Sprintf(" ausculto %s ", version)
	fmt.Fprintf(&b, "┌%s┐\n", padDashes(title, width+5))
	for _, row := range rows {
		fmt.Fprintf(&b, "│ %s:%s%s │\n", row[0], strings.Repeat(" ", width-len(row[0])-len(row[1])+2), row[1])
	}
	fmt.Fprintf(&b, "└%s┘", strings.Repeat("─", width+5))
	fmt.Fprintln(os.Stderr, b.String())
}

// providerLabel renders "name (model)" or just "name" for the summary table.
func providerLabel(entry config.ProviderEntry) string {
	if entry.Model != "" {
		return fmt.Sprintf("%s (%s)", entry.Name, entry.Model)
	}
	return entry.Name
}

// padDashes centers s inside a run of box-drawing dashes of total width n.
func padDashes(s string, n int) string {
	rem := n - len(s)
	if rem < 0 {
		rem = 0
	}
	left := rem / 2
	return strings.Repeat("─", left) + s + strings.Repeat("─", rem-left)
}

// optString reads a string option from a provider's options map.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	if v, ok := opts[key].(string); ok {
		return v
	}
	return ""
}

// optFloat reads a float option, accepting ints too since YAML decodes
// whole numbers as int.
func optFloat(opts map[string]any, key string) (float64, bool) {
	if opts == nil {
		return 0, false
	}
	switch v := opts[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// optInt reads an integer option from a provider's options map.
func optInt(opts map[string]any, key string) (int, bool) {
	if opts == nil {
		return 0, false
	}
	if v, ok := opts[key].(int); ok {
		return v, true
	}
	return 0, false
}
