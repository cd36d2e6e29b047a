package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"vad": {"energy"},
	"stt": {"openai"},
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"tts": {"openai"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	resolveSecrets(cfg)
	return cfg, nil
}

// resolveSecrets fills in provider API keys from the environment where
// api_key_env is set and api_key is not.
func resolveSecrets(cfg *Config) {
	for _, entry := range []*ProviderEntry{
		&cfg.Providers.VAD, &cfg.Providers.STT, &cfg.Providers.LLM, &cfg.Providers.TTS,
	} {
		resolveEntrySecret(entry)
		for i := range entry.Fallbacks {
			resolveEntrySecret(&entry.Fallbacks[i])
		}
	}
}

func resolveEntrySecret(entry *ProviderEntry) {
	if entry.APIKey != "" || entry.APIKeyEnv == "" {
		return
	}
	if v := os.Getenv(entry.APIKeyEnv); v != "" {
		entry.APIKey = v
	} else {
		slog.Warn("api_key_env variable is not set", "env", entry.APIKeyEnv)
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	switch cfg.Server.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("server.log_format %q is invalid; valid values: text, json", cfg.Server.LogFormat))
	}
	if cfg.Server.MaxFrameBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_frame_bytes %d must not be negative", cfg.Server.MaxFrameBytes))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Providers. Unknown names only warn, so third-party registrations
	// still pass validation.
	for kind, entry := range map[string]ProviderEntry{
		"vad": cfg.Providers.VAD,
		"stt": cfg.Providers.STT,
		"llm": cfg.Providers.LLM,
		"tts": cfg.Providers.TTS,
	} {
		validateProviderName(kind, entry.Name)
		for i, fb := range entry.Fallbacks {
			validateProviderName(kind, fb.Name)
			if fb.Name == "" {
				errs = append(errs, fmt.Errorf("providers.%s.fallbacks[%d] has no name", kind, i))
			}
			if len(fb.Fallbacks) > 0 {
				errs = append(errs, fmt.Errorf("providers.%s.fallbacks[%d] must not nest further fallbacks", kind, i))
			}
		}
	}

	// Pipeline
	if cfg.Pipeline.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("pipeline.sample_rate %d must not be negative", cfg.Pipeline.SampleRate))
	}
	if cfg.Pipeline.ChunkBytes < 0 {
		errs = append(errs, fmt.Errorf("pipeline.chunk_bytes %d must not be negative", cfg.Pipeline.ChunkBytes))
	}
	if cfg.Pipeline.Temperature < 0 || cfg.Pipeline.Temperature > 2 {
		errs = append(errs, fmt.Errorf("pipeline.temperature %.2f is out of range [0.0, 2.0]", cfg.Pipeline.Temperature))
	}
	if cfg.Pipeline.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_tokens %d must not be negative", cfg.Pipeline.MaxTokens))
	}

	// Vocabulary
	for i, term := range cfg.Vocabulary {
		if strings.TrimSpace(term) == "" {
			errs = append(errs, fmt.Errorf("vocabulary[%d] is empty", i))
		}
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name; may be a typo or a third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
