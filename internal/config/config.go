// Package config provides the configuration schema, loader, and provider
// registry for the Ausculto voice relay.
package config

// LogLevel controls log verbosity for the Ausculto server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Ausculto.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Providers  ProvidersConfig `yaml:"providers"`
	Pipeline   PipelineConfig  `yaml:"pipeline"`
	Staging    StagingConfig   `yaml:"staging"`
	Vocabulary []string        `yaml:"vocabulary"`
}

// ServerConfig holds network and logging settings for the Ausculto server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// LogFormat selects the slog handler: "text" (default) or "json".
	LogFormat string `yaml:"log_format"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`

	// OriginPatterns lists host patterns allowed to open websocket
	// connections from browsers. Empty means same-origin only.
	OriginPatterns []string `yaml:"origin_patterns"`

	// MaxFrameBytes caps a single inbound websocket frame. Zero uses the
	// built-in default of 1 MiB.
	MaxFrameBytes int64 `yaml:"max_frame_bytes"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	VAD ProviderEntry `yaml:"vad"`
	STT ProviderEntry `yaml:"stt"`
	LLM ProviderEntry `yaml:"llm"`
	TTS ProviderEntry `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "energy").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// APIKeyEnv names an environment variable to read the API key from when
	// APIKey is empty. Keeps secrets out of config files.
	APIKeyEnv string `yaml:"api_key_env"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o", "whisper-1").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`

	// Fallbacks lists additional backends of the same kind, tried in order
	// when the primary fails or its circuit breaker is open. Fallback
	// entries may not declare fallbacks of their own.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// PipelineConfig tunes the per-turn processing pipeline.
type PipelineConfig struct {
	// SystemPrompt overrides the default reply-model instruction.
	SystemPrompt string `yaml:"system_prompt"`

	// Voice is the TTS voice name (e.g., "alloy").
	Voice string `yaml:"voice"`

	// AudioFormat is the synthesized output encoding (e.g., "mp3", "opus").
	AudioFormat string `yaml:"audio_format"`

	// SampleRate of the incoming PCM in Hz. Zero uses the default of 16000.
	SampleRate int `yaml:"sample_rate"`

	// ChunkBytes is the binary frame size for outgoing audio. Zero uses the
	// default of 4096.
	ChunkBytes int `yaml:"chunk_bytes"`

	// Temperature controls reply randomness in [0.0, 2.0]. Zero uses the
	// provider default.
	Temperature float64 `yaml:"temperature"`

	// MaxTokens caps reply length in tokens. Zero uses the provider default.
	MaxTokens int `yaml:"max_tokens"`
}

// StagingConfig configures the on-disk working directory for turn audio.
type StagingConfig struct {
	// Dir is the staging directory path. Empty uses "temp_audio".
	Dir string `yaml:"dir"`

	// KeepArtifacts disables cleanup of staged WAV files after each turn.
	KeepArtifacts bool `yaml:"keep_artifacts"`
}
