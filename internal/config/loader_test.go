package config_test

import (
	"strings"
	"testing"

	"github.com/ausculto/ausculto/internal/config"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: info
  origin_patterns: ["app.example.com"]
providers:
  vad:
    name: energy
  stt:
    name: openai
    api_key: sk-test
    model: whisper-1
  llm:
    name: openai
    api_key: sk-test
    model: gpt-4o
  tts:
    name: openai
    api_key: sk-test
pipeline:
  system_prompt: "You are a concise assistant."
  voice: alloy
  audio_format: mp3
  sample_rate: 16000
  chunk_bytes: 4096
staging:
  dir: temp_audio
vocabulary:
  - ibuprofen
  - beta blocker
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level = %q", cfg.Server.LogLevel)
	}
	if cfg.Providers.STT.Model != "whisper-1" {
		t.Errorf("stt model = %q", cfg.Providers.STT.Model)
	}
	if cfg.Pipeline.Voice != "alloy" {
		t.Errorf("voice = %q", cfg.Pipeline.Voice)
	}
	if len(cfg.Vocabulary) != 2 || cfg.Vocabulary[1] != "beta blocker" {
		t.Errorf("vocabulary = %v", cfg.Vocabulary)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	yaml := `
server:
  listen_addr: ":8080"
  unknown_knob: true
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.LogLevel = "verbose"
	if err := config.Validate(cfg); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestValidate_TLSRequiresBothFiles(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.TLS = &config.TLSConfig{CertFile: "cert.pem"}
	if err := config.Validate(cfg); err == nil {
		t.Error("expected error for TLS config missing key_file")
	}
}

func TestValidate_TemperatureRange(t *testing.T) {
	cfg := &config.Config{}
	cfg.Pipeline.Temperature = 3.5
	if err := config.Validate(cfg); err == nil {
		t.Error("expected error for out-of-range temperature")
	}
}

func TestValidate_EmptyVocabularyTerm(t *testing.T) {
	cfg := &config.Config{Vocabulary: []string{"ibuprofen", "  "}}
	if err := config.Validate(cfg); err == nil {
		t.Error("expected error for blank vocabulary term")
	}
}

func TestLoadFromReader_ResolvesAPIKeyFromEnv(t *testing.T) {
	t.Setenv("AUSCULTO_TEST_KEY", "sk-from-env")

	yaml := `
providers:
  llm:
    name: openai
    model: gpt-4o
    api_key_env: AUSCULTO_TEST_KEY
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Providers.LLM.APIKey != "sk-from-env" {
		t.Errorf("api_key = %q, want value from env", cfg.Providers.LLM.APIKey)
	}
}

func TestLoadFromReader_ExplicitKeyWinsOverEnv(t *testing.T) {
	t.Setenv("AUSCULTO_TEST_KEY", "sk-from-env")

	yaml := `
providers:
  llm:
    name: openai
    api_key: sk-explicit
    api_key_env: AUSCULTO_TEST_KEY
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Providers.LLM.APIKey != "sk-explicit" {
		t.Errorf("api_key = %q, want explicit value", cfg.Providers.LLM.APIKey)
	}
}

func TestValidate_FallbackRules(t *testing.T) {
	cfg := &config.Config{}
	cfg.Providers.LLM = config.ProviderEntry{
		Name: "openai",
		Fallbacks: []config.ProviderEntry{
			{Name: ""},
			{Name: "ollama", Fallbacks: []config.ProviderEntry{{Name: "groq"}}},
		},
	}
	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "has no name") || !strings.Contains(msg, "nest") {
		t.Errorf("joined error missing failures: %v", msg)
	}
}

func TestValidate_JoinsMultipleErrors(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.LogLevel = "loud"
	cfg.Pipeline.MaxTokens = -1
	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "log_level") || !strings.Contains(msg, "max_tokens") {
		t.Errorf("joined error missing failures: %v", msg)
	}
}
