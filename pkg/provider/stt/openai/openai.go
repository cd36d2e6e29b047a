// Package openai provides an STT provider backed by the OpenAI transcription
// API (Whisper).
package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/ausculto/ausculto/pkg/provider/stt"
)

// defaultModel is the transcription model used when none is configured.
const defaultModel = "whisper-1"

// Provider implements stt.Provider using the OpenAI audio transcription API.
type Provider struct {
	client   oai.Client
	model    string
	language string
}

var _ stt.Provider = (*Provider)(nil)

// config holds optional configuration for the provider.
type config struct {
	model    string
	language string
	baseURL  string
	timeout  time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithModel sets the transcription model (e.g., "whisper-1"). Default "whisper-1".
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithLanguage sets an ISO-639-1 language hint (e.g., "en"). Empty lets the
// model auto-detect.
func WithLanguage(lang string) Option {
	return func(c *config) { c.language = lang }
}

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a new OpenAI STT Provider.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	cfg := &config{model: defaultModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{
		client:   oai.NewClient(reqOpts...),
		model:    cfg.model,
		language: cfg.language,
	}, nil
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	params := oai.AudioTranscriptionNewParams{
		File:  oai.File(audio, "speech.wav", "audio/wav"),
		Model: oai.AudioModel(p.model),
	}
	if p.language != "" {
		params.Language = param.NewOpt(p.language)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: transcription: %w", err)
	}
	return resp.Text, nil
}
