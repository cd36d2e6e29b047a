// Package openai provides a TTS provider backed by the OpenAI speech API.
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

	"github.com/ausculto/ausculto/pkg/provider/tts"
)

const (
	defaultModel  = "tts-1"
	defaultVoice  = "alloy"
	defaultFormat = "mp3"
)

// Provider implements tts.Provider using the OpenAI audio speech API.
type Provider struct {
	client oai.Client
	model  string
}

var _ tts.Provider = (*Provider)(nil)

// config holds optional configuration for the provider.
type config struct {
	model   string
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithModel overrides the default speech model ("tts-1").
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a new OpenAI TTS Provider.
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

	return &Provider{client: oai.NewClient(reqOpts...), model: cfg.model}, nil
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("openai: text must not be empty")
	}

	v := voice.Voice
	if v == "" {
		v = defaultVoice
	}
	format := voice.Format
	if format == "" {
		format = defaultFormat
	}

	params := oai.AudioSpeechNewParams{
		Model:          oai.SpeechModel(p.model),
		Input:          text,
		Voice:          oai.AudioSpeechNewParamsVoice(v),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormat(format),
	}
	if voice.Speed > 0 {
		params.Speed = param.NewOpt(voice.Speed)
	}

	resp, err := p.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: speech synthesis: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read speech response: %w", err)
	}
	return data, nil
}
