package resilience

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ausculto/ausculto/pkg/provider/llm"
	"github.com/ausculto/ausculto/pkg/provider/stt"
	"github.com/ausculto/ausculto/pkg/provider/tts"
)

// STT implements stt.Provider with failover across multiple backends.
type STT struct {
	group *Group[stt.Provider]
}

var _ stt.Provider = (*STT)(nil)

// NewSTT wraps primary in a failover group.
func NewSTT(name string, primary stt.Provider, breaker BreakerConfig) *STT {
	return &STT{group: NewGroup(name, primary, breaker)}
}

// Add registers an additional STT backend, tried after earlier ones.
func (s *STT) Add(name string, backend stt.Provider) {
	s.group.Add(name, backend)
}

// Transcribe buffers the utterance once so every backend gets a fresh
// reader, then tries the backends in order.
func (s *STT) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	wav, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("resilience: read audio: %w", err)
	}
	return do(s.group, func(p stt.Provider) (string, error) {
		return p.Transcribe(ctx, bytes.NewReader(wav))
	})
}

// LLM implements llm.Provider with failover across multiple backends.
type LLM struct {
	group *Group[llm.Provider]
}

var _ llm.Provider = (*LLM)(nil)

// NewLLM wraps primary in a failover group.
func NewLLM(name string, primary llm.Provider, breaker BreakerConfig) *LLM {
	return &LLM{group: NewGroup(name, primary, breaker)}
}

// Add registers an additional LLM backend, tried after earlier ones.
func (l *LLM) Add(name string, backend llm.Provider) {
	l.group.Add(name, backend)
}

// Complete sends the request to the first healthy backend.
func (l *LLM) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return do(l.group, func(p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
}

// TTS implements tts.Provider with failover across multiple backends.
type TTS struct {
	group *Group[tts.Provider]
}

var _ tts.Provider = (*TTS)(nil)

// NewTTS wraps primary in a failover group.
func NewTTS(name string, primary tts.Provider, breaker BreakerConfig) *TTS {
	return &TTS{group: NewGroup(name, primary, breaker)}
}

// Add registers an additional TTS backend, tried after earlier ones.
func (t *TTS) Add(name string, backend tts.Provider) {
	t.group.Add(name, backend)
}

// Synthesize renders text with the first healthy backend.
func (t *TTS) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	return do(t.group, func(p tts.Provider) ([]byte, error) {
		return p.Synthesize(ctx, text, voice)
	})
}
