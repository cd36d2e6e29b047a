// Package mock provides a test double for the stt.Provider interface.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/ausculto/ausculto/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Audio is the full content read from the audio reader.
	Audio []byte
}

// Provider is a mock implementation of stt.Provider. The zero value returns
// an empty transcript and no error. Set Err to inject a transcription failure.
type Provider struct {
	mu sync.Mutex

	// Text is returned by Transcribe when Err is nil.
	Text string

	// Err, if non-nil, is returned by Transcribe.
	Err error

	// Calls records every invocation in order.
	Calls []TranscribeCall
}

var _ stt.Provider = (*Provider)(nil)

// Transcribe implements stt.Provider. The audio reader is always drained so
// callers that stream from a file behave the same as in production.
func (p *Provider) Transcribe(_ context.Context, audio io.Reader) (string, error) {
	data, _ := io.ReadAll(audio)

	p.mu.Lock()
	p.Calls = append(p.Calls, TranscribeCall{Audio: data})
	p.mu.Unlock()

	if p.Err != nil {
		return "", p.Err
	}
	return p.Text, nil
}
