// Package mock provides a test double for the tts.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/ausculto/ausculto/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Text is the input passed to Synthesize.
	Text string

	// Voice is the voice profile passed to Synthesize.
	Voice tts.VoiceProfile
}

// Provider is a mock implementation of tts.Provider. The zero value returns
// nil audio and no error. Set Err to inject a synthesis failure.
type Provider struct {
	mu sync.Mutex

	// Audio is returned by Synthesize when Err is nil.
	Audio []byte

	// Err, if non-nil, is returned by Synthesize.
	Err error

	// Calls records every invocation in order.
	Calls []SynthesizeCall
}

var _ tts.Provider = (*Provider)(nil)

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(_ context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, SynthesizeCall{Text: text, Voice: voice})
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	return p.Audio, nil
}
