// Package tts defines the Provider interface for text-to-speech backends.
//
// A TTS provider converts reply text into encoded audio bytes for the
// synthesis stage of the relay pipeline. Providers return the complete
// encoded payload; chunked delivery to the client is the relay's concern.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// VoiceProfile selects the voice and output encoding for synthesis.
// Zero-valued fields fall back to the provider's defaults.
type VoiceProfile struct {
	// Voice is the provider-specific voice name (e.g., "alloy").
	Voice string

	// Format is the output audio encoding (e.g., "mp3", "opus", "wav").
	Format string

	// Speed is the playback speed multiplier. Zero means provider default.
	Speed float64
}

// Provider is the abstraction over any text-to-speech backend.
type Provider interface {
	// Synthesize converts text into encoded audio in the requested voice
	// and format. Returns an error when text is empty, the backend is
	// unreachable, or the request is rejected.
	Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error)
}
