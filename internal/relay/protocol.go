// Package relay implements the voice relay: a bidirectional audio channel,
// the per-connection session state machine, and the turn pipeline that runs
// voice activity detection, transcription, reply generation, and speech
// synthesis.
//
// Clients connect over a websocket, stream raw 16 kHz mono 16-bit PCM as
// binary frames, and signal end-of-turn with an empty frame or by closing
// their send side. The relay answers with typed JSON text messages and the
// synthesized reply audio in fixed-size binary chunks.
package relay

import "fmt"

// MessageType discriminates the JSON text messages sent to clients.
type MessageType string

const (
	// TypeLog carries informational progress text.
	TypeLog MessageType = "log"

	// TypeTranscript carries the recognized user utterance.
	TypeTranscript MessageType = "transcript"

	// TypeResponseText carries the generated reply text.
	TypeResponseText MessageType = "response_text"

	// TypeTTSEnd marks the end of the synthesized audio stream.
	TypeTTSEnd MessageType = "tts_end"

	// TypeError carries a human-readable failure description.
	TypeError MessageType = "error"
)

// Message is the JSON envelope for all text frames sent to clients.
type Message struct {
	Type MessageType `json:"type"`
	Text string      `json:"text,omitempty"`
}

// Log builds an informational message.
func Log(text string) Message {
	return Message{Type: TypeLog, Text: text}
}

// Transcript builds a transcript message.
func Transcript(text string) Message {
	return Message{Type: TypeTranscript, Text: text}
}

// ResponseText builds a reply-text message.
func ResponseText(text string) Message {
	return Message{Type: TypeResponseText, Text: text}
}

// TTSEnd builds the end-of-audio marker.
func TTSEnd() Message {
	return Message{Type: TypeTTSEnd}
}

// Errorf builds an error message with a formatted description.
func Errorf(format string, args ...any) Message {
	return Message{Type: TypeError, Text: fmt.Sprintf(format, args...)}
}
