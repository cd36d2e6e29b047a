// Package llm defines the Provider interface for large language model
// backends.
//
// An LLM provider wraps a remote or local model API (e.g., OpenAI GPT-4o, or
// anything reachable through any-llm) and exposes a uniform completion call
// for the reply-generation stage of the relay pipeline.
//
// Implementations must be safe for concurrent use; one Provider instance is
// shared by all sessions.
package llm

import "context"

// Message is a single entry of conversation history.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// Usage holds token accounting information returned by the LLM backend.
// All counts are in the model's native token unit and may differ between
// providers for the same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// SystemPrompt is a high-priority instruction injected before the
	// conversation history. Providers that lack a dedicated system slot
	// should prepend it as a "system"-role message.
	SystemPrompt string

	// Messages is the ordered conversation history. The last message is
	// typically from the "user" role and drives the response.
	Messages []Message

	// Temperature controls output randomness in [0.0, 2.0]. Zero means use
	// the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens. Zero means use the
	// provider default.
	MaxTokens int
}

// CompletionResponse is the result of a completion call.
type CompletionResponse struct {
	// Content is the generated reply text.
	Content string

	// Usage reports token accounting when the backend provides it.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete performs a single blocking completion and returns the full
	// response. Returns an error if the backend cannot be reached, rejects
	// the request, or produces no choices.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
