// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify the pipeline sends correct
// CompletionRequests and to feed controlled replies without a live backend:
//
//	p := &mock.Provider{Response: &llm.CompletionResponse{Content: "Hello!"}}
//	resp, err := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/ausculto/ausculto/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Req is the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider. The zero value returns
// an empty response and no error. Set Err to inject a completion failure.
type Provider struct {
	mu sync.Mutex

	// Response is returned by Complete when Err is nil. A nil Response
	// yields an empty CompletionResponse.
	Response *llm.CompletionResponse

	// Err, if non-nil, is returned by Complete.
	Err error

	// Calls records every invocation in order.
	Calls []CompleteCall
}

var _ llm.Provider = (*Provider)(nil)

// Complete implements llm.Provider.
func (p *Provider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, CompleteCall{Req: req})
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	if p.Response == nil {
		return &llm.CompletionResponse{}, nil
	}
	resp := *p.Response
	return &resp, nil
}
