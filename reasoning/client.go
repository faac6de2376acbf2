// Package reasoning provides the client boundary to the external
// reasoning service used by transformation nodes. The service is
// modeled as a single completion operation; everything else (retry,
// usage accounting) is layered on top.
package reasoning

import "context"

// Request is one completion request.
type Request struct {
	// Prompt is the full prompt text.
	Prompt string `json:"prompt"`
	// MaxTokens bounds the generated completion length.
	MaxTokens int `json:"max_tokens,omitempty"`
	// Temperature controls sampling randomness.
	Temperature float64 `json:"temperature,omitempty"`
}

// Response is a completed reasoning call with its usage accounting.
type Response struct {
	// Text is the generated completion.
	Text string `json:"text"`
	// Tokens is the total token count billed for the call.
	Tokens int `json:"tokens"`
	// Cost is the call cost in account units.
	Cost float64 `json:"cost"`
}

// Client completes prompts against a reasoning service.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Func adapts a function into a Client. Useful for tests and stubs.
type Func func(ctx context.Context, req Request) (*Response, error)

func (f Func) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
