package llm

import (
	"context"
	"errors"
)

// Request is a single JSON-mode completion: a fixed system instruction plus
// a rendered user prompt. PromptID identifies the template for logging.
type Request struct {
	PromptID string
	System   string
	User     string
}

// Client abstracts LLM providers. Implementations return the raw text of
// the first choice; callers own parsing and validation.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotImplemented
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
