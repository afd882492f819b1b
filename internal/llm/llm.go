// Package llm abstracts the language-model provider used to turn guest
// reviews into structured analysis reports.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// CompletionRequest is a single structured-output completion.
type CompletionRequest struct {
	System     string
	User       string
	SchemaName string
	Schema     json.RawMessage
	MaxTokens  int
}

// Client abstracts LLM providers for review analysis.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (json.RawMessage, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, req CompletionRequest) (json.RawMessage, error) {
	_ = ctx
	_ = req
	return nil, ErrNotImplemented
}
