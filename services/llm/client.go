package llm

import (
	"context"
	"errors"
)

// ErrOverloaded marks a completion backend that answered with an overload
// status. The transport layer maps it to 503 so callers can back off
// instead of treating it as a hard failure.
var ErrOverloaded = errors.New("completion service is overloaded")

// CompletionClient defines the standard interface for any completion backend.
// The answer pipeline needs exactly one operation: a single-shot text
// completion with a hard cap on generated tokens. Chat-style APIs are
// adapted behind this.
type CompletionClient interface {
	// Complete returns the raw completion text for prompt, generating at
	// most maxTokens tokens. Implementations wrap overload responses in
	// ErrOverloaded.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)

	// Name identifies the backend in logs and metrics.
	Name() string
}
