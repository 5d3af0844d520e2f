package provider

import (
	"context"
)

// ProviderID identifies a configured LLM backend (e.g., "zhipu", "gemini", "claude").
type ProviderID string

// Provider wraps a single hosted LLM chat-completion endpoint.
type Provider interface {
	// ID returns the unique identifier for this provider.
	ID() ProviderID

	// Generate sends the prompt and returns the generated text.
	// Errors are classified: *TransientError for throttling/5xx conditions
	// that are worth retrying, *FatalError for auth/config/malformed-request
	// failures that are not.
	Generate(ctx context.Context, prompt string) (string, error)
}
