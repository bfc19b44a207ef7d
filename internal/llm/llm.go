package llm

import "context"

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	// Complete sends a single user prompt under the given system instruction.
	Complete(ctx context.Context, system, prompt string) (string, error)
}
