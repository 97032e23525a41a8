// Package llm abstracts the chat-completion endpoint used by the subjective
// essay grader. Each Provider holds one API credential; the grader walks a
// pool of them in order until one returns a usable response.
package llm

import "context"

// Request is a single-turn completion request.
type Request struct {
	// System sets the model's role and output constraints.
	System string
	// User is the user message body.
	User string
	// MaxTokens caps the response length. 0 means provider default.
	MaxTokens int
	// Temperature controls randomness. Graders use 0 for determinism.
	Temperature float32
}

// Provider sends one completion request and returns the raw response text.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)

	// Name identifies the credential for logging ("openai[2]").
	Name() string
}
