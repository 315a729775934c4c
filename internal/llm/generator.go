// Package llm wraps generative oracle endpoints behind a single
// Generator interface. Clients do not retry; failures surface as
// domain.ErrGenerationUnavailable and retry policy stays with the
// caller.
package llm

import "context"

// Options holds generation parameters forwarded to the oracle.
type Options struct {
	// MaxTokens bounds the generated output length.
	MaxTokens int

	// Temperature controls sampling randomness; 0 is deterministic.
	Temperature float64

	// ContextWindow is the model context size in tokens, where the
	// backend supports setting it.
	ContextWindow int

	// RepeatPenalty discourages token repetition, where supported.
	RepeatPenalty float64
}

// Generator produces text from a single prompt string.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	ModelName() string
}
