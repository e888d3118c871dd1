// Package llm provides text generators used by the engine: an
// OpenAI-compatible chat completions client and a scripted generator.
package llm

import "context"

// Generator turns a single prompt into a single free-text response.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
