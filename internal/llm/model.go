// Package llm turns formatted document text into field values through a language model.
package llm

import "context"

// GenerationConfig is the sampling setup sent with every request.
type GenerationConfig struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
	JSONResponse    bool
}

// DefaultGeneration is deterministic decoding with a JSON response type.
func DefaultGeneration() GenerationConfig {
	return GenerationConfig{
		Temperature:     0,
		TopP:            1,
		TopK:            40,
		MaxOutputTokens: 1024,
		JSONResponse:    true,
	}
}

// Model is one provider backend. Generate returns the raw response text.
type Model interface {
	Name() string
	Generate(ctx context.Context, prompt string, gen GenerationConfig) (string, error)
}
