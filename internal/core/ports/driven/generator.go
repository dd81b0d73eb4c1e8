package driven

import (
	"context"
)

// TokenHandler receives streamed generation output.
// Returning an error stops the stream.
type TokenHandler func(token string) error

// Generator produces answer text from a prompt
type Generator interface {
	// Generate returns the full completion for prompt.
	// Implementations bound the call with their configured timeout.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream calls onToken for each piece of output as it arrives
	GenerateStream(ctx context.Context, prompt string, onToken TokenHandler) error

	// Model returns the model name being used
	Model() string

	// HealthCheck runs a lightweight liveness check
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the generator
	Close() error
}
