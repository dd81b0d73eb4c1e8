package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

const (
	// DefaultGenerationTimeout bounds a single generation call
	DefaultGenerationTimeout = 120 * time.Second

	// DefaultTemperature applies when the configured temperature is negative
	DefaultTemperature = 0.7

	// DefaultMaxTokens caps the answer length
	DefaultMaxTokens = 500
)

// generationOptions are the sampling settings shared by every generator
type generationOptions struct {
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

func newGenerationOptions(settings *domain.GeneratorSettings, defaultModel string) generationOptions {
	opts := generationOptions{
		model:       settings.Model,
		temperature: settings.Temperature,
		maxTokens:   settings.MaxTokens,
		timeout:     settings.Timeout,
	}
	if opts.model == "" {
		opts.model = defaultModel
	}
	if opts.temperature < 0 {
		opts.temperature = DefaultTemperature
	}
	if opts.maxTokens <= 0 {
		opts.maxTokens = DefaultMaxTokens
	}
	if opts.timeout <= 0 {
		opts.timeout = DefaultGenerationTimeout
	}
	return opts
}

// generationError maps a provider failure onto the generation error taxonomy.
// Errors already in the taxonomy, and cancellations by the caller, pass through.
func generationError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrGenerationTimeout) || errors.Is(err, domain.ErrGenerationFailed) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrGenerationTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
}
