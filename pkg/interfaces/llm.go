package interfaces

import "context"

// LLM represents a large language model provider
type LLM interface {
	// Generate generates text based on the provided prompt
	Generate(ctx context.Context, prompt string, options ...GenerateOption) (string, error)

	// Name returns the name of the LLM provider
	Name() string
}

// GenerateOption represents options for text generation
type GenerateOption func(options *GenerateOptions)

// GenerateOptions contains configuration for text generation
type GenerateOptions struct {
	LLMConfig     *LLMConfig // LLM config for the generation
	SystemMessage string     // System message for chat models
}

// LLMConfig contains sampling parameters for the generation
type LLMConfig struct {
	Temperature   float64  // Temperature for the generation
	TopP          float64  // Top P for the generation
	MaxTokens     int      // Maximum tokens to generate (0 = provider default)
	StopSequences []string // Stop sequences for the generation
}

// WithSystemMessage sets the system message for the generation
func WithSystemMessage(message string) GenerateOption {
	return func(options *GenerateOptions) {
		options.SystemMessage = message
	}
}

// WithLLMConfig sets the sampling configuration for the generation
func WithLLMConfig(config LLMConfig) GenerateOption {
	return func(options *GenerateOptions) {
		options.LLMConfig = &config
	}
}
