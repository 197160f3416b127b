package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pipewise/maestro/pkg/interfaces"
	"github.com/pipewise/maestro/pkg/logging"
	"github.com/pipewise/maestro/pkg/resilience"
	"github.com/pipewise/maestro/pkg/retry"
)

// breakerName is the dependency name under which the circuit breaker
// tracks OpenAI's health
const breakerName = "openai"

// Client implements the LLM interface for OpenAI
type Client struct {
	Client        *openai.Client
	Model         string
	logger        logging.Logger
	retryExecutor *retry.Executor
	resilience    *resilience.Context
	timeout       time.Duration
}

// Option represents an option for configuring the OpenAI client
type Option func(*Client)

// WithModel sets the model for the OpenAI client
func WithModel(model string) Option {
	return func(c *Client) {
		c.Model = model
	}
}

// WithLogger sets the logger for the OpenAI client
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetry configures retry policy for the client
func WithRetry(opts ...retry.Option) Option {
	return func(c *Client) {
		c.retryExecutor = retry.NewExecutor(retry.NewPolicy(opts...))
	}
}

// WithResilience routes API calls through the given resilience context so
// a failing OpenAI endpoint trips its circuit breaker
func WithResilience(rc *resilience.Context) Option {
	return func(c *Client) {
		c.resilience = rc
	}
}

// WithTimeout sets the per-call timeout. Expiry is treated as an
// external-service error subject to the circuit breaker.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a new OpenAI client
func NewClient(apiKey string, options ...Option) *Client {
	client := &Client{
		Client:  openai.NewClient(apiKey),
		Model:   "gpt-4o-mini",
		logger:  logging.New(),
		timeout: 60 * time.Second,
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// Name returns the name of the LLM provider
func (c *Client) Name() string {
	return "openai"
}

// Generate generates text from a prompt
func (c *Client) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	params := &interfaces.GenerateOptions{
		LLMConfig: &interfaces.LLMConfig{
			Temperature: 0.7,
		},
	}
	for _, option := range options {
		option(params)
	}

	messages := []openai.ChatCompletionMessage{}
	if params.SystemMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: params.SystemMessage,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:    c.Model,
		Messages: messages,
	}
	if params.LLMConfig != nil {
		req.Temperature = float32(params.LLMConfig.Temperature)
		req.TopP = float32(params.LLMConfig.TopP)
		req.MaxTokens = params.LLMConfig.MaxTokens
		req.Stop = params.LLMConfig.StopSequences
	}

	var resp openai.ChatCompletionResponse

	operation := func(ctx context.Context) error {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		c.logger.Debug(ctx, "Executing OpenAI API request", map[string]interface{}{
			"model":       c.Model,
			"temperature": req.Temperature,
			"messages":    len(req.Messages),
		})

		var err error
		resp, err = c.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			c.logger.Error(ctx, "Error from OpenAI API", map[string]interface{}{
				"error": err.Error(),
				"model": c.Model,
			})
			return resilience.Wrap(resilience.KindExternalService, resilience.SeverityHigh,
				"openai chat completion failed", err).WithContext("model", c.Model)
		}
		return nil
	}

	guarded := operation
	if c.resilience != nil {
		guarded = func(ctx context.Context) error {
			_, err := c.resilience.Execute(ctx, breakerName, func(ctx context.Context) (interface{}, error) {
				return nil, operation(ctx)
			})
			return err
		}
	}

	var err error
	if c.retryExecutor != nil {
		err = c.retryExecutor.Execute(ctx, guarded)
	} else {
		err = guarded(ctx)
	}
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", resilience.New(resilience.KindExternalService, resilience.SeverityHigh,
			"openai returned no choices").WithContext("model", c.Model)
	}

	return resp.Choices[0].Message.Content, nil
}

// SetHTTPConfig replaces the underlying API client; tests use it to point
// the client at a local server
func (c *Client) SetHTTPConfig(config openai.ClientConfig) {
	c.Client = openai.NewClientWithConfig(config)
}

var _ interfaces.LLM = (*Client)(nil)

// String implements fmt.Stringer
func (c *Client) String() string {
	return fmt.Sprintf("openai(%s)", c.Model)
}
