package tracing

import (
	"context"
	"fmt"
	"time"

	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"

	"github.com/pipewise/maestro/pkg/interfaces"
	"github.com/pipewise/maestro/pkg/logging"
	"github.com/pipewise/maestro/pkg/runctx"
)

// LangfuseTracer records LLM generations in Langfuse for prompt/response
// observability
type LangfuseTracer struct {
	client      *langfuse.Langfuse
	enabled     bool
	environment string
}

// LangfuseConfig contains configuration for Langfuse. Credentials are read
// by the Langfuse client from its standard environment variables.
type LangfuseConfig struct {
	// Enabled determines whether Langfuse tracing is enabled
	Enabled bool

	// Environment is the environment name (e.g., "production", "staging")
	Environment string
}

// NewLangfuseTracer creates a new Langfuse generation tracer
func NewLangfuseTracer(config LangfuseConfig) *LangfuseTracer {
	if !config.Enabled {
		return &LangfuseTracer{enabled: false}
	}

	return &LangfuseTracer{
		client:      langfuse.New(context.Background()),
		enabled:     true,
		environment: config.Environment,
	}
}

// TraceGeneration records one LLM generation
func (t *LangfuseTracer) TraceGeneration(ctx context.Context, modelName string, prompt string, response string, startTime time.Time, endTime time.Time, metadata map[string]interface{}) (string, error) {
	if !t.enabled {
		return "", nil
	}

	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	if runID, err := runctx.GetRunID(ctx); err == nil {
		metadata["run_id"] = runID
	}
	metadata["environment"] = t.environment

	metadataM := make(model.M, len(metadata))
	for k, v := range metadata {
		metadataM[k] = v
	}

	generation := &model.Generation{
		Name:      fmt.Sprintf("generation-%d", time.Now().UnixNano()),
		StartTime: &startTime,
		EndTime:   &endTime,
		Model:     modelName,
		Input: []model.M{
			{"prompt": prompt},
		},
		Output: model.M{
			"completion": response,
		},
		Metadata: metadataM,
	}

	var id string
	generationID, err := t.client.Generation(generation, &id)
	if err != nil {
		return "", fmt.Errorf("failed to create Langfuse generation: %w", err)
	}

	return generationID.ID, nil
}

// Flush drains buffered observations to Langfuse
func (t *LangfuseTracer) Flush(ctx context.Context) {
	if t.enabled {
		t.client.Flush(ctx)
	}
}

// LLMMiddleware wraps an LLM so every generation is recorded in Langfuse
type LLMMiddleware struct {
	llm    interfaces.LLM
	tracer *LangfuseTracer
	logger logging.Logger
}

// NewLLMMiddleware creates a Langfuse-tracing wrapper around an LLM
func NewLLMMiddleware(llm interfaces.LLM, tracer *LangfuseTracer, logger logging.Logger) *LLMMiddleware {
	if logger == nil {
		logger = logging.New()
	}
	return &LLMMiddleware{
		llm:    llm,
		tracer: tracer,
		logger: logger,
	}
}

// Generate generates text from a prompt, recording the exchange. Trace
// failures are logged, never propagated to the caller.
func (m *LLMMiddleware) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	startTime := time.Now()
	response, err := m.llm.Generate(ctx, prompt, options...)
	endTime := time.Now()

	if err != nil {
		return "", err
	}

	metadata := map[string]interface{}{
		"provider": m.llm.Name(),
	}
	if _, traceErr := m.tracer.TraceGeneration(ctx, m.llm.Name(), prompt, response, startTime, endTime, metadata); traceErr != nil {
		m.logger.Warn(ctx, "Failed to trace generation", map[string]interface{}{
			"error": traceErr.Error(),
		})
	}

	return response, nil
}

// Name implements interfaces.LLM
func (m *LLMMiddleware) Name() string {
	return m.llm.Name()
}

var _ interfaces.LLM = (*LLMMiddleware)(nil)
