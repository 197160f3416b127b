package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pipewise/maestro/pkg/interfaces"
	"github.com/pipewise/maestro/pkg/logging"
	"github.com/pipewise/maestro/pkg/resilience"
)

// Agent is an LLM-backed agent. It declares an explicit set of objectives
// it can handle; the workflow registry routes goals by membership in that
// set. An agent is constructed once, registered, and invoked per matching
// goal for the life of the process.
type Agent struct {
	name         string
	llm          interfaces.LLM
	memory       interfaces.Memory
	tracer       interfaces.Tracer
	logger       logging.Logger
	systemPrompt string
	capabilities map[string]struct{}
	llmConfig    *interfaces.LLMConfig
}

// Option represents an option for configuring an agent
type Option func(*Agent)

// WithName sets the agent's registered identifier
func WithName(name string) Option {
	return func(a *Agent) {
		a.name = name
	}
}

// WithLLM sets the LLM for the agent
func WithLLM(llm interfaces.LLM) Option {
	return func(a *Agent) {
		a.llm = llm
	}
}

// WithMemory sets the conversation memory for the agent
func WithMemory(memory interfaces.Memory) Option {
	return func(a *Agent) {
		a.memory = memory
	}
}

// WithTracer sets the tracer for the agent
func WithTracer(tracer interfaces.Tracer) Option {
	return func(a *Agent) {
		a.tracer = tracer
	}
}

// WithLogger sets the logger for the agent
func WithLogger(logger logging.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// WithSystemPrompt sets the system prompt for the agent
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithCapabilities declares the objectives the agent can handle
func WithCapabilities(objectives ...string) Option {
	return func(a *Agent) {
		for _, objective := range objectives {
			a.capabilities[objective] = struct{}{}
		}
	}
}

// WithLLMConfig sets the sampling configuration used for every generation
func WithLLMConfig(config interfaces.LLMConfig) Option {
	return func(a *Agent) {
		a.llmConfig = &config
	}
}

// WithAgentConfig applies a YAML agent configuration: its formatted system
// prompt and its declared capabilities
func WithAgentConfig(config Config, variables map[string]string) Option {
	return func(a *Agent) {
		a.systemPrompt = FormatSystemPromptFromConfig(config, variables)
		for _, objective := range config.Capabilities {
			a.capabilities[objective] = struct{}{}
		}
	}
}

// New creates a new agent with the given options
func New(options ...Option) (*Agent, error) {
	agent := &Agent{
		logger:       logging.New(),
		capabilities: make(map[string]struct{}),
	}

	for _, option := range options {
		option(agent)
	}

	if agent.name == "" {
		return nil, resilience.New(resilience.KindConfiguration, resilience.SeverityHigh,
			"agent name is required")
	}
	if agent.llm == nil {
		return nil, resilience.New(resilience.KindConfiguration, resilience.SeverityHigh,
			"LLM is required")
	}
	if len(agent.capabilities) == 0 {
		return nil, resilience.Newf(resilience.KindConfiguration, resilience.SeverityHigh,
			"agent %q declares no capabilities", agent.name)
	}

	return agent, nil
}

// NewFromConfig creates an agent from a named YAML configuration
func NewFromConfig(agentName string, configs Configs, variables map[string]string, options ...Option) (*Agent, error) {
	config, exists := configs[agentName]
	if !exists {
		return nil, resilience.Newf(resilience.KindConfiguration, resilience.SeverityHigh,
			"agent configuration for %s not found", agentName)
	}

	allOptions := append([]Option{WithName(agentName), WithAgentConfig(config, variables)}, options...)
	return New(allOptions...)
}

// Name returns the agent's registered identifier
func (a *Agent) Name() string {
	return a.name
}

// Supports reports whether the objective is in the agent's declared
// capability set
func (a *Agent) Supports(objective string) bool {
	_, ok := a.capabilities[objective]
	return ok
}

// Capabilities returns the agent's declared objectives, sorted
func (a *Agent) Capabilities() []string {
	objectives := make([]string, 0, len(a.capabilities))
	for objective := range a.capabilities {
		objectives = append(objectives, objective)
	}
	sort.Strings(objectives)
	return objectives
}

// Execute runs the goal: it renders the goal into a prompt, generates a
// completion, and records the exchange in memory when configured
func (a *Agent) Execute(ctx context.Context, goal interfaces.Goal) (*interfaces.Result, error) {
	if goal.Objective == "" {
		return nil, resilience.New(resilience.KindValidation, resilience.SeverityMedium,
			"goal has no objective")
	}
	if !a.Supports(goal.Objective) {
		return nil, resilience.Newf(resilience.KindValidation, resilience.SeverityMedium,
			"agent %q does not support objective %q", a.name, goal.Objective)
	}

	if a.tracer != nil {
		var span interfaces.Span
		ctx, span = a.tracer.StartSpan(ctx, "agent.Execute")
		span.SetAttribute("agent.name", a.name)
		span.SetAttribute("goal.objective", goal.Objective)
		span.SetAttribute("goal.priority", goal.Priority.String())
		defer span.End()
	}

	prompt := a.buildPrompt(goal)

	if a.memory != nil {
		if err := a.memory.AddMessage(ctx, interfaces.Message{
			Role:    "user",
			Content: prompt,
		}); err != nil {
			return nil, fmt.Errorf("failed to add user message to memory: %w", err)
		}
	}

	generateOptions := []interfaces.GenerateOption{}
	if a.systemPrompt != "" {
		generateOptions = append(generateOptions, interfaces.WithSystemMessage(a.systemPrompt))
	}
	if a.llmConfig != nil {
		generateOptions = append(generateOptions, interfaces.WithLLMConfig(*a.llmConfig))
	}

	response, err := a.llm.Generate(ctx, prompt, generateOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}

	if a.memory != nil {
		if err := a.memory.AddMessage(ctx, interfaces.Message{
			Role:    "assistant",
			Content: response,
		}); err != nil {
			return nil, fmt.Errorf("failed to add agent message to memory: %w", err)
		}
	}

	return &interfaces.Result{
		Success: true,
		Data:    response,
		Metadata: map[string]interface{}{
			"agent":     a.name,
			"objective": goal.Objective,
			"provider":  a.llm.Name(),
		},
	}, nil
}

// buildPrompt renders a goal into the prompt sent to the LLM: the
// objective, the step parameters in stable order, and the outputs of
// dependency steps
func (a *Agent) buildPrompt(goal interfaces.Goal) string {
	var b strings.Builder
	b.WriteString("Objective: ")
	b.WriteString(goal.Objective)

	inputs, _ := goal.Parameters["inputs"].(map[string]interface{})

	keys := make([]string, 0, len(goal.Parameters))
	for key := range goal.Parameters {
		if key == "inputs" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(&b, "\n%s: %v", key, goal.Parameters[key])
	}

	if len(inputs) > 0 {
		inputKeys := make([]string, 0, len(inputs))
		for key := range inputs {
			inputKeys = append(inputKeys, key)
		}
		sort.Strings(inputKeys)
		for _, key := range inputKeys {
			fmt.Fprintf(&b, "\n\nResult from %s: %v", key, inputs[key])
		}
	}

	return b.String()
}

var _ interfaces.Agent = (*Agent)(nil)
