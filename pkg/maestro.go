// Package maestro re-exports the constructors most callers need: agents,
// the workflow executor, and the resilience context.
package maestro

import (
	"github.com/pipewise/maestro/pkg/agent"
	"github.com/pipewise/maestro/pkg/interfaces"
	"github.com/pipewise/maestro/pkg/resilience"
	"github.com/pipewise/maestro/pkg/workflow"
)

// NewAgent creates a new LLM-backed agent with the given options
func NewAgent(options ...agent.Option) (*agent.Agent, error) {
	return agent.New(options...)
}

// WithLLM sets the LLM for the agent
func WithLLM(llm interfaces.LLM) agent.Option {
	return agent.WithLLM(llm)
}

// WithName sets the agent's registered identifier
func WithName(name string) agent.Option {
	return agent.WithName(name)
}

// WithCapabilities declares the objectives the agent can handle
func WithCapabilities(objectives ...string) agent.Option {
	return agent.WithCapabilities(objectives...)
}

// WithMemory sets the conversation memory for the agent
func WithMemory(memory interfaces.Memory) agent.Option {
	return agent.WithMemory(memory)
}

// WithSystemPrompt sets the system prompt for the agent
func WithSystemPrompt(prompt string) agent.Option {
	return agent.WithSystemPrompt(prompt)
}

// NewRegistry creates an empty agent registry
func NewRegistry() *workflow.Registry {
	return workflow.NewRegistry()
}

// NewExecutor creates a workflow executor over the given registry
func NewExecutor(registry *workflow.Registry, options ...workflow.ExecutorOption) *workflow.Executor {
	return workflow.NewExecutor(registry, options...)
}

// NewWorkflow creates a workflow with the given name and steps
func NewWorkflow(name string, steps ...workflow.Step) *workflow.Workflow {
	return workflow.New(name, steps...)
}

// NewResilienceContext creates a resilience context with the given options
func NewResilienceContext(options ...resilience.Option) *resilience.Context {
	return resilience.NewContext(options...)
}
