package workflow

import (
	"sync"

	"github.com/pipewise/maestro/pkg/interfaces"
	"github.com/pipewise/maestro/pkg/resilience"
)

// Registry holds the agents available to an executor. Registration order is
// preserved: when no preferred agent applies, the first registered agent
// whose capability predicate accepts an objective wins.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]interfaces.Agent
	order  []string
}

// NewRegistry creates an empty agent registry
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]interfaces.Agent),
	}
}

// Register adds an agent under its own name. Registering a second agent
// with the same name is a configuration error.
func (r *Registry) Register(agent interfaces.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := agent.Name()
	if name == "" {
		return resilience.New(resilience.KindConfiguration, resilience.SeverityHigh,
			"agent has no name")
	}
	if _, exists := r.agents[name]; exists {
		return resilience.Newf(resilience.KindConfiguration, resilience.SeverityHigh,
			"agent %q is already registered", name)
	}

	r.agents[name] = agent
	r.order = append(r.order, name)
	return nil
}

// Get returns the agent registered under the given name
func (r *Registry) Get(name string) (interfaces.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[name]
	return agent, ok
}

// List returns all registered agents in registration order
func (r *Registry) List() []interfaces.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]interfaces.Agent, 0, len(r.order))
	for _, name := range r.order {
		agents = append(agents, r.agents[name])
	}
	return agents
}

// Select picks the agent to handle an objective. The preferred agent wins
// when it is registered and supports the objective; otherwise agents are
// scanned in registration order and the first match wins. No match is a
// hard error, never a silent skip.
func (r *Registry) Select(objective string, preferred string) (interfaces.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if preferred != "" {
		if agent, ok := r.agents[preferred]; ok && agent.Supports(objective) {
			return agent, nil
		}
	}

	for _, name := range r.order {
		if agent := r.agents[name]; agent.Supports(objective) {
			return agent, nil
		}
	}

	return nil, resilience.Newf(resilience.KindDependencyResolution, resilience.SeverityHigh,
		"no registered agent can handle objective %q", objective).
		WithContext("objective", objective).WithContext("preferred_agent", preferred)
}
