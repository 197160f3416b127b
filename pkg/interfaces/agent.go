package interfaces

import "context"

// Priority indicates how urgent a goal is relative to other goals
type Priority int

const (
	// PriorityLow is for background or best-effort goals
	PriorityLow Priority = iota

	// PriorityMedium is the default priority
	PriorityMedium

	// PriorityHigh is for goals that should preempt routine work
	PriorityHigh

	// PriorityCritical is for goals that must run as soon as possible
	PriorityCritical
)

// String returns the lowercase name of the priority
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Goal is a named unit of work submitted to an agent. A goal is immutable
// once created; the executor builds a fresh goal per step invocation.
type Goal struct {
	// Objective identifies the kind of work, e.g. "analyze_requirements"
	Objective string

	// Parameters carries the step's parameters. Outputs of the step's
	// resolved dependencies are merged in under the "inputs" key as a
	// map of step key to prior result.
	Parameters map[string]interface{}

	// Priority indicates the urgency of the goal
	Priority Priority
}

// Result is the outcome of a single agent invocation
type Result struct {
	// Success indicates whether the agent completed the goal
	Success bool

	// Data is the agent's output (a string for LLM agents, or any
	// structured value for custom agents)
	Data interface{}

	// Error holds a human-readable description when Success is false
	Error string

	// Metadata contains additional information about the invocation
	Metadata map[string]interface{}
}

// Agent is a worker that can execute goals. Agents are stateless with
// respect to any workflow: they are constructed once, registered with an
// orchestrator, and invoked per matching goal for the life of the process.
type Agent interface {
	// Name returns the agent's registered identifier
	Name() string

	// Supports reports whether the agent can handle the given objective
	Supports(objective string) bool

	// Execute runs the goal to completion and returns its result
	Execute(ctx context.Context, goal Goal) (*Result, error)
}
