package workflow

import (
	"sort"
	"strconv"

	"github.com/pipewise/maestro/pkg/interfaces"
	"github.com/pipewise/maestro/pkg/resilience"
	"github.com/pipewise/maestro/pkg/retry"
)

// Step is one node in a workflow's ordered step list. A step wraps a goal
// (objective, parameters, priority) plus references to the predecessor
// steps whose outputs it consumes.
type Step struct {
	// Name optionally identifies the step so later steps can reference it
	// by name and its output is keyed by name in the results map
	Name string

	// Objective identifies the kind of work, matched against agent
	// capabilities
	Objective string

	// PreferredAgent optionally names the agent that should handle the
	// step; it wins only when registered and capable
	PreferredAgent string

	// Parameters are handed to the agent as goal parameters
	Parameters map[string]interface{}

	// Priority is the urgency of the step's goal
	Priority interfaces.Priority

	// Dependencies references the predecessor steps
	Dependencies []DependencyRef

	// Retry optionally makes the step's external-service failures
	// retryable; validation errors are never retried
	Retry *retry.Policy
}

// Workflow is an ordered list of steps awaiting dependency resolution
type Workflow struct {
	Name  string
	Steps []Step
}

// New creates a workflow with the given name and steps
func New(name string, steps ...Step) *Workflow {
	return &Workflow{
		Name:  name,
		Steps: steps,
	}
}

// AddStep appends a step to the workflow
func (w *Workflow) AddStep(step Step) *Workflow {
	w.Steps = append(w.Steps, step)
	return w
}

// ResolvedWorkflow is a workflow whose dependency references have been
// normalized into concrete predecessor index sets. No step depends on
// itself or on a later-positioned step, so executing steps in ascending
// index order is always consistent with the dependency graph.
type ResolvedWorkflow struct {
	Name  string
	Steps []Step

	// DependsOn holds, per step, the sorted set of predecessor indices
	DependsOn [][]int
}

// Resolve validates the workflow and normalizes every step's dependency
// list. Resolution errors are fatal to workflow construction: a workflow
// that fails to resolve never starts executing.
func (w *Workflow) Resolve() (*ResolvedWorkflow, error) {
	seen := make(map[string]int, len(w.Steps))
	for i, step := range w.Steps {
		if step.Objective == "" {
			return nil, resilience.Newf(resilience.KindValidation, resilience.SeverityHigh,
				"step %d has no objective", i).WithContext("step", i)
		}
		if step.Name != "" {
			if previous, ok := seen[step.Name]; ok {
				return nil, resilience.Newf(resilience.KindValidation, resilience.SeverityHigh,
					"steps %d and %d both declare the name %q", previous, i, step.Name).
					WithContext("name", step.Name)
			}
			seen[step.Name] = i
		}
	}

	resolved := &ResolvedWorkflow{
		Name:      w.Name,
		Steps:     w.Steps,
		DependsOn: make([][]int, len(w.Steps)),
	}

	for i, step := range w.Steps {
		set := make(map[int]struct{})
		for _, ref := range step.Dependencies {
			indices, err := ref.resolve(w.Steps, i)
			if err != nil {
				return nil, err
			}
			for _, index := range indices {
				set[index] = struct{}{}
			}
		}

		indices := make([]int, 0, len(set))
		for index := range set {
			indices = append(indices, index)
		}
		sort.Ints(indices)
		resolved.DependsOn[i] = indices
	}

	return resolved, nil
}

// StepKey returns the identifier under which the step's output is recorded:
// its declared name when present, otherwise its index
func (r *ResolvedWorkflow) StepKey(index int) string {
	if name := r.Steps[index].Name; name != "" {
		return name
	}
	return strconv.Itoa(index)
}
