package workflow

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pipewise/maestro/pkg/interfaces"
	"github.com/pipewise/maestro/pkg/logging"
	"github.com/pipewise/maestro/pkg/resilience"
	"github.com/pipewise/maestro/pkg/retry"
	"github.com/pipewise/maestro/pkg/runctx"
)

// Status represents the terminal state of a workflow run
type Status string

const (
	// StatusCompleted indicates every step ran and its output was recorded
	StatusCompleted Status = "completed"

	// StatusFailed indicates a step errored and execution stopped
	StatusFailed Status = "failed"

	// StatusCancelled indicates the run was interrupted; already-recorded
	// step outputs are kept for inspection
	StatusCancelled Status = "cancelled"
)

// RunResult is the outcome of one workflow execution. Data holds each
// completed step's output keyed by the step's index and, when declared, its
// name; on failure it contains the partial results recorded before the
// failing step.
type RunResult struct {
	RunID       string
	Workflow    string
	Status      Status
	Success     bool
	Data        map[string]*interfaces.Result
	Error       error
	FailedStep  string
	StartedAt   time.Time
	CompletedAt time.Time
}

// RunStore persists finished runs so partial results stay inspectable after
// a failure. Implementations live in pkg/runstore.
type RunStore interface {
	SaveRun(ctx context.Context, run *RunResult) error
}

// Executor runs workflows against a registry of agents. Steps execute
// strictly in ascending index order on a single goroutine per run, which is
// consistent with any resolved dependency graph since all dependencies
// point backward. Independent runs may execute concurrently; each gets its
// own results map.
type Executor struct {
	registry *Registry
	logger   logging.Logger
	tracer   interfaces.Tracer
	store    RunStore
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithLogger sets the executor's logger
func WithLogger(logger logging.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithTracer sets the tracer used to span each run and step
func WithTracer(tracer interfaces.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithRunStore persists every finished run to the given store
func WithRunStore(store RunStore) ExecutorOption {
	return func(e *Executor) {
		e.store = store
	}
}

// NewExecutor creates an executor over the given agent registry
func NewExecutor(registry *Registry, options ...ExecutorOption) *Executor {
	executor := &Executor{
		registry: registry,
		logger:   logging.New(),
	}

	for _, option := range options {
		option(executor)
	}

	return executor
}

// Execute resolves and runs the workflow. Dependency-resolution errors are
// returned directly and nothing executes. Once execution starts, step
// failures are reported through the RunResult: the run aborts at the first
// failing step and the result carries the partial results map, the failing
// step's key, and its error.
func (e *Executor) Execute(ctx context.Context, wf *Workflow) (*RunResult, error) {
	resolved, err := wf.Resolve()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx = runctx.WithRunID(ctx, runID)

	if e.tracer != nil {
		var span interfaces.Span
		ctx, span = e.tracer.StartSpan(ctx, "workflow.Execute")
		span.SetAttribute("workflow.name", wf.Name)
		span.SetAttribute("workflow.run_id", runID)
		defer span.End()
	}

	run := &RunResult{
		RunID:     runID,
		Workflow:  wf.Name,
		Status:    StatusCompleted,
		Success:   true,
		Data:      make(map[string]*interfaces.Result),
		StartedAt: time.Now().UTC(),
	}

	e.logger.Info(ctx, "Starting workflow run", map[string]interface{}{
		"workflow": wf.Name,
		"steps":    len(resolved.Steps),
	})

	for i := range resolved.Steps {
		if ctx.Err() != nil {
			e.markCancelled(ctx, run, resolved.StepKey(i), ctx.Err())
			break
		}

		if err := e.executeStep(ctx, resolved, i, run); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				e.markCancelled(ctx, run, resolved.StepKey(i), err)
			} else {
				run.Status = StatusFailed
				run.Success = false
				run.FailedStep = resolved.StepKey(i)
				run.Error = err
				e.logger.Error(ctx, "Workflow run failed", map[string]interface{}{
					"workflow": wf.Name,
					"step":     run.FailedStep,
					"kind":     string(resilience.KindOf(err)),
					"error":    err.Error(),
				})
			}
			break
		}
	}

	run.CompletedAt = time.Now().UTC()

	if run.Success {
		e.logger.Info(ctx, "Workflow run completed", map[string]interface{}{
			"workflow": wf.Name,
			"duration": run.CompletedAt.Sub(run.StartedAt).String(),
		})
	}

	if e.store != nil {
		if err := e.store.SaveRun(ctx, run); err != nil {
			e.logger.Error(ctx, "Failed to persist workflow run", map[string]interface{}{
				"run_id": runID,
				"error":  err.Error(),
			})
		}
	}

	return run, nil
}

// executeStep selects an agent for the step, feeds it the outputs of its
// resolved dependencies, and records the result under the step's key(s)
func (e *Executor) executeStep(ctx context.Context, resolved *ResolvedWorkflow, index int, run *RunResult) error {
	step := resolved.Steps[index]
	key := resolved.StepKey(index)

	if e.tracer != nil {
		var span interfaces.Span
		ctx, span = e.tracer.StartSpan(ctx, "workflow.Step")
		span.SetAttribute("step.key", key)
		span.SetAttribute("step.objective", step.Objective)
		defer span.End()
	}

	agent, err := e.registry.Select(step.Objective, step.PreferredAgent)
	if err != nil {
		return err
	}

	goal := e.buildGoal(resolved, index, run)

	e.logger.Debug(ctx, "Executing step", map[string]interface{}{
		"step":      key,
		"objective": step.Objective,
		"agent":     agent.Name(),
	})

	var result *interfaces.Result
	invoke := func(ctx context.Context) error {
		var invokeErr error
		result, invokeErr = agent.Execute(ctx, goal)
		return invokeErr
	}

	if step.Retry != nil {
		err = retry.NewExecutor(step.Retry).Execute(ctx, invoke)
	} else {
		err = invoke(ctx)
	}
	if err != nil {
		return err
	}

	if result == nil || !result.Success {
		message := "agent reported failure"
		if result != nil && result.Error != "" {
			message = result.Error
		}
		return resilience.Newf(resilience.KindBusinessLogic, resilience.SeverityHigh,
			"step %s: %s", key, message).WithContext("step", key).WithContext("agent", agent.Name())
	}

	run.Data[key] = result
	if step.Name != "" {
		// Name is the primary key; keep the positional key addressable too.
		run.Data[strconv.Itoa(index)] = result
	}

	return nil
}

// buildGoal assembles the goal for a step: its own parameters plus the
// outputs of every step in its resolved dependency set under "inputs"
func (e *Executor) buildGoal(resolved *ResolvedWorkflow, index int, run *RunResult) interfaces.Goal {
	step := resolved.Steps[index]

	parameters := make(map[string]interface{}, len(step.Parameters)+1)
	for k, v := range step.Parameters {
		parameters[k] = v
	}

	if deps := resolved.DependsOn[index]; len(deps) > 0 {
		inputs := make(map[string]interface{}, len(deps))
		for _, dep := range deps {
			depKey := resolved.StepKey(dep)
			if prior, ok := run.Data[depKey]; ok {
				inputs[depKey] = prior.Data
			}
		}
		parameters["inputs"] = inputs
	}

	return interfaces.Goal{
		Objective:  step.Objective,
		Parameters: parameters,
		Priority:   step.Priority,
	}
}

func (e *Executor) markCancelled(ctx context.Context, run *RunResult, step string, cause error) {
	run.Status = StatusCancelled
	run.Success = false
	run.FailedStep = step
	run.Error = resilience.Wrap(resilience.KindExternalService, resilience.SeverityMedium,
		"workflow run cancelled", cause)
	e.logger.Warn(ctx, "Workflow run cancelled", map[string]interface{}{
		"step": step,
	})
}
