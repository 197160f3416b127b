package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewise/maestro/pkg/interfaces"
	"github.com/pipewise/maestro/pkg/resilience"
)

// stubAgent records the goals it receives and answers with a canned
// function
type stubAgent struct {
	name         string
	capabilities map[string]struct{}
	execute      func(ctx context.Context, goal interfaces.Goal) (*interfaces.Result, error)
	goals        []interfaces.Goal
}

func newStubAgent(name string, objectives ...string) *stubAgent {
	capabilities := make(map[string]struct{}, len(objectives))
	for _, objective := range objectives {
		capabilities[objective] = struct{}{}
	}
	return &stubAgent{
		name:         name,
		capabilities: capabilities,
		execute: func(_ context.Context, goal interfaces.Goal) (*interfaces.Result, error) {
			return &interfaces.Result{Success: true, Data: name + ":" + goal.Objective}, nil
		},
	}
}

func (a *stubAgent) Name() string { return a.name }

func (a *stubAgent) Supports(objective string) bool {
	_, ok := a.capabilities[objective]
	return ok
}

func (a *stubAgent) Execute(ctx context.Context, goal interfaces.Goal) (*interfaces.Result, error) {
	a.goals = append(a.goals, goal)
	return a.execute(ctx, goal)
}

func registryWith(t *testing.T, agents ...interfaces.Agent) *Registry {
	t.Helper()
	registry := NewRegistry()
	for _, agent := range agents {
		require.NoError(t, registry.Register(agent))
	}
	return registry
}

func TestExecuteRecordsOneResultPerStep(t *testing.T) {
	worker := newStubAgent("worker", "analyze", "design", "write", "validate")
	executor := NewExecutor(registryWith(t, worker))

	wf := New("api-spec",
		Step{Objective: "analyze"},
		Step{Objective: "design", Dependencies: []DependencyRef{ByIndex(0)}},
		Step{Name: "write", Objective: "write", Dependencies: []DependencyRef{Previous()}},
		Step{Objective: "validate", Dependencies: []DependencyRef{Previous()}},
	)

	run, err := executor.Execute(context.Background(), wf)
	require.NoError(t, err)

	assert.True(t, run.Success)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.NotEmpty(t, run.RunID)

	// One entry per step: unnamed steps keyed by index, the named step
	// keyed by both name and index.
	for _, key := range []string{"0", "1", "2", "3", "write"} {
		assert.Contains(t, run.Data, key)
	}
	assert.Same(t, run.Data["2"], run.Data["write"])

	// Steps ran in ascending order.
	objectives := make([]string, 0, len(worker.goals))
	for _, goal := range worker.goals {
		objectives = append(objectives, goal.Objective)
	}
	assert.Equal(t, []string{"analyze", "design", "write", "validate"}, objectives)
}

// The validate step depends on "prev", so its goal must carry the write
// step's output.
func TestDependencyOutputsFlowIntoGoal(t *testing.T) {
	worker := newStubAgent("worker", "analyze", "design", "write", "validate")
	executor := NewExecutor(registryWith(t, worker))

	wf := New("api-spec",
		Step{Objective: "analyze"},
		Step{Objective: "design", Dependencies: []DependencyRef{ByIndex(0)}},
		Step{Name: "write", Objective: "write", Dependencies: []DependencyRef{Previous()}},
		Step{Objective: "validate", Dependencies: []DependencyRef{Previous()}},
	)

	run, err := executor.Execute(context.Background(), wf)
	require.NoError(t, err)
	require.True(t, run.Success)

	validateGoal := worker.goals[3]
	inputs, ok := validateGoal.Parameters["inputs"].(map[string]interface{})
	require.True(t, ok, "validate goal must carry dependency inputs")
	assert.Equal(t, "worker:write", inputs["write"])

	designGoal := worker.goals[1]
	inputs, ok = designGoal.Parameters["inputs"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "worker:analyze", inputs["0"])
}

func TestStepFailureAbortsRemainingSteps(t *testing.T) {
	worker := newStubAgent("worker", "a", "b", "c", "d")
	worker.execute = func(_ context.Context, goal interfaces.Goal) (*interfaces.Result, error) {
		if goal.Objective == "c" {
			return nil, resilience.New(resilience.KindExternalService, resilience.SeverityHigh, "service blew up")
		}
		return &interfaces.Result{Success: true, Data: goal.Objective}, nil
	}
	executor := NewExecutor(registryWith(t, worker))

	wf := New("t",
		Step{Objective: "a"},
		Step{Objective: "b"},
		Step{Objective: "c", Dependencies: []DependencyRef{Previous()}},
		Step{Objective: "d", Dependencies: []DependencyRef{ByIndex(2)}},
	)

	run, err := executor.Execute(context.Background(), wf)
	require.NoError(t, err)

	assert.False(t, run.Success)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, "2", run.FailedStep)
	assert.Contains(t, run.Data, "0")
	assert.Contains(t, run.Data, "1")
	assert.NotContains(t, run.Data, "2")
	assert.NotContains(t, run.Data, "3")
	require.Error(t, run.Error)
	assert.True(t, strings.Contains(run.Error.Error(), "service blew up"))
	assert.Len(t, worker.goals, 3, "step d must not execute")
}

func TestAgentReportedFailureAbortsRun(t *testing.T) {
	worker := newStubAgent("worker", "a")
	worker.execute = func(context.Context, interfaces.Goal) (*interfaces.Result, error) {
		return &interfaces.Result{Success: false, Error: "refused"}, nil
	}
	executor := NewExecutor(registryWith(t, worker))

	run, err := executor.Execute(context.Background(), New("t", Step{Objective: "a"}))
	require.NoError(t, err)

	assert.False(t, run.Success)
	assert.Equal(t, StatusFailed, run.Status)
	require.Error(t, run.Error)
	assert.Contains(t, run.Error.Error(), "refused")
}

func TestMatchingRoutesByCapability(t *testing.T) {
	agentA := newStubAgent("a", "x")
	agentB := newStubAgent("b", "y")
	executor := NewExecutor(registryWith(t, agentA, agentB))

	run, err := executor.Execute(context.Background(), New("t", Step{Objective: "y"}))
	require.NoError(t, err)

	assert.True(t, run.Success)
	assert.Empty(t, agentA.goals, "agent a must never see objective y")
	assert.Len(t, agentB.goals, 1)
}

func TestPreferredAgentWinsWhenCapable(t *testing.T) {
	first := newStubAgent("first", "x")
	second := newStubAgent("second", "x")
	executor := NewExecutor(registryWith(t, first, second))

	run, err := executor.Execute(context.Background(),
		New("t", Step{Objective: "x", PreferredAgent: "second"}))
	require.NoError(t, err)

	assert.True(t, run.Success)
	assert.Empty(t, first.goals)
	assert.Len(t, second.goals, 1)
}

func TestIncapablePreferredAgentFallsBack(t *testing.T) {
	preferred := newStubAgent("preferred", "other")
	capable := newStubAgent("capable", "x")
	executor := NewExecutor(registryWith(t, preferred, capable))

	run, err := executor.Execute(context.Background(),
		New("t", Step{Objective: "x", PreferredAgent: "preferred"}))
	require.NoError(t, err)

	assert.True(t, run.Success)
	assert.Empty(t, preferred.goals)
	assert.Len(t, capable.goals, 1)
}

func TestNoMatchingAgentFailsStep(t *testing.T) {
	executor := NewExecutor(registryWith(t, newStubAgent("worker", "x")))

	run, err := executor.Execute(context.Background(), New("t", Step{Objective: "unknown"}))
	require.NoError(t, err)

	assert.False(t, run.Success)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, resilience.KindDependencyResolution, resilience.KindOf(run.Error))
}

func TestResolutionErrorPreventsExecution(t *testing.T) {
	worker := newStubAgent("worker", "a", "b")
	executor := NewExecutor(registryWith(t, worker))

	wf := New("t",
		Step{Objective: "a", Dependencies: []DependencyRef{ByIndex(1)}},
		Step{Objective: "b"},
	)

	run, err := executor.Execute(context.Background(), wf)
	require.Error(t, err)
	assert.Nil(t, run)
	assert.Empty(t, worker.goals, "nothing may execute when resolution fails")
}

func TestCancellationMarksRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	worker := newStubAgent("worker", "a", "b")
	worker.execute = func(ctx context.Context, goal interfaces.Goal) (*interfaces.Result, error) {
		if goal.Objective == "a" {
			cancel()
			return &interfaces.Result{Success: true, Data: "done"}, nil
		}
		return nil, ctx.Err()
	}
	executor := NewExecutor(registryWith(t, worker))

	wf := New("t",
		Step{Objective: "a"},
		Step{Objective: "b", Dependencies: []DependencyRef{Previous()}},
	)

	run, err := executor.Execute(ctx, wf)
	require.NoError(t, err)

	assert.False(t, run.Success)
	assert.Equal(t, StatusCancelled, run.Status)
	assert.Contains(t, run.Data, "0", "outputs recorded before cancellation are kept")
	require.Error(t, run.Error)
	assert.True(t, errors.Is(run.Error, context.Canceled))
}

// saveRecorder captures the run handed to the store.
type saveRecorder struct {
	saved *RunResult
}

func (s *saveRecorder) SaveRun(_ context.Context, run *RunResult) error {
	s.saved = run
	return nil
}

func TestFinishedRunsArePersisted(t *testing.T) {
	store := &saveRecorder{}
	executor := NewExecutor(registryWith(t, newStubAgent("worker", "a")), WithRunStore(store))

	run, err := executor.Execute(context.Background(), New("t", Step{Objective: "a"}))
	require.NoError(t, err)
	require.NotNil(t, store.saved)
	assert.Equal(t, run.RunID, store.saved.RunID)
}
