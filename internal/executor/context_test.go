package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodedAgent/codeagent/internal/models"
	"github.com/CodedAgent/codeagent/internal/planner"
)

func threeStepPlan() models.ExecutionPlan {
	return planner.BuildPlan([]models.ExecutionStep{
		{ID: "a", Action: models.ActionAnalyze},
		{ID: "b", Action: models.ActionModify, Dependencies: []string{"a"}, RollbackEnabled: true},
		{ID: "c", Action: models.ActionTestRun, Dependencies: []string{"b"}},
	})
}

func ok(id string) models.StepResult {
	return models.StepResult{StepID: id, Success: true, Output: "ok"}
}

func failed(id string) models.StepResult {
	msg := "boom"
	return models.StepResult{StepID: id, Success: false, ErrorMessage: &msg}
}

func TestNewExecutionContext(t *testing.T) {
	plan := threeStepPlan()
	ctx := NewExecutionContext(plan, true)

	assert.True(t, ctx.IsDryRun())
	assert.Equal(t, 0, ctx.Cursor())
	assert.Equal(t, 0, ctx.ProgressPercentage())
	assert.Equal(t, StateIdle, ctx.State())
	assert.Empty(t, ctx.Results())
	assert.Empty(t, ctx.StagedChanges())
	assert.False(t, ctx.RollbackEnabled())

	step, found := ctx.NextStep()
	require.True(t, found)
	assert.Equal(t, "a", step.ID)
}

func TestExecutionContext_WalkPlan(t *testing.T) {
	ctx := NewExecutionContext(threeStepPlan(), false)

	wantProgress := []int{33, 66, 100}
	wantState := []ContextState{StateRunning, StateRunning, StateComplete}

	for i, id := range []string{"a", "b", "c"} {
		require.True(t, ctx.CanProceedToNext(), "step %s should be runnable", id)
		step, found := ctx.NextStep()
		require.True(t, found)
		require.Equal(t, id, step.ID)

		ctx.MarkStepComplete(ok(id))

		assert.Equal(t, i+1, ctx.Cursor())
		assert.Equal(t, wantProgress[i], ctx.ProgressPercentage())
		assert.Equal(t, wantState[i], ctx.State())
	}

	_, found := ctx.NextStep()
	assert.False(t, found)
	assert.False(t, ctx.CanProceedToNext())
	assert.Nil(t, ctx.UnsatisfiedDependencies())
	assert.Len(t, ctx.Results(), 3)
}

func TestExecutionContext_FailedDependencyStillSatisfies(t *testing.T) {
	ctx := NewExecutionContext(threeStepPlan(), false)

	ctx.MarkStepComplete(failed("a"))

	assert.True(t, ctx.CanProceedToNext())
	assert.Empty(t, ctx.UnsatisfiedDependencies())

	r, found := ctx.Result("a")
	require.True(t, found)
	assert.False(t, r.Success)
	assert.Equal(t, "boom", r.Error())
}

func TestExecutionContext_MissingDependencyBlocks(t *testing.T) {
	plan := planner.Decompose("run the tests")
	ctx := NewExecutionContext(plan, false)

	require.True(t, ctx.CanProceedToNext())
	ctx.MarkStepComplete(ok(planner.AnalyzeStepID))

	step, found := ctx.NextStep()
	require.True(t, found)
	assert.Equal(t, planner.TestStepID, step.ID)
	assert.False(t, ctx.CanProceedToNext())
	assert.Equal(t, []string{planner.ModifyStepID}, ctx.UnsatisfiedDependencies())
}

func TestExecutionContext_OutOfOrderCompletion(t *testing.T) {
	ctx := NewExecutionContext(threeStepPlan(), false)

	// Results are keyed by id; the cursor only counts calls.
	ctx.MarkStepComplete(ok("b"))

	assert.Equal(t, 1, ctx.Cursor())
	step, _ := ctx.NextStep()
	assert.Equal(t, "b", step.ID)
	assert.False(t, ctx.CanProceedToNext(), "a was never recorded")
	assert.Equal(t, []string{"a"}, ctx.UnsatisfiedDependencies())
}

func TestExecutionContext_MarkOverwritesAndClamps(t *testing.T) {
	ctx := NewExecutionContext(threeStepPlan(), false)

	ctx.MarkStepComplete(failed("a"))
	ctx.MarkStepComplete(ok("a"))

	r, found := ctx.Result("a")
	require.True(t, found)
	assert.True(t, r.Success)
	assert.Len(t, ctx.Results(), 1)
	assert.Equal(t, 2, ctx.Cursor())

	for i := 0; i < 5; i++ {
		ctx.MarkStepComplete(ok("c"))
	}
	assert.Equal(t, 3, ctx.Cursor())
	assert.Equal(t, 100, ctx.ProgressPercentage())
	assert.Equal(t, StateComplete, ctx.State())
}

func TestExecutionContext_EmptyPlan(t *testing.T) {
	ctx := NewExecutionContext(models.ExecutionPlan{}, false)

	_, found := ctx.NextStep()
	assert.False(t, found)
	assert.False(t, ctx.CanProceedToNext())
	assert.Equal(t, 0, ctx.ProgressPercentage())
	assert.Equal(t, StateComplete, ctx.State())

	ctx.MarkStepComplete(ok("ghost"))
	assert.Equal(t, 0, ctx.Cursor())
}

func TestExecutionContext_StagedChanges(t *testing.T) {
	ctx := NewExecutionContext(threeStepPlan(), false)

	ctx.StageChange("main.go")
	ctx.StageChange("util.go")
	assert.Equal(t, []string{"main.go", "util.go"}, ctx.StagedChanges())
	assert.True(t, ctx.RollbackEnabled())

	// Returned slice is a copy.
	changes := ctx.StagedChanges()
	changes[0] = "mutated"
	assert.Equal(t, "main.go", ctx.StagedChanges()[0])

	noRollback := threeStepPlan()
	noRollback.RollbackAvailable = false
	ctx2 := NewExecutionContext(noRollback, false)
	ctx2.StageChange("main.go")
	assert.False(t, ctx2.RollbackEnabled())
}

func TestExecutionContext_ResultsIsCopy(t *testing.T) {
	ctx := NewExecutionContext(threeStepPlan(), false)
	ctx.MarkStepComplete(ok("a"))

	results := ctx.Results()
	delete(results, "a")

	_, found := ctx.Result("a")
	assert.True(t, found)
}

func TestContextState_String(t *testing.T) {
	tests := []struct {
		state ContextState
		want  string
	}{
		{StateIdle, "idle"},
		{StateRunning, "running"},
		{StateComplete, "complete"},
		{ContextState(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}
