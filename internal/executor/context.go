package executor

import (
	"github.com/CodedAgent/codeagent/internal/models"
)

// ContextState describes where an ExecutionContext is in its plan.
type ContextState int

const (
	// StateIdle means no step has been completed yet.
	StateIdle ContextState = iota
	// StateRunning means at least one step is complete and more remain.
	StateRunning
	// StateComplete means the cursor has reached the end of the plan.
	StateComplete
)

// String returns the string representation of ContextState.
func (s ContextState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ExecutionContext drives one plan: a cursor into its steps, the latest
// result per step id and the list of staged-but-unpersisted changes.
//
// It has a single writer. Callers must not call MarkStepComplete or
// StageChange from more than one goroutine. The context never decides
// whether to stop; aborting is the caller simply ceasing to drive it.
type ExecutionContext struct {
	plan      models.ExecutionPlan
	dryRun    bool
	completed map[string]models.StepResult
	cursor    int
	staged    []string
}

// NewExecutionContext wraps plan with the cursor at the first step.
func NewExecutionContext(plan models.ExecutionPlan, dryRun bool) *ExecutionContext {
	return &ExecutionContext{
		plan:      plan,
		dryRun:    dryRun,
		completed: make(map[string]models.StepResult),
	}
}

// Plan returns the plan being executed.
func (c *ExecutionContext) Plan() models.ExecutionPlan {
	return c.plan
}

// IsDryRun reports whether changes should be simulated only.
func (c *ExecutionContext) IsDryRun() bool {
	return c.dryRun
}

// Cursor returns the index of the next step to run.
func (c *ExecutionContext) Cursor() int {
	return c.cursor
}

// NextStep returns the step at the cursor, or false once the cursor is at
// or past the end of the plan.
func (c *ExecutionContext) NextStep() (*models.ExecutionStep, bool) {
	if c.cursor < len(c.plan.Steps) {
		return &c.plan.Steps[c.cursor], true
	}
	return nil, false
}

// MarkStepComplete stores result under its step id, replacing any earlier
// attempt, and advances the cursor by one regardless of result.Success.
// The cursor never moves past the step count.
func (c *ExecutionContext) MarkStepComplete(result models.StepResult) {
	c.completed[result.StepID] = result
	if c.cursor < len(c.plan.Steps) {
		c.cursor++
	}
}

// CanProceedToNext reports whether a next step exists and every one of its
// dependency ids has a recorded result. Only presence is checked: a failed
// dependency still counts as satisfied.
func (c *ExecutionContext) CanProceedToNext() bool {
	step, ok := c.NextStep()
	if !ok {
		return false
	}
	for _, dep := range step.Dependencies {
		if _, done := c.completed[dep]; !done {
			return false
		}
	}
	return true
}

// UnsatisfiedDependencies lists the next step's dependency ids that have
// no recorded result. It returns nil when there is no next step.
func (c *ExecutionContext) UnsatisfiedDependencies() []string {
	step, ok := c.NextStep()
	if !ok {
		return nil
	}
	var missing []string
	for _, dep := range step.Dependencies {
		if _, done := c.completed[dep]; !done {
			missing = append(missing, dep)
		}
	}
	return missing
}

// ProgressPercentage returns floor(cursor / steps * 100), or 0 for an
// empty plan.
func (c *ExecutionContext) ProgressPercentage() int {
	total := len(c.plan.Steps)
	if total == 0 {
		return 0
	}
	return c.cursor * 100 / total
}

// State reports Idle, Running or Complete.
func (c *ExecutionContext) State() ContextState {
	switch {
	case c.cursor >= len(c.plan.Steps):
		return StateComplete
	case c.cursor == 0:
		return StateIdle
	default:
		return StateRunning
	}
}

// Result returns the latest result recorded for stepID.
func (c *ExecutionContext) Result(stepID string) (models.StepResult, bool) {
	r, ok := c.completed[stepID]
	return r, ok
}

// Results returns a copy of all recorded results keyed by step id.
func (c *ExecutionContext) Results() map[string]models.StepResult {
	out := make(map[string]models.StepResult, len(c.completed))
	for k, v := range c.completed {
		out[k] = v
	}
	return out
}

// StageChange records a change that has been made but not yet persisted.
func (c *ExecutionContext) StageChange(change string) {
	c.staged = append(c.staged, change)
}

// StagedChanges returns a copy of the staged changes in staging order.
func (c *ExecutionContext) StagedChanges() []string {
	return append([]string(nil), c.staged...)
}

// RollbackEnabled is true when the plan allows rollback and at least one
// change is staged.
func (c *ExecutionContext) RollbackEnabled() bool {
	return c.plan.RollbackAvailable && len(c.staged) > 0
}
