package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors wrapped by StepError and ExecutionError.
var (
	// ErrDependencyUnsatisfied means the next step references a step id
	// with no recorded result.
	ErrDependencyUnsatisfied = errors.New("dependency unsatisfied")
	// ErrEscalated means a failed step was escalated and the user (or the
	// absence of one) declined to continue.
	ErrEscalated = errors.New("escalated to user")
	// ErrCommandFailed means a configured shell command exited non-zero.
	ErrCommandFailed = errors.New("command failed")
)

// AbortPhase describes why a run stopped early.
type AbortPhase int

const (
	// PhaseBlocked means the next step could not start.
	PhaseBlocked AbortPhase = iota
	// PhaseEscalated means a step failure was escalated and not approved.
	PhaseEscalated
	// PhaseCancelled means the caller's context was cancelled.
	PhaseCancelled
)

// String returns the string representation of AbortPhase.
func (p AbortPhase) String() string {
	switch p {
	case PhaseBlocked:
		return "blocked"
	case PhaseEscalated:
		return "escalated"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// StepError represents an error attributed to a single step.
type StepError struct {
	StepID    string    // Id of the step that failed
	Message   string    // Human-readable error message
	Err       error     // Underlying error (optional)
	Timestamp time.Time // When the error occurred
}

// NewStepError creates a new StepError with the current timestamp.
func NewStepError(stepID, msg string, err error) *StepError {
	return &StepError{
		StepID:    stepID,
		Message:   msg,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface for StepError.
func (e *StepError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("step %s: %s", e.StepID, e.Message))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *StepError) Unwrap() error {
	return e.Err
}

// ExecutionError reports an aborted run: the phase that stopped it and
// the step errors that led there.
type ExecutionError struct {
	Phase          AbortPhase   // Why the run stopped
	StepErrors     []*StepError // Individual step errors
	TotalSteps     int          // Steps in the plan
	CompletedSteps int          // Steps marked complete before the abort
}

// NewExecutionError creates a new ExecutionError for the given phase.
func NewExecutionError(phase AbortPhase, totalSteps, completedSteps int) *ExecutionError {
	return &ExecutionError{
		Phase:          phase,
		StepErrors:     []*StepError{},
		TotalSteps:     totalSteps,
		CompletedSteps: completedSteps,
	}
}

// AddStep appends a step error.
func (e *ExecutionError) AddStep(stepErr *StepError) {
	e.StepErrors = append(e.StepErrors, stepErr)
}

// Error implements the error interface for ExecutionError.
func (e *ExecutionError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("execution %s after %d/%d steps",
		e.Phase, e.CompletedSteps, e.TotalSteps))

	if len(e.StepErrors) > 0 {
		sb.WriteString(":")
		for _, stepErr := range e.StepErrors {
			sb.WriteString(fmt.Sprintf("\n  - %s", stepErr.Error()))
		}
	}

	return sb.String()
}

// Unwrap returns the step errors so errors.Is and errors.As can reach the
// sentinels they wrap.
func (e *ExecutionError) Unwrap() []error {
	if len(e.StepErrors) == 0 {
		return nil
	}

	errs := make([]error, len(e.StepErrors))
	for i, stepErr := range e.StepErrors {
		errs[i] = stepErr
	}
	return errs
}

// TimeoutError represents a step attempt that exceeded its timeout.
type TimeoutError struct {
	StepID          string        // Id of the step that timed out
	TimeoutDuration time.Duration // Duration after which timeout occurred
	Context         string        // Additional context (optional)
	Timestamp       time.Time     // When the timeout occurred
}

// NewTimeoutError creates a new TimeoutError with the current timestamp.
func NewTimeoutError(stepID string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		StepID:          stepID,
		TimeoutDuration: duration,
		Timestamp:       time.Now(),
	}
}

// Error implements the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("step %s: timeout after %v", e.StepID, e.TimeoutDuration))
	if e.Context != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", e.Context))
	}
	return sb.String()
}

// Unwrap returns context.DeadlineExceeded to support error wrapping.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// IsStepError checks if the error is or wraps a StepError.
func IsStepError(err error) bool {
	if err == nil {
		return false
	}
	var se *StepError
	return errors.As(err, &se)
}

// IsTimeoutError checks if the error is or wraps a TimeoutError or context.DeadlineExceeded.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// IsExecutionError checks if the error is or wraps an ExecutionError.
func IsExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var ee *ExecutionError
	return errors.As(err, &ee)
}
