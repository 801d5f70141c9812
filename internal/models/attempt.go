package models

import "time"

// AttemptRecord is one journaled attempt at a step. Unlike the results held
// by an execution context, every attempt is kept, not only the last.
type AttemptRecord struct {
	ID           int64
	RunID        string
	StepID       string
	Action       ActionType
	Attempt      int // 0-based
	Success      bool
	Output       string
	ErrorMessage string
	DurationMs   uint64
	Suggestions  []FixSuggestion
	Strategy     *RetryStrategy // nil for successful attempts
	RecordedAt   time.Time
}

// NewAttemptRecord builds a record from a step result.
func NewAttemptRecord(runID string, step ExecutionStep, attempt int, result StepResult) AttemptRecord {
	return AttemptRecord{
		RunID:        runID,
		StepID:       step.ID,
		Action:       step.Action,
		Attempt:      attempt,
		Success:      result.Success,
		Output:       result.Output,
		ErrorMessage: result.Error(),
		DurationMs:   result.DurationMs,
		RecordedAt:   time.Now(),
	}
}
