package models

import "time"

// StepResult records the outcome of one attempt at a step.
// A later attempt at the same step id replaces the earlier one.
type StepResult struct {
	StepID       string  // Step this result belongs to
	Success      bool    // Whether the attempt succeeded
	Output       string  // Captured output text
	DurationMs   uint64  // Wall-clock time of the attempt
	ErrorMessage *string // Optional error message for failed attempts
}

// NewStepResult builds a StepResult, deriving DurationMs from d.
// An empty errMsg leaves ErrorMessage nil.
func NewStepResult(stepID string, success bool, output string, d time.Duration, errMsg string) StepResult {
	result := StepResult{
		StepID:     stepID,
		Success:    success,
		Output:     output,
		DurationMs: uint64(d.Milliseconds()),
	}
	if errMsg != "" {
		result.ErrorMessage = &errMsg
	}
	return result
}

// Error returns the error message, or "" if none was captured.
func (r StepResult) Error() string {
	if r.ErrorMessage == nil {
		return ""
	}
	return *r.ErrorMessage
}

// Duration returns DurationMs as a time.Duration.
func (r StepResult) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}
