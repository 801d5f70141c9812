package models

import "time"

// RunSummary is the end-of-run statistics shown to the user and logged.
type RunSummary struct {
	RunID       string
	TotalSteps  int
	Completed   int // Steps marked complete, successful or not
	Succeeded   int
	Failed      int
	Attempts    int // Step attempts including retries
	Aborted     bool
	AbortReason string
	RolledBack  bool
	Duration    time.Duration
	FailedSteps []StepResult
}

// Status returns SUCCESS, PARTIAL, FAILED or ABORTED.
func (s RunSummary) Status() string {
	switch {
	case s.Aborted:
		return "ABORTED"
	case s.Failed == 0:
		return "SUCCESS"
	case s.Succeeded == 0:
		return "FAILED"
	default:
		return "PARTIAL"
	}
}
