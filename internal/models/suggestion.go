package models

import (
	"strconv"
	"time"
)

// FixSuggestion is a ranked candidate fix derived from one test or lint failure.
type FixSuggestion struct {
	ErrorPattern string  // Pattern tag, e.g. "assertion_error" or a lint rule
	SuggestedFix string  // Human-readable fix
	Confidence   float64 // 0.0-1.0
	File         *string // Source file, if known
	Line         *int    // Source line, if known
	AutoFixable  bool    // Whether the fix can be applied without a human
}

// Location formats File and Line as "file:line", "file" or "".
func (s FixSuggestion) Location() string {
	if s.File == nil {
		return ""
	}
	if s.Line == nil {
		return *s.File
	}
	return *s.File + ":" + strconv.Itoa(*s.Line)
}

// RetryStrategy is the decision taken after a failed attempt.
type RetryStrategy struct {
	RetryRecommended bool
	ApplyAutoFixes   bool
	EscalateToUser   bool
	SuggestedDelayMs uint64
}

// Delay returns SuggestedDelayMs as a time.Duration.
func (s RetryStrategy) Delay() time.Duration {
	return time.Duration(s.SuggestedDelayMs) * time.Millisecond
}
