package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/CodedAgent/codeagent/internal/models"
)

// colorScheme defines consistent colors for suggestion and strategy output.
// Green: high confidence / go-ahead
// Red: escalation
// Yellow: low confidence / waiting
// Cyan: labels and locations
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
}

func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
	}
}

// highConfidence mirrors the retry policy's strict > 0.8 threshold.
const highConfidence = 0.8

// formatSuggestion renders one suggestion.
// Format: "[85%] unused_code @ main.go:12: Remove the unused variable (auto)"
func formatSuggestion(s models.FixSuggestion, useColor bool) string {
	conf := fmt.Sprintf("[%d%%]", int(s.Confidence*100+0.5))
	pattern := s.ErrorPattern
	loc := s.Location()

	if useColor {
		scheme := newColorScheme()
		if s.Confidence > highConfidence {
			conf = scheme.success.Sprint(conf)
		} else {
			conf = scheme.warn.Sprint(conf)
		}
		if loc != "" {
			loc = scheme.label.Sprint(loc)
		}
	}

	var sb strings.Builder
	sb.WriteString(conf)
	sb.WriteString(" ")
	sb.WriteString(pattern)
	if loc != "" {
		sb.WriteString(" @ ")
		sb.WriteString(loc)
	}
	sb.WriteString(": ")
	sb.WriteString(s.SuggestedFix)
	if s.AutoFixable {
		sb.WriteString(" (auto)")
	}
	return sb.String()
}

// formatStrategy renders the actions a RetryStrategy asks for, comma separated.
// Format: "retry in 200ms, auto-fix, escalate" or "give up, escalate"
func formatStrategy(s models.RetryStrategy, useColor bool) string {
	scheme := newColorScheme()
	paint := func(c *color.Color, text string) string {
		if useColor {
			return c.Sprint(text)
		}
		return text
	}

	var parts []string
	if s.RetryRecommended {
		parts = append(parts, paint(scheme.warn, fmt.Sprintf("retry in %s", formatDuration(s.Delay()))))
	} else {
		parts = append(parts, "no retry")
	}
	if s.ApplyAutoFixes {
		parts = append(parts, paint(scheme.success, "auto-fix"))
	}
	if s.EscalateToUser {
		parts = append(parts, paint(scheme.fail, "escalate"))
	}
	return strings.Join(parts, ", ")
}
