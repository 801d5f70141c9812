package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/CodedAgent/codeagent/internal/models"
	"github.com/CodedAgent/codeagent/internal/recovery"
)

// RenderSuggestions prints suggestions in the order given, one per line.
func RenderSuggestions(w io.Writer, suggestions []models.FixSuggestion, useColor bool) {
	p := newPalette(useColor)

	if len(suggestions) == 0 {
		fmt.Fprintln(w, p.paint(p.muted, "No fix suggestions."))
		return
	}

	fmt.Fprintln(w, p.paint(p.heading, fmt.Sprintf("Fix suggestions (%d)", len(suggestions))))
	for i, s := range suggestions {
		conf := fmt.Sprintf("%3d%%", int(s.Confidence*100+0.5))
		if s.Confidence > recovery.HighConfidenceThreshold {
			conf = p.paint(p.ok, conf)
		} else {
			conf = p.paint(p.warn, conf)
		}

		line := fmt.Sprintf("  %d. %s  %s", i+1, conf, s.ErrorPattern)
		if loc := s.Location(); loc != "" {
			line += " " + p.paint(p.muted, "("+loc+")")
		}
		if s.AutoFixable {
			line += " [auto-fixable]"
		}
		fmt.Fprintln(w, line)
		fmt.Fprintf(w, "     %s\n", s.SuggestedFix)
	}
}

// RenderStrategy prints the retry decision for attempt (0-based).
func RenderStrategy(w io.Writer, strategy models.RetryStrategy, attempt int, useColor bool) {
	p := newPalette(useColor)

	fmt.Fprintln(w, p.paint(p.heading, fmt.Sprintf("Retry strategy after attempt %d", attempt+1)))
	fmt.Fprintf(w, "  Retry:       %s\n", yesNo(p, strategy.RetryRecommended, p.ok))
	fmt.Fprintf(w, "  Auto-fix:    %s\n", yesNo(p, strategy.ApplyAutoFixes, p.ok))
	fmt.Fprintf(w, "  Escalate:    %s\n", yesNo(p, strategy.EscalateToUser, p.fail))
	fmt.Fprintf(w, "  Delay:       %s\n", strategy.Delay().Round(time.Millisecond))
}

// RenderTestSummary prints pass/fail counts for parsed test results.
func RenderTestSummary(w io.Writer, summary models.TestSummary, useColor bool) {
	p := newPalette(useColor)

	parts := []string{fmt.Sprintf("%d total", summary.Total)}
	parts = append(parts, p.paint(p.ok, fmt.Sprintf("%d passed", summary.Passed)))
	failed := fmt.Sprintf("%d failed", summary.Failed)
	if summary.Failed > 0 {
		failed = p.paint(p.fail, failed)
	}
	parts = append(parts, failed)
	if summary.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", summary.Skipped))
	}
	fmt.Fprintf(w, "Tests: %s (%.1f%%)\n", strings.Join(parts, ", "), summary.SuccessRate)
}

func yesNo(p palette, v bool, on *color.Color) string {
	if !v {
		return "no"
	}
	return p.paint(on, "yes")
}
