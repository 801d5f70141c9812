package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/CodedAgent/codeagent/internal/models"
)

var (
	// Single-line form: "src/app.js 3:10 error msg rule"
	eslintInlineRe = regexp.MustCompile(`^([\w/\-.]+\.\w+)\s+(\d+):(\d+)\s+(error|warning|info)\s+(.+?)\s+([\w/@\-]+)\s*$`)
	// Stylish entry under a file header: "  3:10  error  msg  rule"
	eslintEntryRe = regexp.MustCompile(`^\s+(\d+):(\d+)\s+(error|warning|info)\s+(.+?)\s{2,}([\w/@\-]+)\s*$`)
	eslintFileRe  = regexp.MustCompile(`^(\S.*\.\w+)\s*$`)
)

// ParseESLint parses ESLint's stylish output (a file header followed by
// indented entries) as well as one-finding-per-line output.
func ParseESLint(output string) []models.LintResult {
	var results []models.LintResult
	file := ""

	for _, line := range splitLines(output) {
		if m := eslintInlineRe.FindStringSubmatch(line); m != nil {
			results = append(results, models.LintResult{
				File:     m[1],
				Line:     atoi(m[2]),
				Column:   atoi(m[3]),
				Severity: eslintSeverity(m[4]),
				Message:  m[5],
				Rule:     m[6],
				Tool:     "ESLint",
			})
			continue
		}
		if m := eslintEntryRe.FindStringSubmatch(line); m != nil && file != "" {
			results = append(results, models.LintResult{
				File:     file,
				Line:     atoi(m[1]),
				Column:   atoi(m[2]),
				Severity: eslintSeverity(m[3]),
				Message:  m[4],
				Rule:     m[5],
				Tool:     "ESLint",
			})
			continue
		}
		if m := eslintFileRe.FindStringSubmatch(line); m != nil {
			file = m[1]
		}
	}

	return results
}

func eslintSeverity(s string) models.LintSeverity {
	switch s {
	case "error":
		return models.SeverityError
	case "info":
		return models.SeverityInfo
	default:
		return models.SeverityWarning
	}
}

// "app/models.py:10:4: W0611: Unused import os (unused-import)"
var pylintRe = regexp.MustCompile(`^([\w/\-.]+):(\d+):(\d+):\s+([CRWEFI])(\d{4}):\s+(.+?)\s+\(([\w\-]+)\)\s*$`)

// ParsePylint parses pylint's default text output. The symbolic name in
// parentheses is used as the rule.
func ParsePylint(output string) []models.LintResult {
	var results []models.LintResult

	for _, line := range splitLines(output) {
		m := pylintRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		results = append(results, models.LintResult{
			File:     m[1],
			Line:     atoi(m[2]),
			Column:   atoi(m[3]),
			Severity: pylintSeverity(m[4]),
			Message:  m[6],
			Rule:     m[7],
			Tool:     "Pylint",
		})
	}

	return results
}

// pylintSeverity maps message categories: Fatal, Error, Warning, and
// Convention/Refactor/Information.
func pylintSeverity(category string) models.LintSeverity {
	switch category {
	case "F":
		return models.SeverityCritical
	case "E":
		return models.SeverityError
	case "W":
		return models.SeverityWarning
	default:
		return models.SeverityInfo
	}
}

var (
	// --message-format=short: "src/main.rs:2:9: warning: unused variable: `x`"
	clippyShortRe = regexp.MustCompile(`^([\w/\-.]+\.rs):(\d+):(\d+): (error|warning|note)(?:\[([\w:]+)\])?: (.+)$`)
	clippyHeadRe  = regexp.MustCompile(`^(error|warning)(?:\[([\w:]+)\])?: (.+)$`)
	clippyLocRe   = regexp.MustCompile(`^\s*--> ([^:]+):(\d+):(\d+)`)
	clippyNoteRe  = regexp.MustCompile("= note: `#\\[(?:warn|deny|forbid)\\(([\\w:]+)\\)\\]`")
	clippyHelpRe  = regexp.MustCompile(`^help: (.+)$`)
)

// ParseClippy parses cargo clippy output in either the short or the
// default human format. In the human format a finding is only emitted once
// its "-->" location is seen, which skips "generated N warnings" trailers;
// the rule comes from the "[code]" tag or the "#[warn(lint)]" note and the
// first "help:" line becomes the suggestion.
func ParseClippy(output string) []models.LintResult {
	var results []models.LintResult
	var pending *models.LintResult
	current := -1

	for _, line := range splitLines(output) {
		if m := clippyShortRe.FindStringSubmatch(line); m != nil {
			results = append(results, models.LintResult{
				File:     m[1],
				Line:     atoi(m[2]),
				Column:   atoi(m[3]),
				Severity: clippySeverity(m[4]),
				Rule:     m[5],
				Message:  m[6],
				Tool:     "Clippy",
			})
			pending, current = nil, -1
			continue
		}
		if m := clippyHeadRe.FindStringSubmatch(line); m != nil {
			pending = &models.LintResult{
				Severity: clippySeverity(m[1]),
				Rule:     m[2],
				Message:  m[3],
				Tool:     "Clippy",
			}
			current = -1
			continue
		}
		if m := clippyLocRe.FindStringSubmatch(line); m != nil && pending != nil {
			pending.File = m[1]
			pending.Line = atoi(m[2])
			pending.Column = atoi(m[3])
			results = append(results, *pending)
			current = len(results) - 1
			pending = nil
			continue
		}
		if current < 0 {
			continue
		}
		if m := clippyNoteRe.FindStringSubmatch(line); m != nil && results[current].Rule == "" {
			results[current].Rule = m[1]
			continue
		}
		if m := clippyHelpRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil && results[current].Suggestion == nil {
			help := m[1]
			results[current].Suggestion = &help
		}
	}

	return results
}

func clippySeverity(s string) models.LintSeverity {
	switch s {
	case "error":
		return models.SeverityError
	case "note":
		return models.SeverityInfo
	default:
		return models.SeverityWarning
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
