// Package recovery converts test and lint failures into ranked fix
// suggestions and decides how to react to a failed step.
//
// Everything here is a pure function over values; there is no shared state.
package recovery

import (
	"sort"
	"strings"

	"github.com/CodedAgent/codeagent/internal/models"
)

// Pattern tags produced by the correlator.
const (
	PatternAssertion      = "assertion_error"
	PatternUndefined      = "undefined_reference"
	PatternTypeMismatch   = "type_mismatch"
	PatternUnusedCode     = "unused_code"
	PatternStyleViolation = "style_violation"
)

// failureRule maps keywords in a message (or rule name) to a suggestion.
type failureRule struct {
	keywords    []string
	pattern     string
	fix         string
	confidence  float64
	autoFixable bool
}

func (r failureRule) matches(lower string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// testRules are evaluated in order; the first match wins.
var testRules = []failureRule{
	{
		keywords:   []string{"assertion", "assert"},
		pattern:    PatternAssertion,
		fix:        "Check the assertion logic and ensure all preconditions are met",
		confidence: 0.7,
	},
	{
		keywords:   []string{"undefined", "not found"},
		pattern:    PatternUndefined,
		fix:        "Ensure all required modules/functions are imported or defined",
		confidence: 0.8,
	},
	{
		keywords:   []string{"type", "mismatch"},
		pattern:    PatternTypeMismatch,
		fix:        "Check type conversions and ensure compatible types are used",
		confidence: 0.75,
	},
}

// lintRules apply to the rule name when the linter carried no suggestion.
var lintRules = []failureRule{
	{
		keywords:    []string{"unused"},
		pattern:     PatternUnusedCode,
		fix:         "Remove the unused variable or import",
		confidence:  0.9,
		autoFixable: true,
	},
	{
		keywords:    []string{"style", "format"},
		pattern:     PatternStyleViolation,
		fix:         "Reformat the code according to the style guide",
		confidence:  0.8,
		autoFixable: true,
	},
}

// Confidence assigned when a linter supplied its own fix text.
const lintSuggestionConfidence = 0.85

// CommonPatternKeywords are counted by ExtractCommonPatterns.
var CommonPatternKeywords = []string{"assertion", "undefined", "type", "timeout", "null", "panic"}

// AnalyzeTestFailure suggests a fix for a test carrying an error message.
// It returns nil when there is no message or no rule matches.
func AnalyzeTestFailure(test models.TestResult) *models.FixSuggestion {
	if test.ErrorMessage == nil {
		return nil
	}
	lower := strings.ToLower(*test.ErrorMessage)

	for _, r := range testRules {
		if r.matches(lower) {
			file := test.File
			return &models.FixSuggestion{
				ErrorPattern: r.pattern,
				SuggestedFix: r.fix,
				Confidence:   r.confidence,
				File:         &file,
				Line:         copyInt(test.Line),
				AutoFixable:  r.autoFixable,
			}
		}
	}
	return nil
}

// AnalyzeLintIssue suggests a fix for a lint finding. A suggestion carried
// by the linter is passed through verbatim; otherwise the rule name is
// inspected.
func AnalyzeLintIssue(lint models.LintResult) *models.FixSuggestion {
	file := lint.File
	line := lint.Line

	if lint.Suggestion != nil {
		return &models.FixSuggestion{
			ErrorPattern: lint.Rule,
			SuggestedFix: *lint.Suggestion,
			Confidence:   lintSuggestionConfidence,
			File:         &file,
			Line:         &line,
			AutoFixable:  true,
		}
	}

	lower := strings.ToLower(lint.Rule)
	for _, r := range lintRules {
		if r.matches(lower) {
			return &models.FixSuggestion{
				ErrorPattern: r.pattern,
				SuggestedFix: r.fix,
				Confidence:   r.confidence,
				File:         &file,
				Line:         &line,
				AutoFixable:  r.autoFixable,
			}
		}
	}
	return nil
}

// CorrelateErrors analyzes every failed test and every lint issue and
// returns the suggestions ordered by descending confidence. Ties keep
// input order, tests before lint issues.
func CorrelateErrors(tests []models.TestResult, lints []models.LintResult) []models.FixSuggestion {
	suggestions := make([]models.FixSuggestion, 0, len(tests)+len(lints))

	for _, test := range tests {
		if test.Status != models.TestFailed {
			continue
		}
		if s := AnalyzeTestFailure(test); s != nil {
			suggestions = append(suggestions, *s)
		}
	}

	for _, lint := range lints {
		if s := AnalyzeLintIssue(lint); s != nil {
			suggestions = append(suggestions, *s)
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	return suggestions
}

// ExtractCommonPatterns counts, per keyword, how many failure messages
// contain it. One message may count towards several keywords. Keywords
// that never occur are absent from the map.
func ExtractCommonPatterns(failures []models.TestResult) map[string]int {
	patterns := make(map[string]int)

	for _, failure := range failures {
		if failure.ErrorMessage == nil {
			continue
		}
		lower := strings.ToLower(*failure.ErrorMessage)
		for _, kw := range CommonPatternKeywords {
			if strings.Contains(lower, kw) {
				patterns[kw]++
			}
		}
	}

	return patterns
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
