// Package planner turns a free-text task request into an ExecutionPlan.
//
// Decomposition is keyword driven: the lower-cased prompt is checked against
// a fixed, ordered rule list and every matching rule contributes exactly one
// step. Rules are independent of each other, of keyword position and of how
// many times a keyword occurs.
package planner

import (
	"strings"

	"github.com/CodedAgent/codeagent/internal/models"
)

// Fixed step ids. Dependencies are wired by these literal ids, so a plan
// may reference an id that was never emitted (e.g. "test" without
// "refactor" yields test_2 depending on an absent modify_1).
const (
	AnalyzeStepID = "analyze_0"
	ModifyStepID  = "modify_1"
	TestStepID    = "test_2"
	LintStepID    = "lint_3"
)

// rule appends its step when any keyword occurs in the lower-cased prompt.
// A rule with no keywords always matches.
type rule struct {
	keywords []string
	step     models.ExecutionStep
}

var rules = []rule{
	{
		step: models.ExecutionStep{
			ID:              AnalyzeStepID,
			Description:     "Analyze project structure and context",
			Action:          models.ActionAnalyze,
			Complexity:      models.ComplexitySimple,
			RollbackEnabled: false,
		},
	},
	{
		keywords: []string{"refactor", "replace"},
		step: models.ExecutionStep{
			ID:              ModifyStepID,
			Description:     "Apply code modifications",
			Action:          models.ActionModify,
			Dependencies:    []string{AnalyzeStepID},
			Complexity:      models.ComplexityModerate,
			RollbackEnabled: true,
		},
	},
	{
		keywords: []string{"test", "verify"},
		step: models.ExecutionStep{
			ID:           TestStepID,
			Description:  "Run tests to verify changes",
			Action:       models.ActionTestRun,
			Dependencies: []string{ModifyStepID},
			Complexity:   models.ComplexityModerate,
		},
	},
	{
		keywords: []string{"lint", "quality"},
		step: models.ExecutionStep{
			ID:           LintStepID,
			Description:  "Run linter checks",
			Action:       models.ActionLintCheck,
			Dependencies: []string{ModifyStepID},
			Complexity:   models.ComplexitySimple,
		},
	},
}

func (r rule) matches(prompt string) bool {
	if len(r.keywords) == 0 {
		return true
	}
	for _, kw := range r.keywords {
		if strings.Contains(prompt, kw) {
			return true
		}
	}
	return false
}

// Decompose builds a plan for prompt. It accepts any input: an empty or
// unmatched prompt still yields the single Analyze step.
func Decompose(prompt string) models.ExecutionPlan {
	return BuildPlan(analyzePrompt(prompt))
}

func analyzePrompt(prompt string) []models.ExecutionStep {
	lower := strings.ToLower(prompt)

	steps := make([]models.ExecutionStep, 0, len(rules))
	for _, r := range rules {
		if r.matches(lower) {
			steps = append(steps, cloneStep(r.step))
		}
	}
	return steps
}

// cloneStep copies slice fields so plans never share backing arrays with
// the rule table.
func cloneStep(s models.ExecutionStep) models.ExecutionStep {
	s.TargetFiles = append([]string{}, s.TargetFiles...)
	s.Dependencies = append([]string{}, s.Dependencies...)
	return s
}

// BuildPlan aggregates steps into a plan: total complexity is the maximum
// step complexity, and duration and approval follow from it.
func BuildPlan(steps []models.ExecutionStep) models.ExecutionPlan {
	total := models.MaxComplexity(steps)

	return models.ExecutionPlan{
		Steps:                steps,
		TotalComplexity:      total,
		EstimatedDurationMs:  EstimateDurationMs(total, len(steps)),
		RequiresUserApproval: total >= models.ComplexityComplex,
		RollbackAvailable:    true,
	}
}

// EstimateDurationMs returns base + perStep*n for the given complexity.
func EstimateDurationMs(c models.Complexity, n int) uint64 {
	count := uint64(n)
	switch c {
	case models.ComplexityModerate:
		return 2000 + 1000*count
	case models.ComplexityComplex:
		return 5000 + 2000*count
	case models.ComplexityVeryComplex:
		return 10000 + 5000*count
	default:
		return 1000 + 500*count
	}
}
