package executor

import (
	"github.com/CodedAgent/codeagent/internal/models"
	"github.com/CodedAgent/codeagent/internal/parser"
)

// FailureExtractor turns a failed step result into the test and lint
// failures the correlator works on.
type FailureExtractor interface {
	Extract(step models.ExecutionStep, result models.StepResult) ([]models.TestResult, []models.LintResult)
}

// ParserExtractor dispatches on the step action: TestRun output goes through
// the test parsers, LintCheck output through the lint parsers. Anything the
// parsers cannot attribute becomes one synthetic failed test carrying the
// step's error message.
type ParserExtractor struct {
	TestFormat string
	LintFormat string
}

// NewParserExtractor creates a ParserExtractor for the given parser formats.
func NewParserExtractor(testFormat, lintFormat string) *ParserExtractor {
	return &ParserExtractor{TestFormat: testFormat, LintFormat: lintFormat}
}

// Extract implements FailureExtractor.
func (e *ParserExtractor) Extract(step models.ExecutionStep, result models.StepResult) ([]models.TestResult, []models.LintResult) {
	if result.Success {
		return nil, nil
	}

	switch step.Action {
	case models.ActionTestRun:
		tests, err := parser.ParseTestOutput(e.TestFormat, result.Output)
		if err == nil && hasFailedTest(tests) {
			return tests, nil
		}
	case models.ActionLintCheck:
		lints, err := parser.ParseLintOutput(e.LintFormat, result.Output)
		if err == nil && len(lints) > 0 {
			return nil, lints
		}
	}

	return []models.TestResult{syntheticFailure(step, result)}, nil
}

func hasFailedTest(tests []models.TestResult) bool {
	for _, t := range tests {
		if t.Status == models.TestFailed {
			return true
		}
	}
	return false
}

func syntheticFailure(step models.ExecutionStep, result models.StepResult) models.TestResult {
	msg := result.Error()
	if msg == "" {
		msg = firstLine(result.Output)
	}
	test := models.TestResult{
		Name:      step.ID,
		Status:    models.TestFailed,
		Framework: step.Action.String(),
	}
	if msg != "" {
		test.ErrorMessage = &msg
	}
	if len(step.TargetFiles) > 0 {
		test.File = step.TargetFiles[0]
	}
	return test
}
