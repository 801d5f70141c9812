package models

import (
	"strings"
	"testing"
	"time"
)

func TestActionTypeString(t *testing.T) {
	tests := []struct {
		action ActionType
		want   string
	}{
		{ActionAnalyze, "Analyze"},
		{ActionModify, "Modify"},
		{ActionTestRun, "TestRun"},
		{ActionLintCheck, "LintCheck"},
		{ActionCommit, "Commit"},
		{ActionRollback, "Rollback"},
		{ActionType(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.action.String(); got != tt.want {
			t.Errorf("ActionType(%d).String() = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestParseActionType(t *testing.T) {
	for a := ActionAnalyze; a <= ActionRollback; a++ {
		got, ok := ParseActionType(a.String())
		if !ok || got != a {
			t.Errorf("ParseActionType(%q) = %v, %v; want %v, true", a.String(), got, ok, a)
		}
	}

	for _, name := range []string{"", "Unknown", "analyze", "Deploy"} {
		if _, ok := ParseActionType(name); ok {
			t.Errorf("ParseActionType(%q) should fail", name)
		}
	}
}

func TestComplexityOrdering(t *testing.T) {
	if !(ComplexitySimple < ComplexityModerate && ComplexityModerate < ComplexityComplex && ComplexityComplex < ComplexityVeryComplex) {
		t.Error("complexity values must compare by rank")
	}

	steps := []ExecutionStep{
		{ID: "a", Complexity: ComplexityModerate},
		{ID: "b", Complexity: ComplexitySimple},
		{ID: "c", Complexity: ComplexityComplex},
	}
	if got := MaxComplexity(steps); got != ComplexityComplex {
		t.Errorf("MaxComplexity() = %v, want Complex", got)
	}
	if got := MaxComplexity(nil); got != ComplexitySimple {
		t.Errorf("MaxComplexity(nil) = %v, want Simple", got)
	}
}

func TestExecutionPlan_CyclicSteps(t *testing.T) {
	tests := []struct {
		name  string
		steps []ExecutionStep
		want  []string
	}{
		{"empty", nil, nil},
		{
			"linear chain",
			[]ExecutionStep{{ID: "a"}, {ID: "b", Dependencies: []string{"a"}}, {ID: "c", Dependencies: []string{"b"}}},
			nil,
		},
		{
			"self dependency",
			[]ExecutionStep{{ID: "a", Dependencies: []string{"a"}}},
			[]string{"a"},
		},
		{
			"two step cycle with a dependent",
			[]ExecutionStep{
				{ID: "root"},
				{ID: "b", Dependencies: []string{"a", "root"}},
				{ID: "a", Dependencies: []string{"b"}},
				{ID: "c", Dependencies: []string{"a"}},
			},
			[]string{"a", "b", "c"},
		},
		{
			"diamond is not a cycle",
			[]ExecutionStep{
				{ID: "a"},
				{ID: "b", Dependencies: []string{"a"}},
				{ID: "c", Dependencies: []string{"a"}},
				{ID: "d", Dependencies: []string{"b", "c"}},
			},
			nil,
		},
		{
			"missing dependency is not a cycle",
			[]ExecutionStep{{ID: "test_2", Dependencies: []string{"modify_1"}}},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := ExecutionPlan{Steps: tt.steps}
			got := plan.CyclicSteps()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("CyclicSteps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecutionPlan_MissingDependencies(t *testing.T) {
	plan := ExecutionPlan{Steps: []ExecutionStep{
		{ID: "analyze_0"},
		{ID: "test_2", Dependencies: []string{"modify_1"}},
		{ID: "lint_3", Dependencies: []string{"analyze_0", "modify_1"}},
	}}

	missing := plan.MissingDependencies()
	if len(missing) != 2 {
		t.Fatalf("MissingDependencies() = %v, want 2 entries", missing)
	}
	if got := missing["test_2"]; len(got) != 1 || got[0] != "modify_1" {
		t.Errorf("test_2 missing = %v", got)
	}
	if got := missing["lint_3"]; len(got) != 1 || got[0] != "modify_1" {
		t.Errorf("lint_3 missing = %v", got)
	}
	if len(plan.Steps[1].Dependencies) != 1 {
		t.Error("MissingDependencies must not modify the plan")
	}

	if step, ok := plan.Step("lint_3"); !ok || step.Dependencies[0] != "analyze_0" {
		t.Error("Step(lint_3) should be found and depend on analyze_0")
	}
	if _, ok := plan.Step("modify_1"); ok {
		t.Error("Step(modify_1) should not be found")
	}
}

func TestStepResult(t *testing.T) {
	ok := NewStepResult("a", true, "out", 1500*time.Millisecond, "")
	if ok.ErrorMessage != nil || ok.Error() != "" {
		t.Errorf("successful result should carry no error, got %q", ok.Error())
	}
	if ok.DurationMs != 1500 || ok.Duration() != 1500*time.Millisecond {
		t.Errorf("duration = %d ms, want 1500", ok.DurationMs)
	}

	failed := NewStepResult("b", false, "", 0, "boom")
	if failed.Error() != "boom" {
		t.Errorf("Error() = %q, want boom", failed.Error())
	}
}

func TestNewAttemptRecord(t *testing.T) {
	step := ExecutionStep{ID: "test_2", Action: ActionTestRun}
	result := NewStepResult("test_2", false, "FAIL", 20*time.Millisecond, "exit 1")

	record := NewAttemptRecord("run-1", step, 2, result)
	if record.RunID != "run-1" || record.StepID != "test_2" || record.Action != ActionTestRun {
		t.Errorf("unexpected identity fields: %+v", record)
	}
	if record.Attempt != 2 || record.Success || record.ErrorMessage != "exit 1" || record.DurationMs != 20 {
		t.Errorf("unexpected result fields: %+v", record)
	}
	if record.Strategy != nil || record.Suggestions != nil {
		t.Error("suggestions and strategy are filled in by the caller")
	}
	if record.RecordedAt.IsZero() {
		t.Error("RecordedAt should be set")
	}
}

func TestRunSummaryStatus(t *testing.T) {
	tests := []struct {
		name    string
		summary RunSummary
		want    string
	}{
		{"all succeeded", RunSummary{Succeeded: 3}, "SUCCESS"},
		{"empty run", RunSummary{}, "SUCCESS"},
		{"all failed", RunSummary{Failed: 2}, "FAILED"},
		{"mixed", RunSummary{Succeeded: 1, Failed: 1}, "PARTIAL"},
		{"aborted wins", RunSummary{Succeeded: 3, Aborted: true}, "ABORTED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.summary.Status(); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizeTests(t *testing.T) {
	results := []TestResult{
		{Name: "a", Status: TestPassed},
		{Name: "b", Status: TestFailed},
		{Name: "c", Status: TestSkipped},
		{Name: "d", Status: TestPassed},
	}

	s := SummarizeTests(results)
	if s.Total != 4 || s.Passed != 2 || s.Failed != 1 || s.Skipped != 1 {
		t.Errorf("SummarizeTests() = %+v", s)
	}
	if s.SuccessRate != 50.0 {
		t.Errorf("SuccessRate = %v, want 50", s.SuccessRate)
	}

	if empty := SummarizeTests(nil); empty.SuccessRate != 100.0 {
		t.Errorf("empty SuccessRate = %v, want 100", empty.SuccessRate)
	}

	failed := FailedTests(results)
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Errorf("FailedTests() = %+v", failed)
	}
}

func TestSummarizeLint(t *testing.T) {
	results := []LintResult{
		{File: "a.go", Rule: "unused", Severity: SeverityWarning},
		{File: "a.go", Rule: "style", Severity: SeverityError},
		{File: "b.go", Rule: "unused", Severity: SeverityInfo},
	}

	s := SummarizeLint(results)
	if s.TotalIssues != 3 {
		t.Errorf("TotalIssues = %d, want 3", s.TotalIssues)
	}
	if s.ByRule["unused"] != 2 || s.ByFile["a.go"] != 2 || s.BySeverity["error"] != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}

	if got := FilterBySeverity(results, SeverityWarning); len(got) != 2 {
		t.Errorf("FilterBySeverity(Warning) returned %d results, want 2", len(got))
	}
}

func TestParseLintSeverity(t *testing.T) {
	for s := SeverityInfo; s <= SeverityCritical; s++ {
		got, ok := ParseLintSeverity(s.String())
		if !ok || got != s {
			t.Errorf("ParseLintSeverity(%q) = %v, %v", s.String(), got, ok)
		}
	}
	if _, ok := ParseLintSeverity("fatal"); ok {
		t.Error("ParseLintSeverity(fatal) should fail")
	}
}

func TestFixSuggestionLocation(t *testing.T) {
	file := "main.go"
	line := 42

	tests := []struct {
		name string
		s    FixSuggestion
		want string
	}{
		{"none", FixSuggestion{}, ""},
		{"file only", FixSuggestion{File: &file}, "main.go"},
		{"file and line", FixSuggestion{File: &file, Line: &line}, "main.go:42"},
		{"line without file", FixSuggestion{Line: &line}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Location(); got != tt.want {
				t.Errorf("Location() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRetryStrategyDelay(t *testing.T) {
	s := RetryStrategy{SuggestedDelayMs: 250}
	if got := s.Delay(); got != 250*time.Millisecond {
		t.Errorf("Delay() = %v, want 250ms", got)
	}
}
