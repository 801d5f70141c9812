package models

// TestStatus is the outcome of a single test case.
type TestStatus int

const (
	TestPassed TestStatus = iota
	TestFailed
	TestSkipped
	TestPending
)

// String returns the string representation of TestStatus
func (s TestStatus) String() string {
	switch s {
	case TestPassed:
		return "passed"
	case TestFailed:
		return "failed"
	case TestSkipped:
		return "skipped"
	case TestPending:
		return "pending"
	default:
		return "unknown"
	}
}

// TestResult is one test case parsed from test runner output.
type TestResult struct {
	Name         string
	Status       TestStatus
	DurationMs   uint64
	ErrorMessage *string
	StackTrace   *string
	Framework    string // e.g. "Go", "Cargo", "Pytest", "Jest"
	File         string
	Line         *int
}

// LintSeverity orders lint findings: Info < Warning < Error < Critical.
type LintSeverity int

const (
	SeverityInfo LintSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns the string representation of LintSeverity
func (s LintSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseLintSeverity returns the severity named by String.
func ParseLintSeverity(name string) (LintSeverity, bool) {
	for s := SeverityInfo; s <= SeverityCritical; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// LintResult is one finding parsed from linter output.
type LintResult struct {
	File       string
	Line       int
	Column     int
	Severity   LintSeverity
	Rule       string
	Message    string
	Suggestion *string // Fix text reported by the linter, if any
	Tool       string  // e.g. "ESLint", "Pylint", "Clippy"
}

// TestSummary aggregates a batch of test results.
type TestSummary struct {
	Total       int
	Passed      int
	Failed      int
	Skipped     int
	SuccessRate float64 // Percentage; 100 for an empty batch
}

// SummarizeTests counts results by status.
func SummarizeTests(results []TestResult) TestSummary {
	summary := TestSummary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case TestPassed:
			summary.Passed++
		case TestFailed:
			summary.Failed++
		case TestSkipped:
			summary.Skipped++
		}
	}

	if summary.Total == 0 {
		summary.SuccessRate = 100.0
	} else {
		summary.SuccessRate = float64(summary.Passed) / float64(summary.Total) * 100.0
	}
	return summary
}

// FailedTests returns only the failed results, preserving order.
func FailedTests(results []TestResult) []TestResult {
	var failed []TestResult
	for _, r := range results {
		if r.Status == TestFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

// LintSummary aggregates a batch of lint findings.
type LintSummary struct {
	TotalIssues int
	BySeverity  map[string]int
	ByRule      map[string]int
	ByFile      map[string]int
}

// SummarizeLint counts findings by severity, rule and file.
func SummarizeLint(results []LintResult) LintSummary {
	summary := LintSummary{
		TotalIssues: len(results),
		BySeverity:  make(map[string]int),
		ByRule:      make(map[string]int),
		ByFile:      make(map[string]int),
	}
	for _, r := range results {
		summary.BySeverity[r.Severity.String()]++
		summary.ByRule[r.Rule]++
		summary.ByFile[r.File]++
	}
	return summary
}

// FilterBySeverity keeps findings at or above min.
func FilterBySeverity(results []LintResult, min LintSeverity) []LintResult {
	var filtered []LintResult
	for _, r := range results {
		if r.Severity >= min {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
