package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CodedAgent/codeagent/internal/models"
	"github.com/CodedAgent/codeagent/internal/planner"
)

func newTestFileLogger(t *testing.T, level string) (*FileLogger, string) {
	t.Helper()
	logDir := filepath.Join(t.TempDir(), "logs")
	fl, err := NewFileLoggerWithDirAndLevel(logDir, level, "run-abc")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}
	t.Cleanup(func() { fl.Close() })
	return fl, logDir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// TestFileLoggerLayout verifies the directory layout and latest.log symlink.
func TestFileLoggerLayout(t *testing.T) {
	fl, logDir := newTestFileLogger(t, "info")

	if info, err := os.Stat(filepath.Join(logDir, "steps")); err != nil || !info.IsDir() {
		t.Errorf("steps directory missing: %v", err)
	}

	base := filepath.Base(fl.RunFile())
	if !strings.HasPrefix(base, "run-") || !strings.HasSuffix(base, ".log") {
		t.Errorf("unexpected run file name %q", base)
	}

	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	if err != nil {
		t.Fatalf("latest.log is not a symlink: %v", err)
	}
	if target != base {
		t.Errorf("latest.log -> %q, want %q", target, base)
	}

	header := readFile(t, fl.RunFile())
	if !strings.Contains(header, "=== codeagent Run Log ===") || !strings.Contains(header, "Run ID: run-abc") {
		t.Errorf("unexpected header:\n%s", header)
	}
}

func TestFileLoggerReplacesLatestSymlink(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("run-old.log", filepath.Join(logDir, "latest.log")); err != nil {
		t.Fatal(err)
	}

	fl, err := NewFileLoggerWithDirAndLevel(logDir, "info", "")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}
	defer fl.Close()

	target, _ := os.Readlink(filepath.Join(logDir, "latest.log"))
	if target != filepath.Base(fl.RunFile()) {
		t.Errorf("latest.log -> %q, want new run file", target)
	}
}

func TestFileLoggerRunLogEvents(t *testing.T) {
	fl, _ := newTestFileLogger(t, "debug")

	plan := planner.Decompose("refactor and lint")
	fl.LogPlan(plan)
	fl.LogStepStart(plan.Steps[1], 0)
	fl.LogStepResult(models.StepResult{StepID: "modify_1", Success: true, DurationMs: 42}, 0)
	fl.LogSuggestions("lint_3", []models.FixSuggestion{{ErrorPattern: "unused_code", SuggestedFix: "Remove it", Confidence: 0.9}})
	fl.LogRetryDecision("lint_3", 0, models.RetryStrategy{RetryRecommended: true, SuggestedDelayMs: 100})
	fl.LogWarn("careful")
	fl.LogSummary(models.RunSummary{TotalSteps: 3, Completed: 3, Succeeded: 3, Attempts: 3})

	out := readFile(t, fl.RunFile())
	for _, want := range []string{
		"Plan: 3 steps, complexity Moderate",
		"modify_1 action=Modify complexity=Moderate deps=analyze_0 rollback=true",
		"lint_3 action=LintCheck complexity=Simple deps=modify_1 rollback=false",
		"Step modify_1 attempt 1 started: Apply code modifications",
		"Step modify_1 attempt 1: SUCCESS (42ms)",
		"lint_3 suggestion [90%] unused_code: Remove it",
		"Step lint_3 attempt 1 strategy: retry=true auto_fix=false escalate=false delay=100ms",
		"[WARN] careful",
		"=== RUN SUMMARY ===",
		"Status:       SUCCESS",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("run log missing %q:\n%s", want, out)
		}
	}
}

func TestFileLoggerStepLogAccumulatesAttempts(t *testing.T) {
	fl, _ := newTestFileLogger(t, "info")

	fl.LogStepResult(models.StepResult{StepID: "test_2", Output: "FAIL: TestX", ErrorMessage: strPtr("exit status 1")}, 0)
	fl.LogStepResult(models.StepResult{StepID: "test_2", Success: true, Output: "ok"}, 1)

	out := readFile(t, fl.StepLogPath("test_2"))
	for _, want := range []string{
		"=== Step test_2: attempt 1 ===",
		"Status: FAILED",
		"FAIL: TestX",
		"Error:\nexit status 1",
		"=== Step test_2: attempt 2 ===",
		"Status: SUCCESS",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("step log missing %q:\n%s", want, out)
		}
	}
}

func TestFileLoggerLevelFiltering(t *testing.T) {
	fl, _ := newTestFileLogger(t, "warn")

	fl.LogInfo("hidden-info")
	fl.LogDebug("hidden-debug")
	fl.LogPlan(planner.Decompose(""))
	fl.LogError("visible-error")

	out := readFile(t, fl.RunFile())
	if strings.Contains(out, "hidden-") || strings.Contains(out, "Plan:") {
		t.Errorf("below-level events written:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] visible-error") {
		t.Errorf("error not written:\n%s", out)
	}
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	fl, _ := newTestFileLogger(t, "info")

	if err := fl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	// Writes after close are dropped.
	fl.LogInfo("after close")
}
