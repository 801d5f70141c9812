package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/CodedAgent/codeagent/internal/models"
)

// FileLogger logs run events to files under a log directory.
// It creates a timestamped per-run log, a per-step log for every step that
// was attempted, and keeps a latest.log symlink pointing at the newest run.
// It is thread-safe.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	stepsDir string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to .codeagent/logs/ at info level.
func NewFileLogger(runID string) (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(filepath.Join(".codeagent", "logs"), "info", runID)
}

// NewFileLoggerWithDirAndLevel creates a FileLogger with a custom log
// directory and level. runID is written into the run log header.
func NewFileLoggerWithDirAndLevel(logDir, logLevel, runID string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	stepsDir := filepath.Join(logDir, "steps")
	if err := os.MkdirAll(stepsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create steps directory: %w", err)
	}

	// run-YYYYMMDD-HHMMSS.log
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		stepsDir: stepsDir,
		logLevel: normalizeLogLevel(logLevel),
	}

	fl.writeRunLog("=== codeagent Run Log ===\n")
	if runID != "" {
		fl.writeRunLog(fmt.Sprintf("Run ID: %s\n", runID))
	}
	fl.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// RunFile returns the path of the current run log.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

// StepLogPath returns the per-step log path for stepID.
func (fl *FileLogger) StepLogPath(stepID string) string {
	return filepath.Join(fl.stepsDir, fmt.Sprintf("step-%s.log", stepID))
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogPlan writes every step with its dependencies and complexity.
func (fl *FileLogger) LogPlan(plan models.ExecutionPlan) {
	if !fl.shouldLog("info") {
		return
	}

	ts := timestamp()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] Plan: %d steps, complexity %s, estimated %dms, approval required: %t\n",
		ts, plan.StepCount(), plan.TotalComplexity, plan.EstimatedDurationMs, plan.RequiresUserApproval))
	for _, step := range plan.Steps {
		deps := "-"
		if len(step.Dependencies) > 0 {
			deps = strings.Join(step.Dependencies, ",")
		}
		sb.WriteString(fmt.Sprintf("[%s]   %s action=%s complexity=%s deps=%s rollback=%t\n",
			ts, step.ID, step.Action, step.Complexity, deps, step.RollbackEnabled))
	}
	fl.writeRunLog(sb.String())
}

// LogStepStart records the start of an attempt.
func (fl *FileLogger) LogStepStart(step models.ExecutionStep, attempt int) {
	if !fl.shouldLog("info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Step %s attempt %d started: %s\n",
		timestamp(), step.ID, attempt+1, step.Description))
}

// LogStepResult records the attempt outcome in the run log and appends
// the full output to the step's own log file. Attempts accumulate in the
// step log; the run log keeps a one-line entry each.
func (fl *FileLogger) LogStepResult(result models.StepResult, attempt int) {
	status := "SUCCESS"
	if !result.Success {
		status = "FAILED"
	}

	if fl.shouldLog("info") {
		fl.writeRunLog(fmt.Sprintf("[%s] Step %s attempt %d: %s (%dms)\n",
			timestamp(), result.StepID, attempt+1, status, result.DurationMs))
	}

	var content strings.Builder
	content.WriteString(fmt.Sprintf("=== Step %s: attempt %d ===\n", result.StepID, attempt+1))
	content.WriteString(fmt.Sprintf("Status: %s\n", status))
	content.WriteString(fmt.Sprintf("Duration: %dms\n", result.DurationMs))
	if result.Output != "" {
		content.WriteString(fmt.Sprintf("\nOutput:\n%s\n", strings.TrimRight(result.Output, "\n")))
	}
	if errMsg := result.Error(); errMsg != "" {
		content.WriteString(fmt.Sprintf("\nError:\n%s\n", errMsg))
	}
	content.WriteString(fmt.Sprintf("\nCompleted at: %s\n\n", time.Now().Format(time.RFC3339)))

	if err := fl.appendStepLog(result.StepID, content.String()); err != nil {
		fl.logWithLevel("WARN", err.Error())
	}
}

func (fl *FileLogger) appendStepLog(stepID, content string) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	file, err := os.OpenFile(fl.StepLogPath(stepID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open step log file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(content); err != nil {
		return fmt.Errorf("failed to write step log: %w", err)
	}
	return nil
}

// LogSuggestions writes every suggestion at DEBUG level.
func (fl *FileLogger) LogSuggestions(stepID string, suggestions []models.FixSuggestion) {
	if !fl.shouldLog("debug") {
		return
	}
	ts := timestamp()
	var sb strings.Builder
	for _, s := range suggestions {
		sb.WriteString(fmt.Sprintf("[%s] [DEBUG] %s suggestion %s\n", ts, stepID, formatSuggestion(s, false)))
	}
	fl.writeRunLog(sb.String())
}

// LogRetryDecision records the strategy chosen for a failed attempt.
func (fl *FileLogger) LogRetryDecision(stepID string, attempt int, strategy models.RetryStrategy) {
	if !fl.shouldLog("info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Step %s attempt %d strategy: retry=%t auto_fix=%t escalate=%t delay=%dms\n",
		timestamp(), stepID, attempt+1, strategy.RetryRecommended, strategy.ApplyAutoFixes,
		strategy.EscalateToUser, strategy.SuggestedDelayMs))
}

// LogProgress is a no-op: progress bars are console-only.
func (fl *FileLogger) LogProgress(completed, total int) {}

// LogSummary writes final run statistics.
func (fl *FileLogger) LogSummary(summary models.RunSummary) {
	if !fl.shouldLog("info") {
		return
	}

	ts := timestamp()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n[%s] === RUN SUMMARY ===\n", ts))
	sb.WriteString(fmt.Sprintf("[%s] Total steps:  %d\n", ts, summary.TotalSteps))
	sb.WriteString(fmt.Sprintf("[%s] Completed:    %d\n", ts, summary.Completed))
	sb.WriteString(fmt.Sprintf("[%s] Succeeded:    %d\n", ts, summary.Succeeded))
	sb.WriteString(fmt.Sprintf("[%s] Failed:       %d\n", ts, summary.Failed))
	sb.WriteString(fmt.Sprintf("[%s] Attempts:     %d\n", ts, summary.Attempts))
	sb.WriteString(fmt.Sprintf("[%s] Total time:   %.1fs\n", ts, summary.Duration.Seconds()))
	sb.WriteString(fmt.Sprintf("[%s] Status:       %s\n", ts, summary.Status()))
	if summary.AbortReason != "" {
		sb.WriteString(fmt.Sprintf("[%s] Abort reason: %s\n", ts, summary.AbortReason))
	}
	sb.WriteString(fmt.Sprintf("[%s] Rolled back:  %t\n", ts, summary.RolledBack))
	sb.WriteString(fmt.Sprintf("[%s] Completed at: %s\n", ts, time.Now().Format(time.RFC3339)))
	fl.writeRunLog(sb.String())
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
