// Package logger provides logging implementations for codeagent runs.
//
// Loggers record plan, step, retry and summary events. Implementations are
// thread-safe and write to the console or to per-run log files.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/CodedAgent/codeagent/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY-backed os.Stdout or os.Stderr.
// NO_COLOR disables color regardless.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || (f != os.Stdout && f != os.Stderr) {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	default:
		return "info"
	}
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	if cl.colorOutput {
		level = colorLevel(level)
	}
	cl.write(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

func colorLevel(level string) string {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// write emits s under the mutex.
func (cl *ConsoleLogger) write(s string) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	cl.writer.Write([]byte(s))
}

// enabled reports whether an event at level would be written.
func (cl *ConsoleLogger) enabled(level string) bool {
	return cl.writer != nil && cl.shouldLog(level)
}

// LogPlan logs the plan header and one line per step at INFO level.
// Format: "[HH:MM:SS] Plan: <n> steps, complexity <c>, est. <d>"
func (cl *ConsoleLogger) LogPlan(plan models.ExecutionPlan) {
	if !cl.enabled("info") {
		return
	}

	ts := timestamp()
	est := formatDuration(time.Duration(plan.EstimatedDurationMs) * time.Millisecond)
	header := "Plan:"
	if cl.colorOutput {
		header = color.New(color.Bold).Sprint(header)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s %d steps, complexity %s, est. %s\n",
		ts, header, plan.StepCount(), plan.TotalComplexity, est))
	for i, step := range plan.Steps {
		sb.WriteString(fmt.Sprintf("[%s]   %d. %s (%s)", ts, i+1, step.ID, step.Action))
		if len(step.Dependencies) > 0 {
			sb.WriteString(fmt.Sprintf(" after %s", strings.Join(step.Dependencies, ", ")))
		}
		sb.WriteString("\n")
	}
	cl.write(sb.String())
}

// LogStepStart logs the start of a step attempt at INFO level.
// Format: "[HH:MM:SS] Running <id>: <description>" with " (attempt N)" on retries.
func (cl *ConsoleLogger) LogStepStart(step models.ExecutionStep, attempt int) {
	if !cl.enabled("info") {
		return
	}

	id := step.ID
	if cl.colorOutput {
		id = color.New(color.Bold).Sprint(id)
	}
	msg := fmt.Sprintf("[%s] Running %s: %s", timestamp(), id, step.Description)
	if attempt > 0 {
		msg += fmt.Sprintf(" (attempt %d)", attempt+1)
	}
	cl.write(msg + "\n")
}

// LogStepResult logs the outcome of a step attempt at INFO level.
// Format: "[HH:MM:SS] <id>: OK (<duration>)" or "... FAILED (<duration>): <error>"
func (cl *ConsoleLogger) LogStepResult(result models.StepResult, attempt int) {
	if !cl.enabled("info") {
		return
	}

	status := "OK"
	if !result.Success {
		status = "FAILED"
	}
	if cl.colorOutput {
		if result.Success {
			status = color.New(color.FgGreen).Sprint(status)
		} else {
			status = color.New(color.FgRed).Sprint(status)
		}
	}

	msg := fmt.Sprintf("[%s] %s: %s (%s)", timestamp(), result.StepID, status, formatDuration(result.Duration()))
	if errMsg := result.Error(); errMsg != "" {
		msg += ": " + firstLine(errMsg)
	}
	cl.write(msg + "\n")
}

// LogSuggestions logs ranked fix suggestions at DEBUG level.
func (cl *ConsoleLogger) LogSuggestions(stepID string, suggestions []models.FixSuggestion) {
	if !cl.enabled("debug") || len(suggestions) == 0 {
		return
	}

	ts := timestamp()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s: %d suggestion(s)\n", ts, stepID, len(suggestions)))
	for _, s := range suggestions {
		sb.WriteString(fmt.Sprintf("[%s]   - %s\n", ts, formatSuggestion(s, cl.colorOutput)))
	}
	cl.write(sb.String())
}

// LogRetryDecision logs the strategy chosen after a failed attempt at INFO level.
// Format: "[HH:MM:SS] <id>: retry in 200ms, auto-fix, escalate"
func (cl *ConsoleLogger) LogRetryDecision(stepID string, attempt int, strategy models.RetryStrategy) {
	if !cl.enabled("info") {
		return
	}

	cl.write(fmt.Sprintf("[%s] %s (attempt %d): %s\n",
		timestamp(), stepID, attempt+1, formatStrategy(strategy, cl.colorOutput)))
}

// LogProgress logs plan progress with a progress bar at INFO level.
// Format: "[HH:MM:SS] Progress: [=====     ] 2/4 (50%)"
func (cl *ConsoleLogger) LogProgress(completed, total int) {
	if !cl.enabled("info") {
		return
	}

	pb := NewProgressBar(total, 10, cl.colorOutput)
	pb.Update(completed)
	cl.write(fmt.Sprintf("[%s] Progress: %s\n", timestamp(), pb.Render()))
}

// LogSummary logs the run summary at INFO level.
func (cl *ConsoleLogger) LogSummary(summary models.RunSummary) {
	if !cl.enabled("info") {
		return
	}

	ts := timestamp()
	header := "=== Run Summary ==="
	status := summary.Status()
	failed := fmt.Sprintf("Failed: %d", summary.Failed)
	if cl.colorOutput {
		header = color.New(color.Bold).Sprint(header)
		if status == "SUCCESS" {
			status = color.New(color.FgGreen).Sprint(status)
		} else {
			status = color.New(color.FgRed).Sprint(status)
		}
		if summary.Failed > 0 {
			failed = color.New(color.FgRed).Sprint(failed)
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s\n", ts, header))
	if summary.RunID != "" {
		sb.WriteString(fmt.Sprintf("[%s] Run: %s\n", ts, summary.RunID))
	}
	sb.WriteString(fmt.Sprintf("[%s] Steps: %d/%d\n", ts, summary.Completed, summary.TotalSteps))
	sb.WriteString(fmt.Sprintf("[%s] Succeeded: %d\n", ts, summary.Succeeded))
	sb.WriteString(fmt.Sprintf("[%s] %s\n", ts, failed))
	sb.WriteString(fmt.Sprintf("[%s] Attempts: %d\n", ts, summary.Attempts))
	sb.WriteString(fmt.Sprintf("[%s] Duration: %s\n", ts, formatDuration(summary.Duration)))
	sb.WriteString(fmt.Sprintf("[%s] Status: %s\n", ts, status))
	if summary.Aborted && summary.AbortReason != "" {
		sb.WriteString(fmt.Sprintf("[%s] Aborted: %s\n", ts, firstLine(summary.AbortReason)))
	}
	if summary.RolledBack {
		sb.WriteString(fmt.Sprintf("[%s] Staged changes rolled back\n", ts))
	}
	for _, r := range summary.FailedSteps {
		sb.WriteString(fmt.Sprintf("[%s]   - %s: %s\n", ts, r.StepID, firstLine(r.Error())))
	}
	cl.write(sb.String())
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// formatDuration converts a time.Duration to a human-readable string.
// Sub-second durations are shown in milliseconds.
// Examples: "250ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogInfo(string) {}
func (n *NoOpLogger) LogWarn(string) {}
func (n *NoOpLogger) LogPlan(models.ExecutionPlan) {}
func (n *NoOpLogger) LogStepStart(models.ExecutionStep, int) {}
func (n *NoOpLogger) LogStepResult(models.StepResult, int) {}
func (n *NoOpLogger) LogSuggestions(string, []models.FixSuggestion) {}
func (n *NoOpLogger) LogRetryDecision(string, int, models.RetryStrategy) {}
func (n *NoOpLogger) LogProgress(int, int) {}
func (n *NoOpLogger) LogSummary(models.RunSummary) {}
