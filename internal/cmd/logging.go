package cmd

import (
	"github.com/CodedAgent/codeagent/internal/executor"
	"github.com/CodedAgent/codeagent/internal/models"
)

// multiLogger implements executor.Logger by delegating to multiple loggers
type multiLogger struct {
	loggers []executor.Logger
}

func (ml *multiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

func (ml *multiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

func (ml *multiLogger) LogPlan(plan models.ExecutionPlan) {
	for _, l := range ml.loggers {
		l.LogPlan(plan)
	}
}

func (ml *multiLogger) LogStepStart(step models.ExecutionStep, attempt int) {
	for _, l := range ml.loggers {
		l.LogStepStart(step, attempt)
	}
}

func (ml *multiLogger) LogStepResult(result models.StepResult, attempt int) {
	for _, l := range ml.loggers {
		l.LogStepResult(result, attempt)
	}
}

func (ml *multiLogger) LogSuggestions(stepID string, suggestions []models.FixSuggestion) {
	for _, l := range ml.loggers {
		l.LogSuggestions(stepID, suggestions)
	}
}

func (ml *multiLogger) LogRetryDecision(stepID string, attempt int, strategy models.RetryStrategy) {
	for _, l := range ml.loggers {
		l.LogRetryDecision(stepID, attempt, strategy)
	}
}

func (ml *multiLogger) LogProgress(completed, total int) {
	for _, l := range ml.loggers {
		l.LogProgress(completed, total)
	}
}

// LogSummary forwards to all loggers
func (ml *multiLogger) LogSummary(summary models.RunSummary) {
	for _, l := range ml.loggers {
		l.LogSummary(summary)
	}
}
