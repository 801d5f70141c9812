package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/CodedAgent/codeagent/internal/config"
	"github.com/CodedAgent/codeagent/internal/logger"
	"github.com/CodedAgent/codeagent/internal/models"
	"github.com/CodedAgent/codeagent/internal/recovery"
)

// Logger defines the interface for logging orchestrator progress and results.
type Logger interface {
	LogInfo(message string)
	LogWarn(message string)
	LogPlan(plan models.ExecutionPlan)
	LogStepStart(step models.ExecutionStep, attempt int)
	LogStepResult(result models.StepResult, attempt int)
	LogSuggestions(stepID string, suggestions []models.FixSuggestion)
	LogRetryDecision(stepID string, attempt int, strategy models.RetryStrategy)
	LogProgress(completed, total int)
	LogSummary(summary models.RunSummary)
}

// Escalator asks a human whether a run may continue past a failed step.
type Escalator interface {
	Escalate(ctx context.Context, step models.ExecutionStep, result models.StepResult, suggestions []models.FixSuggestion) (bool, error)
}

// Fixer applies auto-fixable suggestions before a retry.
type Fixer interface {
	ApplyFixes(ctx context.Context, step models.ExecutionStep, fixes []models.FixSuggestion) error
}

// AttemptRecorder journals every attempt, including the ones a later retry replaces.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, record models.AttemptRecord) error
}

// OrchestratorConfig wires the collaborators of an Orchestrator.
// Only Runner is required.
type OrchestratorConfig struct {
	RunID       string
	Runner      StepRunner
	Logger      Logger
	Extractor   FailureExtractor
	Fixer       Fixer
	Escalator   Escalator
	Rollback    *RollbackManager
	Recorder    AttemptRecorder
	StepTimeout time.Duration // 0 disables the per-attempt timeout
	DryRun      bool
}

// Orchestrator drives one plan through an ExecutionContext: it runs each
// step, correlates failures into suggestions, applies the retry policy and
// escalates or rolls back when the policy gives up.
type Orchestrator struct {
	cfg   OrchestratorConfig
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator creates a new Orchestrator instance.
// It panics when cfg.Runner is nil.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Runner == nil {
		panic("step runner cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = NewParserExtractor("auto", "auto")
	}

	return &Orchestrator{
		cfg:   cfg,
		sleep: sleepContext,
	}
}

// ExecutionReport is the outcome of Execute.
type ExecutionReport struct {
	RunID         string
	Plan          models.ExecutionPlan
	Results       map[string]models.StepResult // Last attempt per step
	Attempts      map[string]int               // Attempts per step, retries included
	Progress      int                          // Final progress percentage
	State         ContextState
	Aborted       bool
	AbortReason   string
	RolledBack    bool
	StagedChanges []string
	Duration      time.Duration
}

// Summary aggregates the report into run statistics.
// Failed steps are listed in plan order.
func (r *ExecutionReport) Summary() models.RunSummary {
	summary := models.RunSummary{
		RunID:       r.RunID,
		TotalSteps:  r.Plan.StepCount(),
		Completed:   len(r.Results),
		Aborted:     r.Aborted,
		AbortReason: r.AbortReason,
		RolledBack:  r.RolledBack,
		Duration:    r.Duration,
		FailedSteps: []models.StepResult{},
	}

	for _, n := range r.Attempts {
		summary.Attempts += n
	}

	for _, step := range r.Plan.Steps {
		result, ok := r.Results[step.ID]
		if !ok {
			continue
		}
		if result.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
			summary.FailedSteps = append(summary.FailedSteps, result)
		}
	}

	return summary
}

// Execute runs plan to completion or abort. Step failures are reported in
// the returned report; the error is non-nil only when the run aborted, in
// which case it is an *ExecutionError.
func (o *Orchestrator) Execute(ctx context.Context, plan models.ExecutionPlan) (*ExecutionReport, error) {
	// Set up context with cancellation for signal handling
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			o.cfg.Logger.LogWarn("Received interrupt signal, shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	startTime := time.Now()
	ectx := NewExecutionContext(plan, o.cfg.DryRun)
	report := &ExecutionReport{
		RunID:    o.cfg.RunID,
		Plan:     plan,
		Attempts: make(map[string]int),
	}

	o.cfg.Logger.LogPlan(plan)
	for _, warning := range planWarnings(plan) {
		o.cfg.Logger.LogWarn(warning)
	}

	var runErr *ExecutionError
	for {
		step, ok := ectx.NextStep()
		if !ok {
			break
		}

		if err := ctx.Err(); err != nil {
			runErr = o.abort(PhaseCancelled, ectx, NewStepError(step.ID, "not started", err))
			break
		}

		if !ectx.CanProceedToNext() {
			msg := "waiting on " + strings.Join(ectx.UnsatisfiedDependencies(), ", ")
			runErr = o.abort(PhaseBlocked, ectx, NewStepError(step.ID, msg, ErrDependencyUnsatisfied))
			break
		}

		if stepErr := o.runStep(ctx, ectx, *step, report); stepErr != nil {
			phase := PhaseEscalated
			if ctx.Err() != nil {
				phase = PhaseCancelled
			}
			runErr = o.abort(phase, ectx, stepErr)
			break
		}

		o.cfg.Logger.LogProgress(len(ectx.Results()), plan.StepCount())
	}

	if runErr != nil {
		report.Aborted = true
		report.AbortReason = runErr.Error()
		report.RolledBack = o.rollbackOnAbort(ctx, ectx)
	}

	report.Results = ectx.Results()
	report.Progress = ectx.ProgressPercentage()
	report.State = ectx.State()
	report.StagedChanges = ectx.StagedChanges()
	report.Duration = time.Since(startTime)

	o.cfg.Logger.LogSummary(report.Summary())

	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

// runStep attempts a step until it succeeds, the retry policy gives up, or
// the context is cancelled. Exactly one result is recorded per step.
func (o *Orchestrator) runStep(ctx context.Context, ectx *ExecutionContext, step models.ExecutionStep, report *ExecutionReport) *StepError {
	for attempt := 0; ; attempt++ {
		o.cfg.Logger.LogStepStart(step, attempt)
		result, changes := o.attempt(ctx, step)
		report.Attempts[step.ID] = attempt + 1
		o.cfg.Logger.LogStepResult(result, attempt)

		record := models.NewAttemptRecord(o.cfg.RunID, step, attempt, result)

		if result.Success {
			o.record(ctx, record)
			ectx.MarkStepComplete(result)
			for _, change := range changes {
				ectx.StageChange(change)
			}
			return nil
		}

		if err := ctx.Err(); err != nil {
			o.record(ctx, record)
			ectx.MarkStepComplete(result)
			return NewStepError(step.ID, "interrupted", err)
		}

		tests, lints := o.cfg.Extractor.Extract(step, result)
		suggestions := recovery.CorrelateErrors(tests, lints)
		strategy := recovery.GenerateRetryStrategy(suggestions, attempt)
		o.cfg.Logger.LogSuggestions(step.ID, suggestions)
		o.cfg.Logger.LogRetryDecision(step.ID, attempt, strategy)

		record.Suggestions = suggestions
		record.Strategy = &strategy
		o.record(ctx, record)

		if strategy.ApplyAutoFixes && o.cfg.Fixer != nil && !o.cfg.DryRun {
			if err := o.cfg.Fixer.ApplyFixes(ctx, step, recovery.AutoFixable(suggestions)); err != nil {
				o.cfg.Logger.LogWarn(fmt.Sprintf("%s: applying fixes failed: %v", step.ID, err))
			}
		}

		if strategy.RetryRecommended {
			if strategy.EscalateToUser {
				o.cfg.Logger.LogWarn(fmt.Sprintf("%s: no high-confidence fix, retrying before escalation", step.ID))
			}
			if err := o.sleep(ctx, strategy.Delay()); err != nil {
				ectx.MarkStepComplete(result)
				return NewStepError(step.ID, "interrupted during retry delay", err)
			}
			continue
		}

		ectx.MarkStepComplete(result)
		return o.escalate(ctx, step, result, suggestions, attempt+1)
	}
}

// attempt runs the step once under the per-step timeout and always returns
// a result for the step.
func (o *Orchestrator) attempt(ctx context.Context, step models.ExecutionStep) (models.StepResult, []string) {
	stepCtx := ctx
	if o.cfg.StepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, o.cfg.StepTimeout)
		defer cancel()
	}

	start := time.Now()
	outcome, err := o.cfg.Runner.RunStep(stepCtx, step)

	if ctx.Err() == nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		timeoutErr := NewTimeoutError(step.ID, o.cfg.StepTimeout)
		timeoutErr.Context = step.Action.String()
		output := ""
		if outcome != nil {
			output = outcome.Result.Output
		}
		return models.NewStepResult(step.ID, false, output, time.Since(start), timeoutErr.Error()), nil
	}

	if err != nil {
		return models.NewStepResult(step.ID, false, "", time.Since(start), err.Error()), nil
	}

	result := outcome.Result
	result.StepID = step.ID
	if !result.Success && result.ErrorMessage == nil {
		msg := "step failed"
		result.ErrorMessage = &msg
	}
	return result, outcome.Changes
}

func (o *Orchestrator) escalate(ctx context.Context, step models.ExecutionStep, result models.StepResult, suggestions []models.FixSuggestion, attempts int) *StepError {
	msg := fmt.Sprintf("failed after %d attempt(s)", attempts)

	if o.cfg.Escalator == nil {
		return NewStepError(step.ID, msg, ErrEscalated)
	}

	approved, err := o.cfg.Escalator.Escalate(ctx, step, result, suggestions)
	if err != nil {
		o.cfg.Logger.LogWarn(fmt.Sprintf("%s: escalation failed: %v", step.ID, err))
		return NewStepError(step.ID, msg, fmt.Errorf("%w: %v", ErrEscalated, err))
	}
	if !approved {
		return NewStepError(step.ID, msg, ErrEscalated)
	}

	o.cfg.Logger.LogWarn(fmt.Sprintf("%s: continuing past failed step", step.ID))
	return nil
}

func (o *Orchestrator) abort(phase AbortPhase, ectx *ExecutionContext, stepErr *StepError) *ExecutionError {
	plan := ectx.Plan()
	execErr := NewExecutionError(phase, plan.StepCount(), len(ectx.Results()))
	execErr.AddStep(stepErr)
	return execErr
}

// planWarnings describes the steps of plan that can never run, in step id
// order.
func planWarnings(plan models.ExecutionPlan) []string {
	missing := plan.MissingDependencies()
	ids := make([]string, 0, len(missing))
	for id := range missing {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	warnings := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		warnings = append(warnings, fmt.Sprintf("%s depends on %s, which no step provides",
			id, strings.Join(missing[id], ", ")))
	}
	if cyclic := plan.CyclicSteps(); len(cyclic) > 0 {
		warnings = append(warnings, fmt.Sprintf("dependency cycle blocks %s", strings.Join(cyclic, ", ")))
	}
	return warnings
}

// rollbackOnAbort reverts staged changes when the rollback manager allows it.
// It runs even when ctx was cancelled.
func (o *Orchestrator) rollbackOnAbort(ctx context.Context, ectx *ExecutionContext) bool {
	if !o.cfg.Rollback.ShouldRollback(true, ectx) {
		if n := len(ectx.StagedChanges()); n > 0 && o.cfg.Rollback.Mode() == config.RollbackModeManual {
			o.cfg.Logger.LogInfo(fmt.Sprintf("Rollback mode is manual: %d staged change(s) left in place", n))
		}
		return false
	}

	if err := o.cfg.Rollback.PerformRollback(context.WithoutCancel(ctx), ectx.StagedChanges()); err != nil {
		o.cfg.Logger.LogWarn(fmt.Sprintf("rollback failed: %v", err))
		return false
	}
	return true
}

func (o *Orchestrator) record(ctx context.Context, record models.AttemptRecord) {
	if o.cfg.Recorder == nil {
		return
	}
	if err := o.cfg.Recorder.RecordAttempt(context.WithoutCancel(ctx), record); err != nil {
		o.cfg.Logger.LogWarn(fmt.Sprintf("%s: failed to record attempt: %v", record.StepID, err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
