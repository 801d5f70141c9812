package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/CodedAgent/codeagent/internal/config"
	"github.com/CodedAgent/codeagent/internal/display"
	"github.com/CodedAgent/codeagent/internal/executor"
	"github.com/CodedAgent/codeagent/internal/filelock"
	"github.com/CodedAgent/codeagent/internal/history"
	"github.com/CodedAgent/codeagent/internal/logger"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Plan and execute a task",
		Long: `Decompose a task description into a plan and execute it step by step.

Each step runs the command configured for its action in
.codeagent/config.yaml. Failed steps are correlated into fix suggestions
and retried, auto-fixed or escalated according to the retry policy. When
rollback.mode is auto_on_abort, an aborted run reverts its staged changes.

Configuration is loaded from .codeagent/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  codeagent run "refactor the parser, run the tests and lint"
  codeagent run --prompt-file task.md
  codeagent run --dry-run "replace the config loader"   # Simulate every step
  codeagent run --timeout 5m "verify the build"          # Bound each step attempt
  codeagent run --no-history "lint"                      # Do not journal attempts`,
		RunE: runCommand,
	}

	addPromptFlags(cmd)
	cmd.Flags().String("config", "", "Path to config file (default: .codeagent/config.yaml)")
	cmd.Flags().Bool("dry-run", false, "Simulate every step without running commands")
	cmd.Flags().Bool("yes", false, "Approve plans that require user approval")
	cmd.Flags().String("log-dir", "", "Directory for log files")
	cmd.Flags().String("timeout", "", "Maximum time per step attempt (e.g., 90s, 10m)")
	cmd.Flags().Bool("no-history", false, "Do not record attempts in the history journal")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	prompt, files, err := resolvePrompt(cmd, args)
	if err != nil {
		return err
	}
	plan := buildPlan(prompt, files)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	useColor := display.ColorEnabled(out)
	display.RenderPlan(out, plan, useColor)
	fmt.Fprintln(out)

	var escalator *promptEscalator
	stdin, interactive := interactiveInput(cmd)
	if interactive {
		escalator = newPromptEscalator(stdin, out, useColor)
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if plan.RequiresUserApproval && !yes {
		if escalator == nil {
			return fmt.Errorf("plan requires approval: re-run with --yes")
		}
		approved, err := escalator.confirm(ctx, "Execute this plan?")
		if err != nil {
			return err
		}
		if !approved {
			fmt.Fprintln(out, "Plan not approved, nothing executed.")
			return nil
		}
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	lock, err := filelock.AcquireWorkspace(workDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	runID := history.NewRunID()

	consoleLog := logger.NewConsoleLogger(out, cfg.LogLevel)
	fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel, runID)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()

	log := &multiLogger{loggers: []executor.Logger{consoleLog, fileLog}}

	var recorder executor.AttemptRecorder
	store := openHistory(ctx, cfg, log)
	if store != nil {
		defer store.Close()
		if err := store.StartRun(ctx, runID, prompt, workDir); err != nil {
			log.LogWarn(fmt.Sprintf("History: %v", err))
		} else {
			recorder = store
		}
	}

	shell := executor.NewShellCommandRunner(workDir)
	rollback := executor.NewRollbackManager(
		&cfg.Rollback,
		&executor.GitRollbacker{Runner: shell, Command: cfg.Commands.Rollback},
		log,
	)

	orchCfg := executor.OrchestratorConfig{
		RunID:       runID,
		Runner:      executor.NewShellStepRunner(cfg, workDir),
		Logger:      log,
		Extractor:   executor.NewParserExtractor(cfg.TestFormat, cfg.LintFormat),
		Fixer:       &executor.ShellFixer{Runner: shell, Command: cfg.Commands.Fix},
		Rollback:    rollback,
		Recorder:    recorder,
		StepTimeout: cfg.StepTimeout,
		DryRun:      cfg.DryRun,
	}
	if escalator != nil {
		orchCfg.Escalator = escalator
	}

	report, execErr := executor.NewOrchestrator(orchCfg).Execute(ctx, plan)

	if recorder != nil && report != nil {
		if err := store.FinishRun(context.WithoutCancel(ctx), report.Summary()); err != nil {
			log.LogWarn(fmt.Sprintf("History: %v", err))
		}
	}

	fmt.Fprintf(out, "Logs written to: %s\n", fileLog.RunFile())

	if execErr != nil {
		if report != nil && report.RolledBack {
			return fmt.Errorf("execution aborted (changes rolled back): %w", execErr)
		}
		return fmt.Errorf("execution aborted: %w", execErr)
	}

	if summary := report.Summary(); summary.Failed > 0 {
		return fmt.Errorf("%d step(s) failed", summary.Failed)
	}
	return nil
}

// loadRunConfig loads the config file and applies CLI overrides.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var timeoutPtr *time.Duration
	if cmd.Flags().Changed("timeout") {
		timeoutStr, _ := cmd.Flags().GetString("timeout")
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", timeoutStr, err)
		}
		timeoutPtr = &timeout
	}

	var logDirPtr *string
	if cmd.Flags().Changed("log-dir") {
		logDir, _ := cmd.Flags().GetString("log-dir")
		logDirPtr = &logDir
	}

	var dryRunPtr *bool
	if cmd.Flags().Changed("dry-run") {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		dryRunPtr = &dryRun
	}

	var historyPtr *bool
	if noHistory, _ := cmd.Flags().GetBool("no-history"); noHistory {
		enabled := false
		historyPtr = &enabled
	}

	cfg.MergeWithFlags(timeoutPtr, logDirPtr, dryRunPtr, historyPtr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openHistory opens the attempt journal and prunes old runs. A journal that
// cannot be opened is reported and the run continues without it.
func openHistory(ctx context.Context, cfg *config.Config, log executor.Logger) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}

	path, err := cfg.HistoryDBPath()
	if err != nil {
		log.LogWarn(fmt.Sprintf("History disabled: %v", err))
		return nil
	}

	store, err := history.NewStore(path)
	if err != nil {
		log.LogWarn(fmt.Sprintf("History disabled: %v", err))
		return nil
	}

	if cfg.History.KeepDays > 0 {
		if _, err := store.CleanupOld(ctx, cfg.History.KeepDays); err != nil {
			log.LogWarn(fmt.Sprintf("History cleanup failed: %v", err))
		}
	}
	return store
}

// interactiveInput returns the command's stdin and whether it is a terminal.
func interactiveInput(cmd *cobra.Command) (*os.File, bool) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok {
		return nil, false
	}
	return f, display.IsInteractive(f)
}

var _ executor.Logger = (*multiLogger)(nil)
var _ executor.Escalator = (*promptEscalator)(nil)
var _ executor.AttemptRecorder = (*history.Store)(nil)
