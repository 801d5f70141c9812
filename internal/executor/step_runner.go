package executor

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/CodedAgent/codeagent/internal/config"
	"github.com/CodedAgent/codeagent/internal/fileutil"
	"github.com/CodedAgent/codeagent/internal/models"
)

// CommandRunner abstracts shell command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, command string) (output string, err error)
}

// ShellCommandRunner executes commands via the system shell.
type ShellCommandRunner struct {
	WorkDir string // Working directory for commands (empty = current dir)
}

// NewShellCommandRunner creates a CommandRunner that executes real shell commands.
func NewShellCommandRunner(workDir string) *ShellCommandRunner {
	return &ShellCommandRunner{WorkDir: workDir}
}

// Run executes a command via sh -c and returns combined stdout/stderr.
func (r *ShellCommandRunner) Run(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if r.WorkDir != "" {
		cmd.Dir = r.WorkDir
	}

	output, err := cmd.CombinedOutput()
	return string(output), err
}

// StepOutcome is what a StepRunner reports for one attempt.
type StepOutcome struct {
	Result  models.StepResult
	Changes []string // Files changed by the attempt, staged on success
}

// StepRunner performs the work of a single step attempt.
// A returned error means the step could not be attempted at all; a step
// that ran and failed is reported through Result.
type StepRunner interface {
	RunStep(ctx context.Context, step models.ExecutionStep) (*StepOutcome, error)
}

// ShellStepRunner runs the configured shell command for each step action.
type ShellStepRunner struct {
	Runner   CommandRunner
	Commands config.CommandsConfig
	WorkDir  string
	DryRun   bool
}

// NewShellStepRunner creates a ShellStepRunner backed by a ShellCommandRunner in workDir.
func NewShellStepRunner(cfg *config.Config, workDir string) *ShellStepRunner {
	return &ShellStepRunner{
		Runner:   NewShellCommandRunner(workDir),
		Commands: cfg.Commands,
		WorkDir:  workDir,
		DryRun:   cfg.DryRun,
	}
}

// RunStep implements StepRunner.
func (r *ShellStepRunner) RunStep(ctx context.Context, step models.ExecutionStep) (*StepOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	command := r.Commands.For(step.Action)

	if r.DryRun {
		output := fmt.Sprintf("[dry-run] %s", step.Description)
		if command != "" {
			output = fmt.Sprintf("[dry-run] would run: %s", command)
		}
		return &StepOutcome{Result: models.NewStepResult(step.ID, true, output, time.Since(start), "")}, nil
	}

	if command == "" {
		if step.Action == models.ActionAnalyze {
			return r.analyzeProject(step, start)
		}
		return &StepOutcome{
			Result: models.NewStepResult(step.ID, true, "no command configured", time.Since(start), ""),
		}, nil
	}

	var before []string
	var beforeErr error
	if step.Action == models.ActionModify {
		before, beforeErr = r.dirtyFiles(ctx)
	}

	output, err := r.Runner.Run(ctx, command)
	if err != nil {
		msg := fmt.Errorf("%w: %s: %v", ErrCommandFailed, command, err).Error()
		return &StepOutcome{Result: models.NewStepResult(step.ID, false, output, time.Since(start), msg)}, nil
	}

	outcome := &StepOutcome{Result: models.NewStepResult(step.ID, true, output, time.Since(start), "")}
	if step.Action == models.ActionModify {
		outcome.Changes = r.changedFiles(ctx, step, before, beforeErr)
	}
	return outcome, nil
}

// analyzeProject summarises the project files when no analyze command is set.
func (r *ShellStepRunner) analyzeProject(step models.ExecutionStep, start time.Time) (*StepOutcome, error) {
	dir := r.WorkDir
	if dir == "" {
		dir = "."
	}

	scan, err := fileutil.ScanProject(dir)
	if err != nil {
		msg := fmt.Sprintf("analyze %s: %v", dir, err)
		return &StepOutcome{Result: models.NewStepResult(step.ID, false, "", time.Since(start), msg)}, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d files\n", len(scan.Files)))
	counts := scan.ByExtension()
	exts := make([]string, 0, len(counts))
	for ext := range counts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		sb.WriteString(fmt.Sprintf("  %s: %d\n", ext, counts[ext]))
	}
	for _, target := range step.TargetFiles {
		sb.WriteString(fmt.Sprintf("target: %s\n", target))
	}

	return &StepOutcome{Result: models.NewStepResult(step.ID, true, sb.String(), time.Since(start), "")}, nil
}

// dirtyFilesCommand lists modified and untracked files, NUL separated.
const dirtyFilesCommand = "git ls-files -z --modified --others --exclude-standard"

func (r *ShellStepRunner) dirtyFiles(ctx context.Context) ([]string, error) {
	output, err := r.Runner.Run(ctx, dirtyFilesCommand)
	if err != nil {
		return nil, err
	}
	return splitNul(output), nil
}

// changedFiles reports the files the modify command made dirty. Files that
// were already dirty before the command are never reported. Outside a
// repository the step's target files are reported instead.
func (r *ShellStepRunner) changedFiles(ctx context.Context, step models.ExecutionStep, before []string, beforeErr error) []string {
	if beforeErr != nil {
		return append([]string(nil), step.TargetFiles...)
	}
	after, err := r.dirtyFiles(ctx)
	if err != nil {
		return append([]string(nil), step.TargetFiles...)
	}

	preexisting := make(map[string]bool, len(before))
	for _, f := range before {
		preexisting[f] = true
	}
	var files []string
	seen := make(map[string]bool, len(after))
	for _, f := range after {
		if preexisting[f] || seen[f] {
			continue
		}
		seen[f] = true
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

func splitNul(output string) []string {
	var files []string
	for _, f := range strings.Split(output, "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// ShellFixer runs the configured fix command before a retry.
type ShellFixer struct {
	Runner  CommandRunner
	Command string
}

// ApplyFixes implements Fixer. It is a no-op without a command or fixes.
func (f *ShellFixer) ApplyFixes(ctx context.Context, step models.ExecutionStep, fixes []models.FixSuggestion) error {
	if f.Command == "" || len(fixes) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	output, err := f.Runner.Run(ctx, f.Command)
	if err != nil {
		return fmt.Errorf("%w: fix for %s: %s", ErrCommandFailed, step.ID, firstLine(strings.TrimSpace(output)))
	}
	return nil
}

// Rollbacker reverts staged changes.
type Rollbacker interface {
	Rollback(ctx context.Context, changes []string) error
}

// GitRollbacker restores changed files from the git index and removes the
// untracked files a run created. A configured Command replaces both.
type GitRollbacker struct {
	Runner  CommandRunner
	Command string
}

// Rollback implements Rollbacker.
func (g *GitRollbacker) Rollback(ctx context.Context, changes []string) error {
	if len(changes) == 0 {
		return nil
	}
	if g.Command != "" {
		return g.run(ctx, g.Command)
	}

	output, err := g.Runner.Run(ctx, "git ls-files -z -- "+quoteAll(changes))
	if err != nil {
		return fmt.Errorf("%w: git ls-files: %s", ErrCommandFailed, firstLine(strings.TrimSpace(output)))
	}
	tracked := make(map[string]bool)
	for _, f := range splitNul(output) {
		tracked[f] = true
	}

	var restore, remove []string
	for _, c := range changes {
		if tracked[c] {
			restore = append(restore, c)
		} else {
			remove = append(remove, c)
		}
	}

	if len(restore) > 0 {
		if err := g.run(ctx, "git checkout -- "+quoteAll(restore)); err != nil {
			return err
		}
	}
	if len(remove) > 0 {
		if err := g.run(ctx, "git clean -f -q -- "+quoteAll(remove)); err != nil {
			return err
		}
	}
	return nil
}

func (g *GitRollbacker) run(ctx context.Context, command string) error {
	output, err := g.Runner.Run(ctx, command)
	if err != nil {
		return fmt.Errorf("%w: %s: %s", ErrCommandFailed, command, firstLine(strings.TrimSpace(output)))
	}
	return nil
}

func quoteAll(paths []string) string {
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = shellQuote(p)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
