package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/CodedAgent/codeagent/internal/config"
	"github.com/CodedAgent/codeagent/internal/history"
	"github.com/CodedAgent/codeagent/internal/models"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id | --step step-id]",
		Short: "Show journaled runs and their step attempts",
		Long: `Without arguments, list the most recent runs with their status and
attempt counts. With a run id, show every attempt of that run including
retries, the fix suggestions each failure produced and the retry decision
that followed. With --step, show the most recent attempts at one step
across all runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs or step attempts to list (0 = all)")
	cmd.Flags().String("step", "", "Show attempts at this step id across runs")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	limit, _ := cmd.Flags().GetInt("limit")
	stepID, _ := cmd.Flags().GetString("step")
	if stepID != "" && len(args) > 0 {
		return fmt.Errorf("cannot combine a run id with --step")
	}

	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return fmt.Errorf("failed to get history database path: %w", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No run history found.")
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()

	if stepID != "" {
		attempts, err := store.GetStepAttempts(ctx, stepID, limit)
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			fmt.Fprintf(out, "No attempts recorded for step %s\n", stepID)
			return nil
		}
		printAttempts(out, "Step "+stepID, attempts, true)
		return nil
	}

	if len(args) == 0 {
		runs, err := store.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No run history found.")
			return nil
		}
		printRuns(out, runs)
		return nil
	}

	runID := args[0]
	attempts, err := store.GetRunAttempts(ctx, runID)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Fprintf(out, "No attempts recorded for run %s\n", runID)
		return nil
	}
	printAttempts(out, "Run "+runID, attempts, false)
	return nil
}

func printRuns(w io.Writer, runs []history.RunInfo) {
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "%-36s  %-8s  %8s  %6s  %-19s  %s\n", "RUN ID", "STATUS", "ATTEMPTS", "FAILED", "STARTED", "PROMPT")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-8s  %8d  %6d  %-19s  %s\n",
			r.RunID,
			r.Status,
			r.Attempts,
			r.FailedAttempts,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(strings.ReplaceAll(r.Prompt, "\n", " "), 60),
		)
	}
}

// printAttempts renders attempt records under heading. showRun adds the run
// id to each record for views that span runs.
func printAttempts(w io.Writer, heading string, attempts []models.AttemptRecord, showRun bool) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "\n=== %s ===\n\n", heading)
	fmt.Fprintf(w, "Total attempts: %d\n\n", len(attempts))

	for _, a := range attempts {
		cyan.Fprintf(w, "%s (%s) attempt #%d\n", a.StepID, a.Action, a.Attempt+1)
		if showRun {
			fmt.Fprintf(w, "  Run: %s\n", a.RunID)
		}
		fmt.Fprintf(w, "  Time: %s\n", a.RecordedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "  Duration: %s\n", (time.Duration(a.DurationMs) * time.Millisecond).Round(time.Millisecond))

		fmt.Fprintf(w, "  Result: ")
		if a.Success {
			green.Fprintln(w, "OK")
		} else {
			red.Fprintln(w, "FAILED")
		}

		if a.ErrorMessage != "" {
			fmt.Fprintf(w, "  Error: ")
			red.Fprintln(w, strings.TrimSpace(a.ErrorMessage))
		}

		if output := strings.TrimSpace(a.Output); output != "" {
			fmt.Fprintf(w, "  Output: %s\n", truncate(strings.ReplaceAll(output, "\n", " "), 200))
		} else {
			fmt.Fprintf(w, "  Output: ")
			gray.Fprintln(w, "(no output)")
		}

		for _, s := range a.Suggestions {
			loc := s.Location()
			if loc != "" {
				loc = " (" + loc + ")"
			}
			fmt.Fprintf(w, "  Suggestion: %.0f%% %s%s: %s\n", s.Confidence*100, s.ErrorPattern, loc, s.SuggestedFix)
		}

		if a.Strategy != nil {
			fmt.Fprintf(w, "  Decision: %s\n", describeStrategy(*a.Strategy))
		}
		fmt.Fprintln(w)
	}
}

func describeStrategy(s models.RetryStrategy) string {
	var parts []string
	if s.RetryRecommended {
		parts = append(parts, fmt.Sprintf("retry after %s", s.Delay()))
	}
	if s.ApplyAutoFixes {
		parts = append(parts, "apply auto-fixes")
	}
	if s.EscalateToUser {
		parts = append(parts, "escalate")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
