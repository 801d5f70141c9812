package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CodedAgent/codeagent/internal/config"
	"github.com/CodedAgent/codeagent/internal/display"
	"github.com/CodedAgent/codeagent/internal/models"
	"github.com/CodedAgent/codeagent/internal/parser"
	"github.com/CodedAgent/codeagent/internal/recovery"
	"github.com/CodedAgent/codeagent/internal/watch"
)

// analyzeOptions are the inputs of one analysis pass.
type analyzeOptions struct {
	testsFile  string
	lintFile   string
	testFormat string
	lintFormat string
	attempt    int
	minLevel   models.LintSeverity
}

// NewAnalyzeCommand creates the analyze command
func NewAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Correlate saved test and lint output into fix suggestions",
		Long: `Parse saved test and lint output, correlate the failures into ranked
fix suggestions and show the retry strategy the run loop would take.

Output formats are detected automatically unless --test-format or
--lint-format is given. With --watch the analysis is repeated whenever
one of the report files changes.

Examples:
  go test ./... > tests.out; codeagent analyze --tests tests.out
  codeagent analyze --tests tests.out --lint lint.out --attempt 2
  codeagent analyze --lint lint.out --min-severity error
  codeagent analyze --lint clippy.out --lint-format clippy --watch`,
		Args: cobra.NoArgs,
		RunE: runAnalyze,
	}

	cmd.Flags().String("tests", "", "File containing test runner output")
	cmd.Flags().String("lint", "", "File containing linter output")
	cmd.Flags().Int("attempt", 0, "0-based attempt number used for the retry strategy")
	cmd.Flags().String("test-format", "auto", "Test output format: auto, go, cargo, pytest, jest")
	cmd.Flags().String("lint-format", "auto", "Lint output format: auto, eslint, pylint, clippy")
	cmd.Flags().String("min-severity", "info", "Ignore lint findings below: info, warning, error, critical")
	cmd.Flags().Bool("watch", false, "Re-run the analysis when a report file changes")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	opts := analyzeOptions{}
	opts.testsFile, _ = cmd.Flags().GetString("tests")
	opts.lintFile, _ = cmd.Flags().GetString("lint")
	opts.testFormat, _ = cmd.Flags().GetString("test-format")
	opts.lintFormat, _ = cmd.Flags().GetString("lint-format")
	opts.attempt, _ = cmd.Flags().GetInt("attempt")
	minSeverity, _ := cmd.Flags().GetString("min-severity")
	watchFiles, _ := cmd.Flags().GetBool("watch")

	if opts.testsFile == "" && opts.lintFile == "" {
		return fmt.Errorf("at least one of --tests or --lint is required")
	}
	if opts.attempt < 0 {
		return fmt.Errorf("--attempt must be >= 0, got %d", opts.attempt)
	}
	if !contains(config.TestFormats, opts.testFormat) {
		return fmt.Errorf("invalid test format %q, must be one of: %v", opts.testFormat, config.TestFormats)
	}
	if !contains(config.LintFormats, opts.lintFormat) {
		return fmt.Errorf("invalid lint format %q, must be one of: %v", opts.lintFormat, config.LintFormats)
	}
	level, ok := models.ParseLintSeverity(minSeverity)
	if !ok {
		return fmt.Errorf("invalid severity %q, must be one of: info, warning, error, critical", minSeverity)
	}
	opts.minLevel = level

	out := cmd.OutOrStdout()
	useColor := display.ColorEnabled(out)

	if err := analyzeReports(out, opts, useColor); err != nil {
		return err
	}
	if !watchFiles {
		return nil
	}

	w, err := watch.New([]string{opts.testsFile, opts.lintFile}, 0)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "\nWatching %d file(s) for changes (Ctrl+C to stop)...\n", len(w.Files()))
	return w.Run(ctx, func(path string) {
		fmt.Fprintf(out, "\n%s changed\n", path)
		if err := analyzeReports(out, opts, useColor); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	})
}

// analyzeReports runs one analysis pass and renders the result.
func analyzeReports(w io.Writer, opts analyzeOptions, useColor bool) error {
	var tests []models.TestResult
	var lints []models.LintResult

	if opts.testsFile != "" {
		data, err := os.ReadFile(opts.testsFile)
		if err != nil {
			return fmt.Errorf("failed to read test output: %w", err)
		}
		tests, err = parser.ParseTestOutput(opts.testFormat, string(data))
		if err != nil {
			return err
		}
		display.RenderTestSummary(w, models.SummarizeTests(tests), useColor)
	}

	if opts.lintFile != "" {
		data, err := os.ReadFile(opts.lintFile)
		if err != nil {
			return fmt.Errorf("failed to read lint output: %w", err)
		}
		lints, err = parser.ParseLintOutput(opts.lintFormat, string(data))
		if err != nil {
			return err
		}
		lints = models.FilterBySeverity(lints, opts.minLevel)
		summary := models.SummarizeLint(lints)
		errs := summary.BySeverity[models.SeverityError.String()] + summary.BySeverity[models.SeverityCritical.String()]
		fmt.Fprintf(w, "Lint: %d issue(s), %d error(s), %d warning(s)\n",
			summary.TotalIssues, errs, summary.BySeverity[models.SeverityWarning.String()])
	}

	suggestions := recovery.CorrelateErrors(tests, lints)
	fmt.Fprintln(w)
	display.RenderSuggestions(w, suggestions, useColor)

	if len(suggestions) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	display.RenderStrategy(w, recovery.GenerateRetryStrategy(suggestions, opts.attempt), opts.attempt, useColor)
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
