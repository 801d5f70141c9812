package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for codeagent
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codeagent",
		Short: "Plan and execute code-modification tasks with automatic recovery",
		Long: `Codeagent turns a task description into an ordered execution plan,
runs each step through the configured commands, and recovers from
failures by correlating test and lint output into fix suggestions.

Failed steps are retried, auto-fixed or escalated according to the retry
policy; aborted runs can roll back staged changes.`,
		Version: Version,
		// main prints the returned error; usage is noise after a failed run
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewPlanCommand())
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewAnalyzeCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
