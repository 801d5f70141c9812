package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/CodedAgent/codeagent/internal/display"
	"github.com/CodedAgent/codeagent/internal/filelock"
	"github.com/CodedAgent/codeagent/internal/models"
)

// NewPlanCommand creates the plan command
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [prompt]",
		Short: "Show the execution plan for a task without running it",
		Long: `Decompose a task description into an execution plan and print it.

The plan lists every step with its action, complexity and dependencies,
followed by the estimated duration and any warnings (approval required,
dependencies that no step in the plan provides).

Examples:
  codeagent plan "refactor the parser and run the tests"
  codeagent plan --prompt-file task.md
  codeagent plan "lint the project" --format yaml --out plan.yaml`,
		RunE: runPlan,
	}

	addPromptFlags(cmd)
	cmd.Flags().String("format", "text", "Output format: text or yaml")
	cmd.Flags().String("out", "", "Write the plan to a file instead of stdout")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	if format != "text" && format != "yaml" {
		return fmt.Errorf("invalid format %q, must be one of: text, yaml", format)
	}

	prompt, files, err := resolvePrompt(cmd, args)
	if err != nil {
		return err
	}
	plan := buildPlan(prompt, files)

	if outPath == "" {
		if format == "yaml" {
			data, err := marshalPlan(plan)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		display.RenderPlan(cmd.OutOrStdout(), plan, display.ColorEnabled(cmd.OutOrStdout()))
		return nil
	}

	var data []byte
	if format == "yaml" {
		data, err = marshalPlan(plan)
		if err != nil {
			return err
		}
	} else {
		var buf bytes.Buffer
		display.RenderPlan(&buf, plan, false)
		data = buf.Bytes()
	}

	if err := filelock.LockAndWrite(outPath, data); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Plan with %d step(s) written to %s\n", plan.StepCount(), outPath)
	return nil
}

func marshalPlan(plan models.ExecutionPlan) ([]byte, error) {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	return data, nil
}
