package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CodedAgent/codeagent/internal/models"
	"github.com/CodedAgent/codeagent/internal/parser"
	"github.com/CodedAgent/codeagent/internal/planner"
)

// addPromptFlags registers the flags shared by commands that take a prompt.
func addPromptFlags(cmd *cobra.Command) {
	cmd.Flags().String("prompt-file", "", "Read the task description from a file (.md files are flattened)")
}

// resolvePrompt returns the prompt from the positional arguments or
// --prompt-file, plus any target files declared in the file's frontmatter.
func resolvePrompt(cmd *cobra.Command, args []string) (string, []string, error) {
	promptFile, _ := cmd.Flags().GetString("prompt-file")
	inline := strings.TrimSpace(strings.Join(args, " "))

	if promptFile != "" && inline != "" {
		return "", nil, fmt.Errorf("cannot use both a prompt argument and --prompt-file")
	}

	if promptFile != "" {
		prompt, err := parser.ReadPromptFile(promptFile)
		if err != nil {
			return "", nil, err
		}
		if prompt.Text == "" {
			return "", nil, fmt.Errorf("prompt file %s is empty", promptFile)
		}
		return prompt.Text, prompt.Files, nil
	}

	if inline == "" {
		return "", nil, fmt.Errorf("a prompt argument or --prompt-file is required")
	}
	return inline, nil, nil
}

// buildPlan decomposes the prompt and assigns target files to the steps
// that read or change source.
func buildPlan(prompt string, files []string) models.ExecutionPlan {
	plan := planner.Decompose(prompt)
	if len(files) == 0 {
		return plan
	}

	for i := range plan.Steps {
		switch plan.Steps[i].Action {
		case models.ActionAnalyze, models.ActionModify:
			plan.Steps[i].TargetFiles = append([]string{}, files...)
		}
	}
	return plan
}
