package display

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/CodedAgent/codeagent/internal/models"
)

// RenderPlan prints the steps of plan with their dependencies, followed by
// the aggregate estimates and any warnings the plan carries.
func RenderPlan(w io.Writer, plan models.ExecutionPlan, useColor bool) {
	p := newPalette(useColor)

	fmt.Fprintln(w, p.paint(p.heading, fmt.Sprintf("Execution plan (%d steps)", plan.StepCount())))
	for i, step := range plan.Steps {
		fmt.Fprintf(w, "  %d. %-10s %-9s %-11s %s\n",
			i+1, step.ID, step.Action, step.Complexity, step.Description)
		if len(step.Dependencies) > 0 {
			fmt.Fprintf(w, "     %s\n", p.paint(p.muted, "after "+strings.Join(step.Dependencies, ", ")))
		}
		if len(step.TargetFiles) > 0 {
			fmt.Fprintf(w, "     %s\n", p.paint(p.muted, "files "+strings.Join(step.TargetFiles, ", ")))
		}
	}

	fmt.Fprintf(w, "Complexity: %s\n", plan.TotalComplexity)
	fmt.Fprintf(w, "Estimated duration: %s\n", time.Duration(plan.EstimatedDurationMs)*time.Millisecond)
	rollback := "no"
	if plan.RollbackAvailable {
		rollback = "yes"
	}
	fmt.Fprintf(w, "Rollback available: %s\n", rollback)

	if plan.RequiresUserApproval {
		Warning{
			Title:      "Approval required",
			Message:    fmt.Sprintf("Plan complexity is %s.", plan.TotalComplexity),
			Suggestion: "Review the steps and re-run with --yes to proceed.",
		}.Render(w, useColor)
	}

	if missing := plan.MissingDependencies(); len(missing) > 0 {
		ids := make([]string, 0, len(missing))
		for id := range missing {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		items := make([]string, 0, len(ids))
		for _, id := range ids {
			items = append(items, fmt.Sprintf("%s waits on %s", id, strings.Join(missing[id], ", ")))
		}
		Warning{
			Title:      "Unsatisfiable dependencies",
			Message:    "These steps depend on steps the plan does not contain; a run will stop before them.",
			Items:      items,
			Suggestion: "Describe the change to make (e.g. \"refactor ...\") so a modify step is planned.",
		}.Render(w, useColor)
	}

	if cyclic := plan.CyclicSteps(); len(cyclic) > 0 {
		Warning{
			Title:   "Dependency cycle",
			Message: "These steps wait on each other, directly or through a cycle; a run will stop before them.",
			Items:   cyclic,
		}.Render(w, useColor)
	}
}
