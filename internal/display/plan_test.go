package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/CodedAgent/codeagent/internal/models"
	"github.com/CodedAgent/codeagent/internal/planner"
)

func TestRenderPlan(t *testing.T) {
	var buf bytes.Buffer
	RenderPlan(&buf, planner.Decompose("refactor the lexer and run tests"), false)
	out := buf.String()

	for _, want := range []string{
		"Execution plan (3 steps)\n",
		"  1. analyze_0  Analyze   Simple      Analyze project structure and context\n",
		"  2. modify_1   Modify    Moderate    Apply code modifications\n",
		"     after analyze_0\n",
		"  3. test_2     TestRun   Moderate    Run tests to verify changes\n",
		"     after modify_1\n",
		"Complexity: Moderate\n",
		"Estimated duration: 5s\n",
		"Rollback available: yes\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Warning") {
		t.Errorf("unexpected warning:\n%s", out)
	}
}

func TestRenderPlan_Warnings(t *testing.T) {
	plan := planner.Decompose("run tests and lint")

	var buf bytes.Buffer
	RenderPlan(&buf, plan, false)
	out := buf.String()

	if !strings.Contains(out, "Warning: Unsatisfiable dependencies") {
		t.Errorf("missing dependency warning:\n%s", out)
	}
	if !strings.Contains(out, "1. lint_3 waits on modify_1\n") || !strings.Contains(out, "2. test_2 waits on modify_1\n") {
		t.Errorf("dependency items not sorted by step id:\n%s", out)
	}
	if strings.Contains(out, "Approval required") {
		t.Errorf("moderate plan should not need approval:\n%s", out)
	}

	complex := planner.BuildPlan([]models.ExecutionStep{{
		ID:          "migrate_0",
		Description: "Migrate schema",
		Action:      models.ActionModify,
		TargetFiles: []string{"db/schema.sql"},
		Complexity:  models.ComplexityComplex,
	}})
	buf.Reset()
	RenderPlan(&buf, complex, false)
	out = buf.String()

	if !strings.Contains(out, "Warning: Approval required") {
		t.Errorf("missing approval warning:\n%s", out)
	}
	if !strings.Contains(out, "     files db/schema.sql\n") {
		t.Errorf("missing target files:\n%s", out)
	}
}

func TestRenderPlan_DependencyCycle(t *testing.T) {
	plan := planner.BuildPlan([]models.ExecutionStep{
		{ID: "analyze_0", Action: models.ActionAnalyze},
		{ID: "modify_1", Action: models.ActionModify, Dependencies: []string{"test_2"}},
		{ID: "test_2", Action: models.ActionTestRun, Dependencies: []string{"modify_1"}},
	})

	var buf bytes.Buffer
	RenderPlan(&buf, plan, false)
	out := buf.String()

	if !strings.Contains(out, "Warning: Dependency cycle") {
		t.Errorf("missing cycle warning:\n%s", out)
	}
	if !strings.Contains(out, "1. modify_1\n") || !strings.Contains(out, "2. test_2\n") {
		t.Errorf("cycle items missing:\n%s", out)
	}
	if strings.Contains(out, "      3. ") {
		t.Errorf("runnable step listed in cycle:\n%s", out)
	}
}
