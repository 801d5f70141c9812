package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodedAgent/codeagent/internal/models"
)

func stepIDs(plan models.ExecutionPlan) []string {
	ids := make([]string, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestDecompose(t *testing.T) {
	tests := []struct {
		name           string
		prompt         string
		wantIDs        []string
		wantComplexity models.Complexity
		wantDuration   uint64
	}{
		{
			name:           "empty prompt yields analyze only",
			prompt:         "",
			wantIDs:        []string{"analyze_0"},
			wantComplexity: models.ComplexitySimple,
			wantDuration:   1500,
		},
		{
			name:           "unmatched prompt yields analyze only",
			prompt:         "explain the payment module",
			wantIDs:        []string{"analyze_0"},
			wantComplexity: models.ComplexitySimple,
			wantDuration:   1500,
		},
		{
			name:           "refactor adds modify",
			prompt:         "Refactor the payment module",
			wantIDs:        []string{"analyze_0", "modify_1"},
			wantComplexity: models.ComplexityModerate,
			wantDuration:   4000,
		},
		{
			name:           "replace and verify",
			prompt:         "replace fmt.Println with log and VERIFY",
			wantIDs:        []string{"analyze_0", "modify_1", "test_2"},
			wantComplexity: models.ComplexityModerate,
			wantDuration:   5000,
		},
		{
			name:           "all rules",
			prompt:         "refactor auth, run the tests and check lint quality",
			wantIDs:        []string{"analyze_0", "modify_1", "test_2", "lint_3"},
			wantComplexity: models.ComplexityModerate,
			wantDuration:   6000,
		},
		{
			name:           "lint only stays simple",
			prompt:         "lint the repo",
			wantIDs:        []string{"analyze_0", "lint_3"},
			wantComplexity: models.ComplexitySimple,
			wantDuration:   2000,
		},
		{
			name:           "keyword order does not matter",
			prompt:         "lint then test then refactor",
			wantIDs:        []string{"analyze_0", "modify_1", "test_2", "lint_3"},
			wantComplexity: models.ComplexityModerate,
			wantDuration:   6000,
		},
		{
			name:           "repeated keywords add one step",
			prompt:         "test test test verify",
			wantIDs:        []string{"analyze_0", "test_2"},
			wantComplexity: models.ComplexityModerate,
			wantDuration:   4000,
		},
		{
			name:           "substring match",
			prompt:         "add a contest page",
			wantIDs:        []string{"analyze_0", "test_2"},
			wantComplexity: models.ComplexityModerate,
			wantDuration:   4000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Decompose(tt.prompt)

			assert.Equal(t, tt.wantIDs, stepIDs(plan))
			assert.Equal(t, tt.wantComplexity, plan.TotalComplexity)
			assert.Equal(t, tt.wantDuration, plan.EstimatedDurationMs)
			assert.False(t, plan.RequiresUserApproval)
			assert.True(t, plan.RollbackAvailable)
		})
	}
}

func TestDecompose_AnalyzeStep(t *testing.T) {
	plan := Decompose("anything at all")
	require.NotEmpty(t, plan.Steps)

	first := plan.Steps[0]
	assert.Equal(t, "analyze_0", first.ID)
	assert.Equal(t, models.ActionAnalyze, first.Action)
	assert.Equal(t, models.ComplexitySimple, first.Complexity)
	assert.Empty(t, first.Dependencies)
	assert.False(t, first.RollbackEnabled)
}

func TestDecompose_RefactorAndTest(t *testing.T) {
	plan := Decompose("refactor the parser and add a test")
	require.Len(t, plan.Steps, 3)

	assert.Equal(t, models.ActionAnalyze, plan.Steps[0].Action)
	assert.Equal(t, models.ActionModify, plan.Steps[1].Action)
	assert.Equal(t, models.ActionTestRun, plan.Steps[2].Action)

	assert.Equal(t, []string{"analyze_0"}, plan.Steps[1].Dependencies)
	assert.True(t, plan.Steps[1].RollbackEnabled)
	assert.Equal(t, []string{"modify_1"}, plan.Steps[2].Dependencies)
	assert.False(t, plan.Steps[2].RollbackEnabled)
}

func TestDecompose_TestWithoutModifyReferencesMissingStep(t *testing.T) {
	plan := Decompose("verify the build")
	require.Len(t, plan.Steps, 2)

	testStep := plan.Steps[1]
	assert.Equal(t, "test_2", testStep.ID)
	assert.Equal(t, []string{"modify_1"}, testStep.Dependencies)

	_, ok := plan.Step("modify_1")
	assert.False(t, ok, "modify_1 must not be synthesized")
	assert.Equal(t, map[string][]string{"test_2": {"modify_1"}}, plan.MissingDependencies())
}

func TestDecompose_PlansDoNotShareState(t *testing.T) {
	a := Decompose("refactor")
	a.Steps[1].Dependencies[0] = "mutated"

	b := Decompose("refactor")
	assert.Equal(t, []string{"analyze_0"}, b.Steps[1].Dependencies)
}

func TestBuildPlan(t *testing.T) {
	tests := []struct {
		name         string
		complexities []models.Complexity
		wantTotal    models.Complexity
		wantDuration uint64
		wantApproval bool
	}{
		{"empty", nil, models.ComplexitySimple, 1000, false},
		{"simple", []models.Complexity{models.ComplexitySimple, models.ComplexitySimple}, models.ComplexitySimple, 2000, false},
		{"moderate", []models.Complexity{models.ComplexitySimple, models.ComplexityModerate}, models.ComplexityModerate, 4000, false},
		{"complex", []models.Complexity{models.ComplexityComplex, models.ComplexitySimple, models.ComplexityModerate}, models.ComplexityComplex, 11000, true},
		{"very complex", []models.Complexity{models.ComplexityVeryComplex}, models.ComplexityVeryComplex, 15000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := make([]models.ExecutionStep, len(tt.complexities))
			for i, c := range tt.complexities {
				steps[i] = models.ExecutionStep{ID: string(rune('a' + i)), Complexity: c}
			}

			plan := BuildPlan(steps)
			assert.Equal(t, tt.wantTotal, plan.TotalComplexity)
			assert.Equal(t, tt.wantDuration, plan.EstimatedDurationMs)
			assert.Equal(t, tt.wantApproval, plan.RequiresUserApproval)
			assert.True(t, plan.RollbackAvailable)
		})
	}
}

func TestEstimateDurationMs(t *testing.T) {
	tests := []struct {
		c    models.Complexity
		n    int
		want uint64
	}{
		{models.ComplexitySimple, 0, 1000},
		{models.ComplexitySimple, 3, 2500},
		{models.ComplexityModerate, 4, 6000},
		{models.ComplexityComplex, 2, 9000},
		{models.ComplexityVeryComplex, 3, 25000},
	}

	for _, tt := range tests {
		t.Run(tt.c.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateDurationMs(tt.c, tt.n))
		})
	}
}
