package models

// ActionType identifies the kind of work an ExecutionStep performs.
type ActionType int

const (
	ActionAnalyze ActionType = iota
	ActionModify
	ActionTestRun
	ActionLintCheck
	ActionCommit
	ActionRollback
)

// String returns the string representation of ActionType
func (a ActionType) String() string {
	switch a {
	case ActionAnalyze:
		return "Analyze"
	case ActionModify:
		return "Modify"
	case ActionTestRun:
		return "TestRun"
	case ActionLintCheck:
		return "LintCheck"
	case ActionCommit:
		return "Commit"
	case ActionRollback:
		return "Rollback"
	default:
		return "Unknown"
	}
}

// MarshalYAML renders the action by name so exported plans stay readable.
func (a ActionType) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// ParseActionType is the inverse of ActionType.String.
func ParseActionType(name string) (ActionType, bool) {
	for a := ActionAnalyze; a <= ActionRollback; a++ {
		if a.String() == name {
			return a, true
		}
	}
	return 0, false
}

// Complexity is an ordinal estimate of how hard a step is.
// Values compare by rank: Simple < Moderate < Complex < VeryComplex.
type Complexity int

const (
	ComplexitySimple Complexity = iota
	ComplexityModerate
	ComplexityComplex
	ComplexityVeryComplex
)

// String returns the string representation of Complexity
func (c Complexity) String() string {
	switch c {
	case ComplexitySimple:
		return "Simple"
	case ComplexityModerate:
		return "Moderate"
	case ComplexityComplex:
		return "Complex"
	case ComplexityVeryComplex:
		return "VeryComplex"
	default:
		return "Unknown"
	}
}

// MarshalYAML renders the complexity by name.
func (c Complexity) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// MaxComplexity returns the highest complexity among the given steps,
// or ComplexitySimple when there are none.
func MaxComplexity(steps []ExecutionStep) Complexity {
	total := ComplexitySimple
	for _, step := range steps {
		if step.Complexity > total {
			total = step.Complexity
		}
	}
	return total
}

// ExecutionStep is one atomic unit of work in a plan.
// Steps are created once at decomposition time and never modified.
type ExecutionStep struct {
	ID              string     `yaml:"id"`               // Unique within a plan
	Description     string     `yaml:"description"`      // Human-readable summary
	Action          ActionType `yaml:"action"`           // Kind of work
	TargetFiles     []string   `yaml:"target_files"`     // Files the step touches (may be empty)
	Dependencies    []string   `yaml:"dependencies"`     // Step ids that must complete first
	Complexity      Complexity `yaml:"complexity"`       // Ordinal difficulty estimate
	RollbackEnabled bool       `yaml:"rollback_enabled"` // Whether changes from this step can be rolled back
}
