package models

import "sort"

// ExecutionPlan is the ordered, immutable list of steps produced from a
// task description, together with its aggregate estimates.
type ExecutionPlan struct {
	Steps                []ExecutionStep `yaml:"steps"`                  // Creation order, not topologically sorted
	TotalComplexity      Complexity      `yaml:"total_complexity"`       // Max complexity across steps
	EstimatedDurationMs  uint64          `yaml:"estimated_duration_ms"`  // Derived from complexity and step count
	RequiresUserApproval bool            `yaml:"requires_user_approval"` // True for Complex and above
	RollbackAvailable    bool            `yaml:"rollback_available"`     // Whether staged changes may be rolled back
}

// StepCount returns the number of steps in the plan.
func (p *ExecutionPlan) StepCount() int {
	return len(p.Steps)
}

// Step returns the step with the given id.
func (p *ExecutionPlan) Step(id string) (*ExecutionStep, bool) {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			return &p.Steps[i], true
		}
	}
	return nil, false
}

// MissingDependencies maps step ids to the dependency ids they reference
// that name no step in the plan. Such a step can never become runnable
// through normal progression. The plan itself is left untouched.
func (p *ExecutionPlan) MissingDependencies() map[string][]string {
	known := make(map[string]bool, len(p.Steps))
	for _, step := range p.Steps {
		known[step.ID] = true
	}

	missing := make(map[string][]string)
	for _, step := range p.Steps {
		for _, dep := range step.Dependencies {
			if !known[dep] {
				missing[step.ID] = append(missing[step.ID], dep)
			}
		}
	}
	return missing
}

// CyclicSteps returns, sorted, the ids of steps that can never become
// runnable because they sit on a dependency cycle or wait on a step that
// does. Dependencies naming no step are left to MissingDependencies.
func (p *ExecutionPlan) CyclicSteps() []string {
	known := make(map[string]bool, len(p.Steps))
	for _, step := range p.Steps {
		known[step.ID] = true
	}

	waiting := make(map[string]int, len(p.Steps))
	dependents := make(map[string][]string)
	for _, step := range p.Steps {
		if _, ok := waiting[step.ID]; !ok {
			waiting[step.ID] = 0
		}
		for _, dep := range step.Dependencies {
			if !known[dep] {
				continue
			}
			waiting[step.ID]++
			dependents[dep] = append(dependents[dep], step.ID)
		}
	}

	var ready []string
	for id, n := range waiting {
		if n == 0 {
			ready = append(ready, id)
		}
	}
	for len(ready) > 0 {
		id := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		delete(waiting, id)
		for _, next := range dependents[id] {
			waiting[next]--
			if waiting[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(waiting) == 0 {
		return nil
	}
	stuck := make([]string, 0, len(waiting))
	for id := range waiting {
		stuck = append(stuck, id)
	}
	sort.Strings(stuck)
	return stuck
}
