package planner

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/CodedAgent/codeagent/internal/models"
)

var keywordGen = gen.OneConstOf("refactor", "replace", "test", "verify", "lint", "quality", "fix", "add", "REFACTOR", "Lint")

func promptGen() gopter.Gen {
	return gen.SliceOf(gen.OneGenOf(keywordGen, gen.AlphaString())).Map(func(words []string) string {
		return strings.Join(words, " ")
	})
}

func TestDecomposeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("plan always starts with analyze_0", prop.ForAll(
		func(prompt string) bool {
			plan := Decompose(prompt)
			if len(plan.Steps) == 0 {
				return false
			}
			first := plan.Steps[0]
			return first.ID == AnalyzeStepID &&
				first.Complexity == models.ComplexitySimple &&
				len(first.Dependencies) == 0
		},
		promptGen(),
	))

	properties.Property("duration matches formula", prop.ForAll(
		func(prompt string) bool {
			plan := Decompose(prompt)
			n := uint64(len(plan.Steps))
			var want uint64
			switch plan.TotalComplexity {
			case models.ComplexitySimple:
				want = 1000 + 500*n
			case models.ComplexityModerate:
				want = 2000 + 1000*n
			case models.ComplexityComplex:
				want = 5000 + 2000*n
			case models.ComplexityVeryComplex:
				want = 10000 + 5000*n
			}
			return plan.EstimatedDurationMs == want
		},
		promptGen(),
	))

	properties.Property("approval iff complex or above", prop.ForAll(
		func(prompt string) bool {
			plan := Decompose(prompt)
			return plan.RequiresUserApproval == (plan.TotalComplexity >= models.ComplexityComplex)
		},
		promptGen(),
	))

	properties.Property("step ids are unique", prop.ForAll(
		func(prompt string) bool {
			seen := make(map[string]bool)
			for _, s := range Decompose(prompt).Steps {
				if seen[s.ID] {
					return false
				}
				seen[s.ID] = true
			}
			return true
		},
		promptGen(),
	))

	properties.Property("total complexity is the max step complexity", prop.ForAll(
		func(prompt string) bool {
			plan := Decompose(prompt)
			return plan.TotalComplexity == models.MaxComplexity(plan.Steps)
		},
		promptGen(),
	))

	properties.TestingRun(t)
}
