package recovery

import "github.com/CodedAgent/codeagent/internal/models"

const (
	// MaxAttempts is the attempt number (0-based) from which retries stop
	// and escalation is forced.
	MaxAttempts = 3

	// HighConfidenceThreshold is the exclusive lower bound for a
	// suggestion to count as high confidence.
	HighConfidenceThreshold = 0.8

	// baseDelayMs scales the suggested delay linearly with the attempt.
	baseDelayMs = 100
)

// GenerateRetryStrategy decides how to react to a failure given the
// suggestions it produced and the 0-based attempt counter. It is total:
// every input, including no suggestions, yields a strategy.
func GenerateRetryStrategy(suggestions []models.FixSuggestion, attempt int) models.RetryStrategy {
	autoFixable := 0
	highConfidence := 0
	for _, s := range suggestions {
		if s.AutoFixable {
			autoFixable++
		}
		if s.Confidence > HighConfidenceThreshold {
			highConfidence++
		}
	}

	if attempt < 0 {
		attempt = 0
	}

	return models.RetryStrategy{
		RetryRecommended: attempt < MaxAttempts && len(suggestions) > 0,
		ApplyAutoFixes:   autoFixable > 0 && highConfidence >= autoFixable/2,
		EscalateToUser:   highConfidence == 0 || attempt >= MaxAttempts,
		SuggestedDelayMs: uint64(baseDelayMs * (attempt + 1)),
	}
}

// AutoFixable returns the suggestions that can be applied without a human.
func AutoFixable(suggestions []models.FixSuggestion) []models.FixSuggestion {
	var out []models.FixSuggestion
	for _, s := range suggestions {
		if s.AutoFixable {
			out = append(out, s)
		}
	}
	return out
}
