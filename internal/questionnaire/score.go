package questionnaire

import "math"

// ComputeScore returns the percentage of questions whose answer matches the
// key exactly, rounded to the nearest integer in [0,100].
//
// Every question counts toward the denominator, keyed or not: a template
// mixing scored and unscored questions dilutes the score.
//
// Positioning templates are scored the same way; there the key is an
// expected-answer profile rather than a correctness key. Satisfaction
// templates are never scored (callers pass nil through).
func ComputeScore(answers map[string]string, questions []Question) int {
	if len(questions) == 0 {
		return 0
	}
	matches := 0
	for _, q := range questions {
		if q.CorrectAnswer == nil {
			continue
		}
		// exact string equality, no normalization
		if got, ok := answers[q.ID]; ok && got == *q.CorrectAnswer {
			matches++
		}
	}
	return int(math.Round(100 * float64(matches) / float64(len(questions))))
}

// Scored reports whether responses in this category carry a score.
func Scored(c Category) bool {
	return c == CategoryEvaluation || c == CategoryPositioning
}
