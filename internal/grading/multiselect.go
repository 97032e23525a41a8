package grading

import "math"

// GradeMultiSelect computes partial credit for a multiple-select question:
// each correct pick earns +1, each wrong pick costs 0.5, the raw sum is
// floored at 0, normalized over the FULL choice set size (not just the
// correct ones), scaled by maxScore and rounded to the nearest integer.
//
// Historical scores depend on the full-set denominator; do not change it to
// the correct-choice count.
//
// An empty selection scores 0 without touching the choice set. A selected id
// outside the question's own choices is an error, not a silent zero.
func GradeMultiSelect(selected []string, choices []Choice, maxScore int) (int, error) {
	if len(selected) == 0 {
		return 0, nil
	}
	correct := make(map[string]bool, len(choices))
	for _, c := range choices {
		correct[c.ID] = c.Correct
	}
	raw := 0.0
	for _, id := range selected {
		isCorrect, ok := correct[id]
		if !ok {
			return 0, &UnknownChoiceError{ID: id}
		}
		if isCorrect {
			raw++
		} else {
			raw -= 0.5
		}
	}
	if raw < 0 {
		raw = 0
	}
	normalized := raw / float64(len(choices)) * float64(maxScore)
	return int(math.Round(normalized)), nil
}
