// Package grading holds the scoring functions: exact-match and AI-assisted
// essay grading, single-choice grading, and multiple-select partial credit.
// All scores land on [minScore, maxScore] integers; the question's weight is
// baked in here, so aggregation is a plain sum.
package grading

// GradeExact scores a free-text answer by normalized string equality against
// the key: maxScore on a match, minScore otherwise. Pure and synchronous.
func GradeExact(answer, key string, minScore, maxScore int) int {
	if normalize(answer) == normalize(key) {
		return maxScore
	}
	return minScore
}
