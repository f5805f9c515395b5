// Package grader decides whether a free-text answer counts as correct,
// tolerating a number of typos proportional to the answer's length.
package grader

import "github.com/abhisek/quizcraft/internal/similarity"

// Verdict is the detailed outcome of grading one answer.
type Verdict struct {
	Correct  bool
	Exact    bool // normalized strings were identical
	Distance int  // edit distance between normalized strings
	Budget   int  // allowed typos for this pair
}

// Grade compares the learner's answer against the correct answer.
// Returns true if the answer is correct.
//
// Normalization rules:
// - Whitespace is trimmed
// - Comparison is case-insensitive (Unicode case folding)
// - Identical normalized strings are always correct
// - Otherwise the edit distance must fit within TypoBudget
func Grade(userAnswer, correctAnswer string) bool {
	return Check(userAnswer, correctAnswer).Correct
}

// Check grades like Grade and reports the distance and budget used.
func Check(userAnswer, correctAnswer string) Verdict {
	user := similarity.Fold(userAnswer)
	correct := similarity.Fold(correctAnswer)
	if user == correct {
		return Verdict{Correct: true, Exact: true, Budget: TypoBudget(similarity.Len(user))}
	}

	budget := TypoBudget(max(similarity.Len(user), similarity.Len(correct)))
	dist := similarity.EditDistance(user, correct)
	return Verdict{
		Correct:  dist <= budget,
		Distance: dist,
		Budget:   budget,
	}
}

// TypoBudget returns the number of edits tolerated for answers whose longer
// side is maxLen code points.
func TypoBudget(maxLen int) int {
	switch {
	case maxLen <= 4:
		return 1
	case maxLen <= 8:
		return 2
	case maxLen <= 15:
		return 3
	default:
		return maxLen / 5
	}
}
