package distractor

import (
	"cmp"
	"slices"

	"github.com/abhisek/quizcraft/internal/similarity"
)

// Pair is a correct answer and a candidate distractor with their derived
// features computed once.
type Pair struct {
	Correct       string
	Candidate     string
	CorrectType   similarity.AnswerType
	CandidateType similarity.AnswerType
	CorrectLen    int
	CandidateLen  int
}

// NewPair derives the features of correct and candidate.
func NewPair(correct, candidate string) Pair {
	return Pair{
		Correct:       correct,
		Candidate:     candidate,
		CorrectType:   similarity.DetectAnswerType(correct),
		CandidateType: similarity.DetectAnswerType(candidate),
		CorrectLen:    similarity.Len(correct),
		CandidateLen:  similarity.Len(candidate),
	}
}

func (p Pair) lenDiff() int {
	return abs(p.CorrectLen - p.CandidateLen)
}

// Rule is one weighted term of the scoring function. Match returns how many
// times the rule applies; its contribution is Weight times that count.
type Rule struct {
	Name   string
	Weight int
	Match  func(Pair) int

	// Guard marks a rule whose firing disqualifies a candidate from ranking
	// ahead of any candidate it did not fire for.
	Guard bool
}

// ScoredCandidate is a pool answer with its score.
type ScoredCandidate struct {
	Text    string
	Score   int
	Guarded bool
}

// Rule names in the default table.
const (
	RuleLengthClose     = "length-close"
	RuleLengthNear      = "length-near"
	RuleWordCountEqual  = "word-count-equal"
	RuleWordCountNear   = "word-count-near"
	RuleSharedWord      = "shared-word"
	RuleFirstChar       = "first-char"
	RuleBothYear        = "both-year"
	RuleBothNumeric     = "both-numeric"
	RuleBothPersonName  = "both-person-name"
	RuleBothConcept     = "both-concept"
	RuleBothShort       = "both-short"
	RuleLengthFar       = "length-far"
	RuleBrevityGuard    = "brevity-guard"
)

// A correct answer longer than substantialLength makes candidates shorter
// than brevityGuardPercent of its length trip the brevity guard.
const (
	substantialLength   = 30
	brevityGuardPercent = 70
)

// Rules returns the default scoring table in evaluation order.
func Rules() []Rule {
	return []Rule{
		{Name: RuleLengthClose, Weight: 5, Match: when(func(p Pair) bool { return p.lenDiff() < 5 })},
		{Name: RuleLengthNear, Weight: 2, Match: when(func(p Pair) bool { d := p.lenDiff(); return d >= 5 && d < 15 })},
		{Name: RuleWordCountEqual, Weight: 5, Match: when(func(p Pair) bool {
			return p.CorrectType.WordCount == p.CandidateType.WordCount
		})},
		{Name: RuleWordCountNear, Weight: 2, Match: when(func(p Pair) bool {
			d := abs(p.CorrectType.WordCount - p.CandidateType.WordCount)
			return d > 0 && d <= 2
		})},
		{Name: RuleSharedWord, Weight: 5, Match: func(p Pair) int { return similarity.SharedWords(p.Correct, p.Candidate) }},
		{Name: RuleFirstChar, Weight: 1, Match: when(firstCharMatches)},
		{Name: RuleBothYear, Weight: 10, Match: both(func(t similarity.AnswerType) bool { return t.IsYear })},
		{Name: RuleBothNumeric, Weight: 8, Match: both(func(t similarity.AnswerType) bool { return t.IsNumeric })},
		{Name: RuleBothPersonName, Weight: 6, Match: both(func(t similarity.AnswerType) bool { return t.LooksLikePersonName })},
		{Name: RuleBothConcept, Weight: 4, Match: both(func(t similarity.AnswerType) bool { return t.IsConcept })},
		{Name: RuleBothShort, Weight: 3, Match: both(func(t similarity.AnswerType) bool { return t.IsShortAnswer })},
		{Name: RuleLengthFar, Weight: -10, Match: when(func(p Pair) bool { return p.lenDiff() > 15 })},
		{Name: RuleBrevityGuard, Weight: -50, Guard: true, Match: when(func(p Pair) bool {
			return p.CorrectLen > substantialLength && p.CandidateLen*100 < p.CorrectLen*brevityGuardPercent
		})},
	}
}

// Score folds rules over the pair left to right.
func Score(rules []Rule, p Pair) ScoredCandidate {
	sc := ScoredCandidate{Text: p.Candidate}
	for _, r := range rules {
		n := r.Match(p)
		if n == 0 {
			continue
		}
		sc.Score += r.Weight * n
		if r.Guard {
			sc.Guarded = true
		}
	}
	return sc
}

// rank scores candidates and orders them unguarded first, then by score
// descending, keeping pool order between equal scores.
func (s *Synthesizer) rank(correct string, candidates []string) []ScoredCandidate {
	scored := make([]ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = Score(s.rules, NewPair(correct, c))
	}
	slices.SortStableFunc(scored, func(a, b ScoredCandidate) int {
		if a.Guarded != b.Guarded {
			if a.Guarded {
				return 1
			}
			return -1
		}
		return cmp.Compare(b.Score, a.Score)
	})
	return scored
}

func when(pred func(Pair) bool) func(Pair) int {
	return func(p Pair) int {
		if pred(p) {
			return 1
		}
		return 0
	}
}

func both(pred func(similarity.AnswerType) bool) func(Pair) int {
	return when(func(p Pair) bool { return pred(p.CorrectType) && pred(p.CandidateType) })
}

func firstCharMatches(p Pair) bool {
	a := []rune(similarity.Fold(p.Correct))
	b := []rune(similarity.Fold(p.Candidate))
	return len(a) > 0 && len(b) > 0 && a[0] == b[0]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
