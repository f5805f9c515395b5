// Package distractor synthesizes plausible wrong options for multiple-choice
// questions.
//
// Resolution order, first applicable branch wins:
//
//  1. Pre-supplied distractors on the card.
//  2. Grammar pattern generators (tense naming, fill-in-the-blank, word
//     order, sentence correction) when the question is recognized and the
//     generator yields at least two options.
//  3. Pool scoring: rank other answers in the session with an ordered table
//     of weighted rules and keep the best positive scores.
//  4. Random sampling from the pool when scoring keeps nothing.
//
// The returned options are always shuffled and contain the correct answer
// exactly once.
package distractor

import (
	"math/rand/v2"

	"github.com/samber/lo"

	"github.com/abhisek/quizcraft/internal/deck"
	"github.com/abhisek/quizcraft/internal/similarity"
)

// DefaultCount is the number of distractors requested when the caller
// passes a non-positive count.
const DefaultCount = 3

// Rand is the randomness used for sampling and shuffling.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Source identifies which branch produced a set of options.
type Source int

const (
	SourceNone Source = iota
	SourcePreSupplied
	SourcePattern
	SourceScored
	SourceRandom
)

func (s Source) String() string {
	switch s {
	case SourcePreSupplied:
		return "pre-supplied"
	case SourcePattern:
		return "pattern"
	case SourceScored:
		return "scored"
	case SourceRandom:
		return "random"
	default:
		return "none"
	}
}

// Result is the outcome of one synthesis.
type Result struct {
	// Options holds the correct answer plus distractors, shuffled.
	Options []string

	// Source is the branch that produced the distractors.
	Source Source

	// Pattern names the grammar pattern used when Source is SourcePattern.
	Pattern string
}

// Synthesizer produces option sets. It is not safe for concurrent use
// when its Rand is not.
type Synthesizer struct {
	rng      Rand
	rules    []Rule
	patterns []Pattern
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithRand sets the randomness source. Use a seeded *rand.Rand for
// reproducible output.
func WithRand(r Rand) Option {
	return func(s *Synthesizer) { s.rng = r }
}

// WithRules replaces the scoring rule table.
func WithRules(rules []Rule) Option {
	return func(s *Synthesizer) { s.rules = rules }
}

// WithPatterns replaces the grammar pattern generators.
func WithPatterns(patterns []Pattern) Option {
	return func(s *Synthesizer) { s.patterns = patterns }
}

// New creates a Synthesizer with the default rules and patterns.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		rules:    Rules(),
		patterns: Patterns(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Synthesize returns the correct answer plus up to count distractors in
// shuffled order. A result of length 1 means the caller should fall back to
// self-assessment.
func (s *Synthesizer) Synthesize(card deck.Card, pool []deck.Card, count int) []string {
	return s.Generate(card, pool, count).Options
}

// Generate is Synthesize with the producing branch reported.
func (s *Synthesizer) Generate(card deck.Card, pool []deck.Card, count int) Result {
	if count <= 0 {
		count = DefaultCount
	}

	if wrong := usable(card.Answer, card.Distractors); len(wrong) > 0 {
		return s.finish(card.Answer, s.sample(wrong, count), SourcePreSupplied, "")
	}

	for _, p := range s.patterns {
		if !p.Match(card.Question) {
			continue
		}
		wrong := usable(card.Answer, p.Generate(card.Answer, s.rng))
		if len(wrong) >= minPatternOptions {
			return s.finish(card.Answer, lo.Slice(wrong, 0, count), SourcePattern, p.Name)
		}
		break
	}

	candidates := poolAnswers(card.Answer, pool)
	if len(candidates) == 0 {
		return Result{Options: []string{card.Answer}, Source: SourceNone}
	}

	ranked := s.rank(card.Answer, candidates)
	positive := lo.Filter(ranked, func(c ScoredCandidate, _ int) bool { return c.Score > 0 })
	if len(positive) > 0 {
		top := lo.Map(lo.Slice(positive, 0, count), func(c ScoredCandidate, _ int) string { return c.Text })
		return s.finish(card.Answer, top, SourceScored, "")
	}

	return s.finish(card.Answer, s.sample(candidates, count), SourceRandom, "")
}

// Rank scores every usable pool answer against the card's answer and
// returns them best first. Guarded candidates always rank after unguarded
// ones.
func (s *Synthesizer) Rank(card deck.Card, pool []deck.Card) []ScoredCandidate {
	return s.rank(card.Answer, poolAnswers(card.Answer, pool))
}

// minPatternOptions is the fewest generated options a pattern must yield.
const minPatternOptions = 2

func (s *Synthesizer) finish(correct string, wrong []string, src Source, pattern string) Result {
	opts := make([]string, 0, len(wrong)+1)
	opts = append(opts, correct)
	opts = append(opts, wrong...)
	s.rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return Result{Options: opts, Source: src, Pattern: pattern}
}

// sample returns up to n items drawn without replacement.
func (s *Synthesizer) sample(items []string, n int) []string {
	picked := append([]string(nil), items...)
	s.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return lo.Slice(picked, 0, n)
}

// usable drops blanks, anything equal to the correct answer and duplicates,
// comparing case-folded forms and keeping first occurrences.
func usable(correct string, options []string) []string {
	key := similarity.Fold(correct)
	kept := lo.Filter(options, func(o string, _ int) bool {
		f := similarity.Fold(o)
		return f != "" && f != key
	})
	return lo.UniqBy(kept, similarity.Fold)
}

// poolAnswers collects the usable answers of the pool in pool order.
func poolAnswers(correct string, pool []deck.Card) []string {
	return usable(correct, lo.Map(pool, func(c deck.Card, _ int) string { return c.Answer }))
}
