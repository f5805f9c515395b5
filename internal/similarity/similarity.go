// Package similarity provides the string primitives used to grade answers
// and to rank distractor candidates.
package similarity

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/cases"
)

// EditDistance returns the minimum number of single code point insertions,
// deletions and substitutions needed to turn a into b.
func EditDistance(a, b string) int {
	return levenshtein.Distance(a, b, nil)
}

// Fold trims surrounding whitespace and applies Unicode case folding.
func Fold(s string) string {
	// A cases.Caser keeps state and is not safe for concurrent use.
	return cases.Fold().String(strings.TrimSpace(s))
}

// Words splits s on whitespace, strips surrounding punctuation from each
// token and case folds it. Empty tokens are dropped.
func Words(s string) []string {
	fields := strings.Fields(Fold(s))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// SharedWords counts the distinct words of a that also appear in b.
func SharedWords(a, b string) int {
	inB := make(map[string]struct{})
	for _, w := range Words(b) {
		inB[w] = struct{}{}
	}
	seen := make(map[string]struct{})
	n := 0
	for _, w := range Words(a) {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := inB[w]; ok {
			n++
		}
	}
	return n
}

// Len returns the length of s in code points.
func Len(s string) int {
	return len([]rune(s))
}

var (
	numericRe    = regexp.MustCompile(`^\d+$`)
	yearRe       = regexp.MustCompile(`^\d{4}$`)
	personNameRe = regexp.MustCompile(`^\p{Lu}\p{Ll}+ \p{Lu}\p{Ll}+$`)
)

// shortAnswerWords is the largest word count treated as a short answer.
const shortAnswerWords = 3

// AnswerType describes the surface shape of an answer string.
type AnswerType struct {
	IsNumeric           bool
	IsYear              bool
	LooksLikePersonName bool
	IsShortAnswer       bool
	IsConcept           bool
	WordCount           int
}

// DetectAnswerType classifies text with a fixed set of pattern and length
// checks. It is only used to bias scoring, never to reject input.
func DetectAnswerType(text string) AnswerType {
	t := strings.TrimSpace(text)
	words := len(strings.Fields(t))
	numeric := numericRe.MatchString(t)
	return AnswerType{
		IsNumeric:           numeric,
		IsYear:              yearRe.MatchString(t),
		LooksLikePersonName: personNameRe.MatchString(t),
		IsShortAnswer:       words > 0 && words <= shortAnswerWords,
		IsConcept:           words == 1 && !numeric,
		WordCount:           words,
	}
}
