package distractor

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/abhisek/quizcraft/internal/similarity"
)

// Pattern recognizes a family of language exercises from the question text
// and generates wrong options from the correct answer alone.
type Pattern struct {
	Name     string
	Match    func(question string) bool
	Generate func(answer string, rng Rand) []string
}

// Pattern names.
const (
	PatternTense      = "tense"
	PatternFillBlank  = "fill-blank"
	PatternWordOrder  = "word-order"
	PatternCorrection = "sentence-correction"
)

// Patterns returns the default generators in recognition order.
func Patterns() []Pattern {
	return []Pattern{
		{Name: PatternTense, Match: containsAny(
			"name the tense",
			"identify the tense",
			"which tense",
			"what tense",
			"tense is used",
		), Generate: tenseOptions},
		{Name: PatternFillBlank, Match: isFillBlank, Generate: inflectionOptions},
		{Name: PatternWordOrder, Match: containsAny(
			"word order",
			"correct order",
			"put the words",
			"arrange the words",
			"rearrange",
			"unscramble",
		), Generate: wordOrderOptions},
		{Name: PatternCorrection, Match: containsAny(
			"correct the sentence",
			"correct sentence",
			"grammatically correct",
			"correct form",
			"find the error",
			"find the mistake",
		), Generate: correctionOptions},
	}
}

// containsAny matches single-word keywords against whole words of the
// question and phrases against its folded text.
func containsAny(keywords ...string) func(string) bool {
	return func(question string) bool {
		q := similarity.Fold(question)
		words := similarity.Words(question)
		return lo.SomeBy(keywords, func(k string) bool {
			if strings.Contains(k, " ") {
				return strings.Contains(q, k)
			}
			return lo.Contains(words, k)
		})
	}
}

var blankRe = regexp.MustCompile(`_{2,}`)

func isFillBlank(question string) bool {
	return blankRe.MatchString(question) || containsAny("fill in the blank", "fill in the gap", "fill the blank", "fill the gap")(question)
}

// tenseNames is the vocabulary of English tense names.
var tenseNames = []string{
	"simple present",
	"present continuous",
	"present perfect",
	"present perfect continuous",
	"simple past",
	"past continuous",
	"past perfect",
	"past perfect continuous",
	"simple future",
	"future continuous",
	"future perfect",
	"future perfect continuous",
}

// tenseOptions lists tense names sharing a word with the answer first, then
// the rest, each group in random order.
func tenseOptions(answer string, rng Rand) []string {
	key := similarity.Fold(answer)
	var related, other []string
	for _, name := range tenseNames {
		switch {
		case name == key:
		case similarity.SharedWords(answer, name) > 0:
			related = append(related, name)
		default:
			other = append(other, name)
		}
	}
	shuffle(rng, related)
	shuffle(rng, other)
	return lo.Map(append(related, other...), func(s string, _ int) string { return matchCase(answer, s) })
}

// inflectionOptions derives base, third-person, past and -ing forms of a
// single-word answer, including overgeneralized ones like "goed".
func inflectionOptions(answer string, _ Rand) []string {
	word := strings.TrimSpace(answer)
	if len(strings.Fields(word)) != 1 {
		return nil
	}
	stem := stemOf(similarity.Fold(word))
	forms := []string{stem, thirdPerson(stem), pastForm(stem), ingForm(stem)}
	return lo.Map(forms, func(s string, _ int) string { return matchCase(word, s) })
}

func stemOf(w string) string {
	n := len(w)
	switch {
	case strings.HasSuffix(w, "ing") && n > 5:
		return undouble(w[:n-3])
	case strings.HasSuffix(w, "ied") && n > 4:
		return w[:n-3] + "y"
	case strings.HasSuffix(w, "ed") && n > 4:
		return undouble(w[:n-2])
	case strings.HasSuffix(w, "ies") && n > 4:
		return w[:n-3] + "y"
	case strings.HasSuffix(w, "es") && n > 3 && (sibilant(w[:n-2]) || strings.HasSuffix(w[:n-2], "o")):
		return w[:n-2]
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && n > 3:
		return w[:n-1]
	}
	return w
}

// undouble turns "runn" into "run" but leaves "fall" and "kiss" alone.
func undouble(s string) string {
	n := len(s)
	if n >= 3 && s[n-1] == s[n-2] && !strings.ContainsRune("lsfz", rune(s[n-1])) && !isVowel(s[n-1]) {
		return s[:n-1]
	}
	return s
}

func sibilant(s string) bool {
	return lo.SomeBy([]string{"s", "x", "z", "ch", "sh"}, func(suf string) bool { return strings.HasSuffix(s, suf) })
}

func consonantY(s string) bool {
	n := len(s)
	return n >= 2 && s[n-1] == 'y' && !isVowel(s[n-2])
}

func isVowel(b byte) bool {
	return strings.IndexByte("aeiou", b) >= 0
}

func thirdPerson(stem string) string {
	switch {
	case sibilant(stem), strings.HasSuffix(stem, "o"):
		return stem + "es"
	case consonantY(stem):
		return stem[:len(stem)-1] + "ies"
	}
	return stem + "s"
}

func pastForm(stem string) string {
	switch {
	case strings.HasSuffix(stem, "e"):
		return stem + "d"
	case consonantY(stem):
		return stem[:len(stem)-1] + "ied"
	}
	return stem + "ed"
}

func ingForm(stem string) string {
	if strings.HasSuffix(stem, "e") && !strings.HasSuffix(stem, "ee") && len(stem) > 2 {
		return stem[:len(stem)-1] + "ing"
	}
	return stem + "ing"
}

// maxShuffleAttempts bounds the retries for a full shuffle that differs
// from the answer and from the swaps.
const maxShuffleAttempts = 5

// wordOrderOptions swaps the first pair, swaps the last pair and adds one
// full shuffle of the answer's words.
func wordOrderOptions(answer string, rng Rand) []string {
	words := strings.Fields(answer)
	n := len(words)
	if n < 2 {
		return nil
	}
	join := func(ws []string) string { return strings.Join(ws, " ") }

	out := []string{join(swapped(words, 0, 1))}
	if n >= 3 {
		out = append(out, join(swapped(words, n-2, n-1)))
	}
	for range maxShuffleAttempts {
		ws := slices.Clone(words)
		shuffle(rng, ws)
		v := join(ws)
		if v != join(words) && !slices.Contains(out, v) {
			out = append(out, v)
			break
		}
	}
	return out
}

func swapped(words []string, i, j int) []string {
	ws := slices.Clone(words)
	ws[i], ws[j] = ws[j], ws[i]
	return ws
}

// grammarToggles are the word pairs flipped by sentence correction.
var grammarToggles = [][2]string{
	{"is", "are"},
	{"was", "were"},
	{"don't", "doesn't"},
	{"has", "have"},
	{"do", "does"},
}

// correctionOptions makes one variant per toggle pair by flipping the first
// word of the sentence that belongs to the pair.
func correctionOptions(answer string, _ Rand) []string {
	tokens := strings.Fields(answer)
	var out []string
	for _, pair := range grammarToggles {
		for i, tok := range tokens {
			lead, core, trail := splitPunct(tok)
			alt, ok := toggle(pair, core)
			if !ok {
				continue
			}
			v := slices.Clone(tokens)
			v[i] = lead + matchCase(core, alt) + trail
			out = append(out, strings.Join(v, " "))
			break
		}
	}
	return out
}

func toggle(pair [2]string, word string) (string, bool) {
	w := strings.ReplaceAll(similarity.Fold(word), "’", "'")
	switch w {
	case pair[0]:
		return pair[1], true
	case pair[1]:
		return pair[0], true
	}
	return "", false
}

// splitPunct separates leading and trailing punctuation from a token.
func splitPunct(tok string) (lead, core, trail string) {
	isPunct := func(r rune) bool { return unicode.IsPunct(r) }
	core = strings.TrimLeftFunc(tok, isPunct)
	lead = tok[:len(tok)-len(core)]
	trimmed := strings.TrimRightFunc(core, isPunct)
	trail = core[len(trimmed):]
	return lead, trimmed, trail
}

// matchCase capitalizes s when model starts with an upper-case letter.
func matchCase(model, s string) string {
	m, _ := utf8.DecodeRuneInString(model)
	if !unicode.IsUpper(m) || s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func shuffle[T any](rng Rand, items []T) {
	rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
}
