package quiz

import (
	"fmt"
	"strings"
)

// Feedback selects when correctness is revealed to the learner.
type Feedback int

const (
	// FeedbackInstant reveals correctness after every answer.
	FeedbackInstant Feedback = iota
	// FeedbackEndReview reveals correctness only once the session is over.
	FeedbackEndReview
)

func (f Feedback) String() string {
	if f == FeedbackEndReview {
		return "review"
	}
	return "instant"
}

// ParseFeedback parses "instant" or "review".
func ParseFeedback(s string) (Feedback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "instant":
		return FeedbackInstant, nil
	case "review", "end-review":
		return FeedbackEndReview, nil
	}
	return 0, fmt.Errorf("unknown feedback mode %q", s)
}

// Format selects how answers are entered.
type Format int

const (
	// FormatWritten grades free text with typo tolerance.
	FormatWritten Format = iota
	// FormatMultipleChoice picks among synthesized options.
	FormatMultipleChoice
)

func (f Format) String() string {
	if f == FormatMultipleChoice {
		return "choice"
	}
	return "written"
}

// ParseFormat parses "written" or "choice".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "written":
		return FormatWritten, nil
	case "choice", "multiple-choice", "mc":
		return FormatMultipleChoice, nil
	}
	return 0, fmt.Errorf("unknown answer format %q", s)
}

// UnlimitedLives is reported as the remaining lives in practice mode.
const UnlimitedLives = -1

// Lives is the elimination policy. A zero Limit means practice mode.
type Lives struct {
	Limit int
}

// Practice returns the policy with no elimination.
func Practice() Lives { return Lives{} }

// Limited returns a policy that ends the session after n wrong answers.
// Non-positive n means practice mode.
func Limited(n int) Lives { return Lives{Limit: max(n, 0)} }

// Unlimited reports whether the policy never ends a session early.
func (l Lives) Unlimited() bool { return l.Limit <= 0 }

func (l Lives) String() string {
	if l.Unlimited() {
		return "practice"
	}
	return fmt.Sprintf("%d lives", l.Limit)
}

// Config parameterizes a session. Feedback, Lives and Format are
// independent of one another.
type Config struct {
	Feedback    Feedback
	Lives       Lives
	Format      Format
	Distractors int // distractors per multiple-choice question
}

// DefaultConfig returns instant feedback, practice mode, written answers.
func DefaultConfig() Config {
	return Config{
		Feedback:    FeedbackInstant,
		Lives:       Practice(),
		Format:      FormatWritten,
		Distractors: 3,
	}
}
