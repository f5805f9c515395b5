package quiz

import (
	"time"

	"github.com/abhisek/quizcraft/internal/deck"
)

// Summary is the end-of-run report.
type Summary struct {
	SessionID string
	State     State
	Total     int
	Answered  int
	Correct   int
	MaxStreak int
	Lives     int
	Duration  time.Duration
	Missed    []MissedCard
}

// MissedCard is a wrongly answered card with what the learner entered.
type MissedCard struct {
	Card       deck.Card
	UserAnswer *string
}

// Accuracy returns the fraction of answered cards that were correct.
func (s Summary) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered)
}

// Summary reports the run so far.
func (s *Session) Summary() Summary {
	sum := Summary{
		SessionID: s.ID,
		State:     s.state,
		Total:     len(s.cards),
		Answered:  len(s.results),
		MaxStreak: s.maxStreak,
		Lives:     s.lives,
	}
	for _, ok := range s.results {
		if ok {
			sum.Correct++
		}
	}
	if !s.startedAt.IsZero() {
		end := s.endedAt
		if end.IsZero() {
			end = s.now()
		}
		sum.Duration = end.Sub(s.startedAt)
	}
	for _, c := range s.Failed() {
		sum.Missed = append(sum.Missed, MissedCard{Card: c, UserAnswer: s.answers[c.ID]})
	}
	return sum
}
