// Package summary shows the end-of-run report and the review list.
package summary

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcraft/internal/quiz"
	"github.com/abhisek/quizcraft/internal/router"
	"github.com/abhisek/quizcraft/internal/screen"
	"github.com/abhisek/quizcraft/internal/ui/layout"
	"github.com/abhisek/quizcraft/internal/ui/theme"
)

// Next builds the screen that drills a derived session.
type Next func(*quiz.Session) screen.Screen

type explanationMsg struct {
	SessionID string
}

// SummaryScreen displays the session summary.
type SummaryScreen struct {
	sess *quiz.Session
	deck string
	next Next
	note string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen. next may be nil, which disables
// retake and restart.
func New(sess *quiz.Session, deckTitle string, next Next) *SummaryScreen {
	return &SummaryScreen{sess: sess, deck: deckTitle, next: next}
}

func (s *SummaryScreen) Init() tea.Cmd {
	if s.sess.Config().Feedback == quiz.FeedbackEndReview && s.sess.State() != quiz.StateReviewing {
		if err := s.sess.Review(); err != nil {
			s.note = err.Error()
		}
	}
	return s.waitForExplanation()
}

func (s *SummaryScreen) waitForExplanation() tea.Cmd {
	id := s.sess.ID
	ch, done := s.sess.Explanations(), s.sess.Done()
	return func() tea.Msg {
		select {
		case <-ch:
			return explanationMsg{SessionID: id}
		case <-done:
			return nil
		}
	}
}

func (s *SummaryScreen) Title() string {
	if s.sess.State() == quiz.StateReviewing {
		return "Review"
	}
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	var hints []layout.KeyHint
	if s.next != nil {
		if len(s.sess.Failed()) > 0 {
			hints = append(hints, layout.KeyHint{Key: "R", Description: "Retake missed"})
		}
		hints = append(hints, layout.KeyHint{Key: "S", Description: "Start over"})
	}
	return append(hints, layout.KeyHint{Key: "Q", Description: "Quit"})
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case explanationMsg:
		if msg.SessionID != s.sess.ID {
			return s, nil
		}
		return s, s.waitForExplanation()

	case tea.KeyMsg:
		switch msg.String() {
		case "r", "R":
			if s.next == nil {
				return s, nil
			}
			retake, err := s.sess.RetakeFailed()
			if errors.Is(err, quiz.ErrNothingToRetake) {
				s.note = "Nothing to retake. Every answer was correct."
				return s, nil
			}
			if err != nil {
				s.note = err.Error()
				return s, nil
			}
			return s, s.replace(retake)
		case "s", "S":
			if s.next == nil {
				return s, nil
			}
			return s, s.replace(s.sess.Restart())
		case "q", "Q", "enter", "esc":
			s.sess.Close()
			return s, tea.Quit
		}
	}
	return s, nil
}

func (s *SummaryScreen) replace(sess *quiz.Session) tea.Cmd {
	next := s.next(sess)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.sess.Summary()

	var b strings.Builder

	heading := "Session complete!"
	headStyle := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	if sum.Answered < sum.Total {
		heading = "Out of lives"
		headStyle = theme.Warning
	}
	b.WriteString(headStyle.
		Width(width).
		Align(lipgloss.Center).
		Render(heading))
	b.WriteString("\n\n")

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	b.WriteString(theme.Dim.
		Width(width).
		Align(lipgloss.Center).
		Render(fmt.Sprintf("%s   Duration: %d:%02d", s.deck, mins, secs)))
	b.WriteString("\n\n")

	statsLine := fmt.Sprintf("Answered: %d/%d        Correct: %d        Accuracy: %.0f%%        Best streak: %d",
		sum.Answered, sum.Total, sum.Correct, sum.Accuracy()*100, sum.MaxStreak)
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render(statsLine))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
		strings.Repeat("─", max(min(width-8, 60), 0)))

	if s.sess.State() == quiz.StateReviewing {
		b.WriteString(s.section(width, "Answers", divider))
		for _, c := range s.sess.Cards() {
			correct, answered := s.sess.Result(c.ID)
			if !answered {
				continue
			}
			b.WriteString(s.renderCard(width, c.ID, c.Question, c.Answer, correct))
		}
	} else if len(sum.Missed) > 0 {
		b.WriteString(s.section(width, "Missed", divider))
		for _, m := range sum.Missed {
			b.WriteString(s.renderCard(width, m.Card.ID, m.Card.Question, m.Card.Answer, false))
		}
	}

	if s.note != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render(s.note)))
	}

	return b.String()
}

func (s *SummaryScreen) section(width int, title, divider string) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center,
		theme.Dim.Render(title)) + "\n" +
		lipgloss.PlaceHorizontal(width, lipgloss.Center, divider) + "\n\n"
}

func (s *SummaryScreen) renderCard(width int, cardID, question, answer string, correct bool) string {
	mark := theme.Correct.Render("✓")
	if !correct {
		mark = theme.Incorrect.Render("✗")
	}

	given := "didn't know"
	if ua := s.sess.UserAnswer(cardID); ua != nil {
		given = *ua
	}

	var b strings.Builder
	line := fmt.Sprintf("%s %s", mark, theme.Question.Render(question))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, line))
	b.WriteString("\n")
	detail := fmt.Sprintf("you: %s   answer: %s", given, answer)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Dim.Render(detail)))
	b.WriteString("\n")

	if !correct {
		if text, ok := s.sess.Explanation(cardID); ok {
			exp := theme.Explanation.Width(max(min(width-8, 70), 20)).Render(text)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, exp))
			b.WriteString("\n")
		} else if s.sess.ExplanationPending(cardID) {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render("Fetching an explanation...")))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}
