package drill

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizcraft/internal/quiz"
)

// explanationMsg announces a delivered explanation.
type explanationMsg struct {
	SessionID string
	quiz.Explanation
}

// persistedMsg reports the result of writing an event.
type persistedMsg struct {
	What string
	Err  error
}

// waitForExplanation blocks until the session announces an explanation.
// It yields no message once the session is closed.
func waitForExplanation(s *quiz.Session) tea.Cmd {
	id := s.ID
	ch, done := s.Explanations(), s.Done()
	return func() tea.Msg {
		select {
		case e := <-ch:
			return explanationMsg{SessionID: id, Explanation: e}
		case <-done:
			return nil
		}
	}
}
