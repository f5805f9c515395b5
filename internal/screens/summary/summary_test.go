package summary

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizcraft/internal/deck"
	"github.com/abhisek/quizcraft/internal/quiz"
	"github.com/abhisek/quizcraft/internal/router"
	"github.com/abhisek/quizcraft/internal/screen"
)

type stubScreen struct {
	sess *quiz.Session
}

func (s *stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return "" }
func (s *stubScreen) Title() string                           { return "stub" }

func key(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r, Text: string(r)} }

var cards = []deck.Card{
	{ID: "c1", Question: "2+2?", Answer: "4"},
	{ID: "c2", Question: "Capital of France?", Answer: "Paris"},
}

// finished plays cards in order, answering each with answers[i].
func finished(t *testing.T, cfg quiz.Config, answers ...string) *quiz.Session {
	t.Helper()
	s := quiz.New(cards, cfg, quiz.WithRand(rand.New(rand.NewPCG(1, 2))))
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, a := range answers {
		c, _ := s.Current()
		if _, err := s.Submit(c.ID, a); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if !s.State().Finished() {
		t.Fatalf("session not finished: %s", s.State())
	}
	return s
}

func withNext(t *testing.T, sess *quiz.Session) (*SummaryScreen, *[]*quiz.Session) {
	t.Helper()
	var built []*quiz.Session
	s := New(sess, "Basics", func(ns *quiz.Session) screen.Screen {
		built = append(built, ns)
		return &stubScreen{sess: ns}
	})
	s.Init()
	return s, &built
}

func replaced(t *testing.T, cmd tea.Cmd) *quiz.Session {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", cmd())
	}
	return msg.Screen.(*stubScreen).sess
}

func TestSummaryScreen_Title(t *testing.T) {
	s, _ := withNext(t, finished(t, quiz.DefaultConfig(), "4", "Paris"))
	if s.Title() != "Session Summary" {
		t.Errorf("Title = %q, want %q", s.Title(), "Session Summary")
	}
}

func TestSummaryScreen_EndReviewEntersReview(t *testing.T) {
	cfg := quiz.DefaultConfig()
	cfg.Feedback = quiz.FeedbackEndReview
	sess := finished(t, cfg, "22", "Paris")
	s, _ := withNext(t, sess)

	if sess.State() != quiz.StateReviewing {
		t.Errorf("state = %s, want reviewing", sess.State())
	}
	if s.Title() != "Review" {
		t.Errorf("Title = %q, want Review", s.Title())
	}
	view := s.View(100, 40)
	for _, want := range []string{"Answers", "2+2?", "Capital of France?", "you: 22"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSummaryScreen_MissedList(t *testing.T) {
	s, _ := withNext(t, finished(t, quiz.DefaultConfig(), "4", "Rome"))
	view := s.View(100, 40)
	if !strings.Contains(view, "Missed") || !strings.Contains(view, "you: Rome") {
		t.Errorf("expected missed card in view:\n%s", view)
	}
	if strings.Contains(view, "2+2?") {
		t.Error("correct card should not be listed")
	}
	if !strings.Contains(view, "Accuracy: 50%") {
		t.Error("expected accuracy in view")
	}
}

func TestSummaryScreen_OutOfLives(t *testing.T) {
	cfg := quiz.DefaultConfig()
	cfg.Lives = quiz.Limited(1)
	s, _ := withNext(t, finished(t, cfg, "22"))
	if !strings.Contains(s.View(100, 40), "Out of lives") {
		t.Error("expected out-of-lives heading")
	}
}

func TestSummaryScreen_RetakeMissed(t *testing.T) {
	s, built := withNext(t, finished(t, quiz.DefaultConfig(), "4", "Rome"))
	_, cmd := s.Update(key('r'))

	retake := replaced(t, cmd)
	if len(*built) != 1 {
		t.Fatalf("next called %d times, want 1", len(*built))
	}
	got := retake.Cards()
	if len(got) != 1 || got[0].ID != "c2" {
		t.Errorf("retake cards = %v, want only c2", got)
	}
	if retake.State() != quiz.StateNotStarted {
		t.Errorf("retake state = %s, want not-started", retake.State())
	}
}

func TestSummaryScreen_RetakeNothingMissed(t *testing.T) {
	s, built := withNext(t, finished(t, quiz.DefaultConfig(), "4", "Paris"))
	_, cmd := s.Update(key('r'))
	if cmd != nil {
		t.Error("expected no command when nothing was missed")
	}
	if len(*built) != 0 {
		t.Error("next should not be called")
	}
	if !strings.Contains(s.View(100, 40), "Nothing to retake") {
		t.Error("expected a note in the view")
	}
}

func TestSummaryScreen_Restart(t *testing.T) {
	s, _ := withNext(t, finished(t, quiz.DefaultConfig(), "4", "Rome"))
	_, cmd := s.Update(key('s'))
	restarted := replaced(t, cmd)
	if len(restarted.Cards()) != len(cards) {
		t.Errorf("restart has %d cards, want %d", len(restarted.Cards()), len(cards))
	}
}

func TestSummaryScreen_Quit(t *testing.T) {
	for _, msg := range []tea.KeyPressMsg{key('q'), {Code: tea.KeyEnter}, {Code: tea.KeyEscape}} {
		s, _ := withNext(t, finished(t, quiz.DefaultConfig(), "4", "Paris"))
		_, cmd := s.Update(msg)
		if cmd == nil {
			t.Fatalf("%s: expected a command", msg.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected QuitMsg", msg.String())
		}
	}
}

func TestSummaryScreen_NoNext(t *testing.T) {
	s := New(finished(t, quiz.DefaultConfig(), "4", "Rome"), "Basics", nil)
	if _, cmd := s.Update(key('r')); cmd != nil {
		t.Error("retake without next should do nothing")
	}
	hints := s.KeyHints()
	if len(hints) != 1 || hints[0].Key != "Q" {
		t.Errorf("KeyHints = %v, want only quit", hints)
	}
}

func TestSummaryScreen_KeyHints(t *testing.T) {
	s, _ := withNext(t, finished(t, quiz.DefaultConfig(), "4", "Rome"))
	if got := len(s.KeyHints()); got != 3 {
		t.Errorf("KeyHints length = %d, want 3", got)
	}
}

func TestSummaryScreen_ExplanationWaitEndsOnClose(t *testing.T) {
	s, _ := withNext(t, finished(t, quiz.DefaultConfig(), "22", "Paris"))
	wait := s.waitForExplanation()

	got := make(chan tea.Msg, 1)
	go func() { got <- wait() }()
	s.Update(key('q'))

	select {
	case msg := <-got:
		if msg != nil {
			t.Errorf("msg = %v, want nil", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("wait still blocked after quitting")
	}
}
