// Package drill is the screen that runs a quiz session card by card.
package drill

import (
	"context"
	"log/slog"
	"slices"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizcraft/internal/deck"
	"github.com/abhisek/quizcraft/internal/quiz"
	"github.com/abhisek/quizcraft/internal/router"
	"github.com/abhisek/quizcraft/internal/screen"
	"github.com/abhisek/quizcraft/internal/screens/summary"
	"github.com/abhisek/quizcraft/internal/store"
	"github.com/abhisek/quizcraft/internal/ui/components"
	"github.com/abhisek/quizcraft/internal/ui/layout"
)

// Recorder persists answers and finished sessions.
type Recorder interface {
	AppendAnswerEvent(ctx context.Context, data store.AnswerEventData) error
	AppendSessionEvent(ctx context.Context, data store.SessionEventData) error
}

type phase int

const (
	phaseQuestion phase = iota
	phaseFeedback
	phaseQuitConfirm
)

type inputMode int

const (
	inputWritten inputMode = iota
	inputChoice
	inputSelfAssess
)

// DrillScreen implements screen.Screen for an active quiz session.
type DrillScreen struct {
	sess     *quiz.Session
	deck     string
	recorder Recorder
	logger   *slog.Logger

	card      deck.Card
	mode      inputMode
	phase     phase
	prevPhase phase
	input     components.AnswerInput
	choice    components.Choices
	outcome   *quiz.Outcome
	revealed  bool
	errMsg    string
}

var _ screen.Screen = (*DrillScreen)(nil)
var _ screen.KeyHintProvider = (*DrillScreen)(nil)
var _ screen.StatusProvider = (*DrillScreen)(nil)

// New creates a DrillScreen over sess. recorder may be nil.
func New(sess *quiz.Session, deckTitle string, recorder Recorder, logger *slog.Logger) *DrillScreen {
	if logger == nil {
		logger = slog.Default()
	}
	return &DrillScreen{
		sess:     sess,
		deck:     deckTitle,
		recorder: recorder,
		logger:   logger,
	}
}

// Session returns the session being drilled.
func (d *DrillScreen) Session() *quiz.Session {
	return d.sess
}

func (d *DrillScreen) Init() tea.Cmd {
	if d.sess.State() == quiz.StateNotStarted {
		if err := d.sess.Start(); err != nil {
			d.errMsg = err.Error()
			return nil
		}
	}
	if d.sess.State().Finished() {
		return d.finish()
	}
	return tea.Batch(d.prepare(), waitForExplanation(d.sess))
}

func (d *DrillScreen) Title() string {
	if d.deck == "" {
		return "Drill"
	}
	return d.deck
}

func (d *DrillScreen) Status() string {
	return statusLine(d.sess)
}

func (d *DrillScreen) KeyHints() []layout.KeyHint {
	switch {
	case d.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Quit"}}
	case d.phase == phaseQuitConfirm:
		return []layout.KeyHint{
			{Key: "Y", Description: "End drill"},
			{Key: "N", Description: "Keep going"},
		}
	case d.phase == phaseFeedback:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case d.mode == inputSelfAssess:
		return []layout.KeyHint{
			{Key: "Space", Description: "Reveal"},
			{Key: "Y", Description: "Knew it"},
			{Key: "N", Description: "Didn't know"},
			{Key: "Esc", Description: "Quit"},
		}
	case d.mode == inputChoice:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Move"},
			{Key: "A-" + components.OptionLabel(len(d.choice.Options)-1), Description: "Pick"},
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Submit"},
		{Key: "Esc", Description: "Quit"},
	}
}

func (d *DrillScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case explanationMsg:
		if msg.SessionID != d.sess.ID {
			return d, nil
		}
		// The view reads the session directly; keep listening.
		return d, waitForExplanation(d.sess)

	case persistedMsg:
		if msg.Err != nil {
			d.logger.Warn("failed to record event", "what", msg.What, "error", msg.Err)
		}
		return d, nil

	case tea.KeyMsg:
		return d.handleKey(msg)
	}

	if d.phase == phaseQuestion && d.mode == inputWritten {
		var cmd tea.Cmd
		d.input, cmd = d.input.Update(msg)
		return d, cmd
	}
	return d, nil
}

func (d *DrillScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if d.errMsg != "" {
		d.sess.Close()
		return d, tea.Quit
	}

	switch d.phase {
	case phaseQuitConfirm:
		switch key {
		case "y", "Y":
			d.sess.Close()
			return d, tea.Sequence(d.recordSession(), tea.Quit)
		case "n", "N", "esc":
			d.phase = d.prevPhase
		}
		return d, nil

	case phaseFeedback:
		if key == "esc" {
			return d.confirmQuit()
		}
		return d, d.advance()
	}

	if key == "esc" {
		return d.confirmQuit()
	}

	switch d.mode {
	case inputSelfAssess:
		switch key {
		case "space":
			d.revealed = !d.revealed
		case "y", "Y":
			return d.selfAssess(true)
		case "n", "N":
			return d.selfAssess(false)
		}
		return d, nil

	case inputChoice:
		var cmd tea.Cmd
		d.choice, cmd = d.choice.Update(msg)
		if chosen, ok := d.choice.Picked(); ok {
			return d.submit(chosen)
		}
		return d, cmd
	}

	if key == "enter" {
		if d.input.Blank() {
			return d, nil
		}
		return d.submit(d.input.Value())
	}
	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return d, cmd
}

func (d *DrillScreen) confirmQuit() (screen.Screen, tea.Cmd) {
	d.prevPhase = d.phase
	d.phase = phaseQuitConfirm
	return d, nil
}

// prepare sets up input for the current card.
func (d *DrillScreen) prepare() tea.Cmd {
	card, ok := d.sess.Current()
	if !ok {
		return nil
	}
	d.card = card
	d.outcome = nil
	d.revealed = false
	d.phase = phaseQuestion

	if d.sess.Config().Format == quiz.FormatMultipleChoice {
		opts, err := d.sess.Options(card.ID)
		if err != nil {
			d.errMsg = err.Error()
			return nil
		}
		if len(opts) <= 1 {
			d.mode = inputSelfAssess
			return nil
		}
		d.mode = inputChoice
		d.choice = components.NewChoices(opts, slices.Index(opts, card.Answer))
		return nil
	}

	d.mode = inputWritten
	d.input = components.NewAnswerInput("Type your answer...", 120)
	return d.input.Init()
}

func (d *DrillScreen) submit(answer string) (screen.Screen, tea.Cmd) {
	out, err := d.sess.Submit(d.card.ID, answer)
	if err != nil {
		d.errMsg = err.Error()
		return d, nil
	}
	if d.mode == inputWritten {
		d.input.Lock(out.Correct)
	}
	return d.answered(out, &answer)
}

func (d *DrillScreen) selfAssess(knewIt bool) (screen.Screen, tea.Cmd) {
	out, err := d.sess.SelfAssess(d.card.ID, knewIt)
	if err != nil {
		d.errMsg = err.Error()
		return d, nil
	}
	return d.answered(out, nil)
}

func (d *DrillScreen) answered(out quiz.Outcome, answer *string) (screen.Screen, tea.Cmd) {
	d.outcome = &out
	record := d.recordAnswer(out, answer)
	if d.sess.Config().Feedback == quiz.FeedbackInstant {
		d.phase = phaseFeedback
		return d, record
	}
	return d, tea.Batch(record, d.advance())
}

// advance moves to the next card or, when the run is over, to the summary.
func (d *DrillScreen) advance() tea.Cmd {
	if err := d.sess.Advance(); err != nil {
		d.errMsg = err.Error()
		return nil
	}
	if d.sess.State().Finished() {
		return d.finish()
	}
	return d.prepare()
}

func (d *DrillScreen) finish() tea.Cmd {
	next := func(s *quiz.Session) screen.Screen {
		return New(s, d.deck, d.recorder, d.logger)
	}
	sum := summary.New(d.sess, d.deck, next)
	return tea.Batch(
		d.recordSession(),
		func() tea.Msg { return router.ReplaceScreenMsg{Screen: sum} },
	)
}

func (d *DrillScreen) recordAnswer(out quiz.Outcome, answer *string) tea.Cmd {
	if d.recorder == nil {
		return nil
	}
	data := store.AnswerEventData{
		SessionID:     d.sess.ID,
		CardID:        d.card.ID,
		Question:      d.card.Question,
		CorrectAnswer: d.card.Answer,
		UserAnswer:    answer,
		Correct:       out.Correct,
		Exact:         out.Verdict.Exact,
		Distance:      out.Verdict.Distance,
		Format:        d.sess.Config().Format.String(),
	}
	recorder := d.recorder
	return func() tea.Msg {
		return persistedMsg{What: "answer", Err: recorder.AppendAnswerEvent(context.Background(), data)}
	}
}

func (d *DrillScreen) recordSession() tea.Cmd {
	if d.recorder == nil {
		return nil
	}
	data := SessionEvent(d.sess, d.deck)
	recorder := d.recorder
	return func() tea.Msg {
		return persistedMsg{What: "session", Err: recorder.AppendSessionEvent(context.Background(), data)}
	}
}

// SessionEvent converts a session into its stored form.
func SessionEvent(s *quiz.Session, deckTitle string) store.SessionEventData {
	sum := s.Summary()
	cfg := s.Config()
	return store.SessionEventData{
		SessionID: sum.SessionID,
		Deck:      deckTitle,
		State:     sum.State.String(),
		Feedback:  cfg.Feedback.String(),
		Format:    cfg.Format.String(),
		Total:     sum.Total,
		Answered:  sum.Answered,
		Correct:   sum.Correct,
		MaxStreak: sum.MaxStreak,
		LivesLeft: sum.Lives,
		StartedAt: s.StartedAt(),
		EndedAt:   s.EndedAt(),
	}
}
