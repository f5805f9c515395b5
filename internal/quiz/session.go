// Package quiz sequences a drill over a deck of cards: grading answers,
// tracking lives and streaks, and building retake and restart sessions.
//
// A Session is owned by a single control loop. Only the explanation
// requests it fires run concurrently, and their results are handed back
// through Explanation and Explanations.
package quiz

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizcraft/internal/deck"
	"github.com/abhisek/quizcraft/internal/distractor"
	"github.com/abhisek/quizcraft/internal/grader"
)

// State is the lifecycle stage of a session.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateCompleted
	StateEndedByLivesExhausted
	StateReviewing
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateInProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	case StateEndedByLivesExhausted:
		return "ended"
	case StateReviewing:
		return "reviewing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Finished reports whether the run is over.
func (s State) Finished() bool {
	return s == StateCompleted || s == StateEndedByLivesExhausted || s == StateReviewing
}

// Outcome is the result of answering one card.
type Outcome struct {
	CardID        string
	Correct       bool
	CorrectAnswer string

	// Verdict holds the typo-tolerance details for written answers.
	Verdict grader.Verdict

	Streak int
	Lives  int

	// Ended is true when this answer used up the last life.
	Ended bool
}

// Session is one run through a list of cards.
type Session struct {
	ID string

	cfg      Config
	cards    []deck.Card
	original []deck.Card
	index    map[string]int

	state     State
	lives     int
	current   int
	streak    int
	maxStreak int
	results   map[string]bool
	answers   map[string]*string
	order     []string
	options   map[string][]string

	startedAt time.Time
	endedAt   time.Time

	rng       distractor.Rand
	synth     *distractor.Synthesizer
	explainer Explainer
	expl      *explanations
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithRand sets the randomness used for restarts and option synthesis.
func WithRand(r distractor.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithSynthesizer overrides the distractor synthesizer.
func WithSynthesizer(syn *distractor.Synthesizer) Option {
	return func(s *Session) { s.synth = syn }
}

// WithExplainer enables explanation requests for wrong answers.
func WithExplainer(e Explainer) Option {
	return func(s *Session) { s.explainer = e }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClock sets the time source, for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session over cards. The session has not started yet.
func New(cards []deck.Card, cfg Config, opts ...Option) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		cfg:      cfg,
		cards:    slices.Clone(cards),
		original: slices.Clone(cards),
		state:    StateNotStarted,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.synth == nil {
		s.synth = distractor.New(distractor.WithRand(s.rng))
	}
	s.expl = newExplanations(s.explainer, s.logger, len(s.cards))
	s.index = make(map[string]int, len(s.cards))
	for i, c := range s.cards {
		s.index[c.ID] = i
	}
	s.reset()
	return s
}

// derive creates a fresh session with the same configuration and
// collaborators.
func (s *Session) derive(cards []deck.Card) *Session {
	return New(cards, s.cfg,
		WithRand(s.rng),
		WithSynthesizer(s.synth),
		WithExplainer(s.explainer),
		WithLogger(s.logger),
		WithClock(s.now),
	)
}

func (s *Session) reset() {
	s.lives = UnlimitedLives
	if !s.cfg.Lives.Unlimited() {
		s.lives = s.cfg.Lives.Limit
	}
	s.current = 0
	s.streak = 0
	s.maxStreak = 0
	s.results = make(map[string]bool, len(s.cards))
	s.answers = make(map[string]*string, len(s.cards))
	s.order = nil
	s.options = make(map[string][]string)
}

// Start begins the run. A session without cards completes immediately.
func (s *Session) Start() error {
	if s.state != StateNotStarted {
		return fmt.Errorf("start from %s: %w", s.state, ErrInvalidTransition)
	}
	s.reset()
	s.startedAt = s.now()
	s.state = StateInProgress
	if len(s.cards) == 0 {
		s.finish(StateCompleted)
	}
	s.logger.Debug("quiz session started", "session_id", s.ID, "cards", len(s.cards),
		"feedback", s.cfg.Feedback, "lives", s.cfg.Lives, "format", s.cfg.Format)
	return nil
}

// Current returns the card at the current position.
func (s *Session) Current() (deck.Card, bool) {
	if s.state != StateInProgress || s.current >= len(s.cards) {
		return deck.Card{}, false
	}
	return s.cards[s.current], true
}

// Options returns the multiple-choice options for a card, synthesized once
// per session from the other cards. A single option means the card should
// be self-assessed.
func (s *Session) Options(cardID string) ([]string, error) {
	i, ok := s.index[cardID]
	if !ok {
		return nil, fmt.Errorf("options for %q: %w", cardID, ErrUnknownCard)
	}
	if opts, ok := s.options[cardID]; ok {
		return opts, nil
	}
	card := s.cards[i]
	opts := s.synth.Synthesize(card, deck.Pool(s.cards, card.ID), s.cfg.Distractors)
	s.options[cardID] = opts
	return opts, nil
}

// Submit records an answer for a card. Written answers are graded with typo
// tolerance; multiple-choice answers must equal the correct answer exactly.
func (s *Session) Submit(cardID, answer string) (Outcome, error) {
	card, err := s.answerable(cardID)
	if err != nil {
		return Outcome{}, err
	}

	var verdict grader.Verdict
	if s.cfg.Format == FormatMultipleChoice {
		verdict = grader.Verdict{Correct: answer == card.Answer, Exact: answer == card.Answer}
	} else {
		verdict = grader.Check(answer, card.Answer)
	}
	return s.record(card, &answer, verdict), nil
}

// SelfAssess records the learner's own judgement for a card that has no
// options to choose from.
func (s *Session) SelfAssess(cardID string, knewIt bool) (Outcome, error) {
	card, err := s.answerable(cardID)
	if err != nil {
		return Outcome{}, err
	}
	return s.record(card, nil, grader.Verdict{Correct: knewIt, Exact: knewIt}), nil
}

func (s *Session) answerable(cardID string) (deck.Card, error) {
	i, ok := s.index[cardID]
	if !ok {
		return deck.Card{}, fmt.Errorf("answer %q: %w", cardID, ErrUnknownCard)
	}
	if s.state != StateInProgress {
		return deck.Card{}, fmt.Errorf("answer in %s: %w", s.state, ErrInvalidTransition)
	}
	if _, done := s.results[cardID]; done {
		return deck.Card{}, fmt.Errorf("answer %q: %w", cardID, ErrAlreadyAnswered)
	}
	return s.cards[i], nil
}

func (s *Session) record(card deck.Card, answer *string, v grader.Verdict) Outcome {
	s.results[card.ID] = v.Correct
	s.answers[card.ID] = answer
	s.order = append(s.order, card.ID)

	if v.Correct {
		s.streak++
		s.maxStreak = max(s.maxStreak, s.streak)
	} else {
		s.streak = 0
		if !s.cfg.Lives.Unlimited() && s.lives > 0 {
			s.lives--
		}
		// End-review runs show nothing until the review; Review asks then.
		if s.cfg.Feedback == FeedbackInstant {
			s.expl.request(s.explanationRequest(card))
		}
	}

	out := Outcome{
		CardID:        card.ID,
		Correct:       v.Correct,
		CorrectAnswer: card.Answer,
		Verdict:       v,
		Streak:        s.streak,
		Lives:         s.lives,
	}
	if !s.cfg.Lives.Unlimited() && s.lives == 0 {
		s.finish(StateEndedByLivesExhausted)
		out.Ended = true
	}
	return out
}

// Advance moves past the current card and abandons its pending
// explanation. On the last card it completes the session, which requires
// every card to be answered. Advancing an ended session only abandons the
// pending explanation.
func (s *Session) Advance() error {
	if s.state == StateEndedByLivesExhausted {
		if s.current < len(s.cards) {
			s.expl.cancel(s.cards[s.current].ID)
		}
		return nil
	}
	if s.state != StateInProgress {
		return fmt.Errorf("advance from %s: %w", s.state, ErrInvalidTransition)
	}
	if s.current == len(s.cards)-1 {
		if err := s.Complete(); err != nil {
			return err
		}
		s.expl.cancel(s.cards[s.current].ID)
		return nil
	}
	s.expl.cancel(s.cards[s.current].ID)
	s.current++
	return nil
}

// Goto moves to the card with the given id, abandoning the pending
// explanation of the card being left.
func (s *Session) Goto(cardID string) error {
	i, ok := s.index[cardID]
	if !ok {
		return fmt.Errorf("goto %q: %w", cardID, ErrUnknownCard)
	}
	if s.state != StateInProgress {
		return fmt.Errorf("goto from %s: %w", s.state, ErrInvalidTransition)
	}
	if i != s.current {
		s.expl.cancel(s.cards[s.current].ID)
		s.current = i
	}
	return nil
}

// Complete ends the run once every card has an answer.
func (s *Session) Complete() error {
	if s.state != StateInProgress {
		return fmt.Errorf("complete from %s: %w", s.state, ErrInvalidTransition)
	}
	if len(s.results) < len(s.cards) {
		return fmt.Errorf("%d of %d answered: %w", len(s.results), len(s.cards), ErrIncomplete)
	}
	s.finish(StateCompleted)
	return nil
}

func (s *Session) finish(state State) {
	s.state = state
	s.endedAt = s.now()
	s.logger.Debug("quiz session finished", "session_id", s.ID, "state", state,
		"answered", len(s.results), "max_streak", s.maxStreak)
}

// Review enters the review stage of a finished run and asks for an
// explanation of every missed card that has none yet.
func (s *Session) Review() error {
	if s.state != StateCompleted && s.state != StateEndedByLivesExhausted {
		return fmt.Errorf("review from %s: %w", s.state, ErrInvalidTransition)
	}
	s.state = StateReviewing
	for _, card := range s.Failed() {
		if _, ok := s.expl.get(card.ID); ok || s.expl.isPending(card.ID) {
			continue
		}
		s.expl.request(s.explanationRequest(card))
	}
	return nil
}

func (s *Session) explanationRequest(card deck.Card) ExplanationRequest {
	var user string
	if a := s.answers[card.ID]; a != nil {
		user = *a
	}
	return ExplanationRequest{
		CardID:        card.ID,
		Question:      card.Question,
		CorrectAnswer: card.Answer,
		UserAnswer:    user,
	}
}

// RetakeFailed builds a new, unstarted session over the cards answered
// incorrectly, in their original order. Pending explanations of this
// session are abandoned.
func (s *Session) RetakeFailed() (*Session, error) {
	if !s.state.Finished() {
		return nil, fmt.Errorf("retake from %s: %w", s.state, ErrInvalidTransition)
	}
	failed := s.Failed()
	if len(failed) == 0 {
		return nil, ErrNothingToRetake
	}
	s.Close()
	return s.derive(failed), nil
}

// Restart builds a new, unstarted session over a shuffled copy of the
// original cards. Pending explanations of this session are abandoned.
func (s *Session) Restart() *Session {
	s.Close()
	cards := slices.Clone(s.original)
	s.rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return s.derive(cards)
}

// Close abandons every pending explanation request and closes Done.
func (s *Session) Close() {
	s.expl.close()
}

// Done is closed by Close. Nothing arrives on Explanations after that.
func (s *Session) Done() <-chan struct{} { return s.expl.done }

// Explanation returns the delivered explanation for a card, if any.
func (s *Session) Explanation(cardID string) (string, bool) {
	return s.expl.get(cardID)
}

// ExplanationPending reports whether an explanation is still in flight.
func (s *Session) ExplanationPending(cardID string) bool {
	return s.expl.isPending(cardID)
}

// Explanations announces delivered explanations. Sends never block, so a
// slow reader may miss announcements; Explanation always has the result.
func (s *Session) Explanations() <-chan Explanation {
	return s.expl.ch
}

// Failed returns the cards answered incorrectly, in session order.
func (s *Session) Failed() []deck.Card {
	var failed []deck.Card
	for _, c := range s.cards {
		if correct, ok := s.results[c.ID]; ok && !correct {
			failed = append(failed, c)
		}
	}
	return failed
}

// Result reports whether a card was answered and whether correctly.
func (s *Session) Result(cardID string) (correct, answered bool) {
	correct, answered = s.results[cardID]
	return correct, answered
}

// UserAnswer returns what the learner entered for a card. It is nil for
// unanswered and self-assessed cards.
func (s *Session) UserAnswer(cardID string) *string {
	return s.answers[cardID]
}

// Answered returns the card ids in the order they were answered.
func (s *Session) Answered() []string { return slices.Clone(s.order) }

// State returns the lifecycle stage.
func (s *Session) State() State { return s.state }

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

// Cards returns the session's cards in drill order.
func (s *Session) Cards() []deck.Card { return slices.Clone(s.cards) }

// CurrentIndex returns the position of the current card.
func (s *Session) CurrentIndex() int { return s.current }

// Streak returns the current run of correct answers.
func (s *Session) Streak() int { return s.streak }

// MaxStreak returns the longest run of correct answers so far.
func (s *Session) MaxStreak() int { return s.maxStreak }

func (s *Session) StartedAt() time.Time { return s.startedAt }

func (s *Session) EndedAt() time.Time { return s.endedAt }

// Remaining returns the number of unanswered cards.
func (s *Session) Remaining() int { return len(s.cards) - len(s.results) }

// Lives returns the remaining lives, or UnlimitedLives in practice mode.
func (s *Session) Lives() int { return s.lives }
