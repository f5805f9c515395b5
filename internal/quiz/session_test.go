package quiz

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizcraft/internal/deck"
)

func testCards() []deck.Card {
	return []deck.Card{
		{ID: "card1", Question: "2+2?", Answer: "4"},
		{ID: "card2", Question: "Capital of France?", Answer: "Paris"},
	}
}

func numberedCards(n int) []deck.Card {
	cards := make([]deck.Card, n)
	for i := range cards {
		cards[i] = deck.Card{
			ID:       string(rune('a' + i)),
			Question: "Question " + string(rune('A'+i)),
			Answer:   "answer" + string(rune('a'+i)),
		}
	}
	return cards
}

func newTestSession(t *testing.T, cards []deck.Card, cfg Config, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	s := New(cards, cfg, opts...)
	t.Cleanup(s.Close)
	require.NoError(t, s.Start())
	return s
}

func TestSession_EndToEndReview(t *testing.T) {
	cfg := Config{Feedback: FeedbackEndReview, Lives: Limited(3), Format: FormatWritten}
	s := newTestSession(t, testCards(), cfg)

	out, err := s.Submit("card1", "22")
	require.NoError(t, err)
	assert.False(t, out.Correct)
	require.NoError(t, s.Advance())

	out, err = s.Submit("card2", "paris")
	require.NoError(t, err)
	assert.True(t, out.Correct)
	require.NoError(t, s.Advance())

	assert.Equal(t, 2, s.Lives())
	assert.Equal(t, 1, s.Streak())
	assert.Equal(t, StateCompleted, s.State())

	c1, ok1 := s.Result("card1")
	c2, ok2 := s.Result("card2")
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.False(t, c1)
	assert.True(t, c2)
	require.NotNil(t, s.UserAnswer("card1"))
	assert.Equal(t, "22", *s.UserAnswer("card1"))

	require.NoError(t, s.Review())
	assert.Equal(t, StateReviewing, s.State())
}

func TestSession_TypoTolerantWrittenAnswers(t *testing.T) {
	cards := []deck.Card{{ID: "w", Question: "Spell it", Answer: "definitely"}}
	s := newTestSession(t, cards, DefaultConfig())

	out, err := s.Submit("w", "definately")
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Equal(t, 1, out.Verdict.Distance)
	assert.False(t, out.Verdict.Exact)
}

func TestSession_LivesDecreaseUntilEnded(t *testing.T) {
	cfg := Config{Feedback: FeedbackInstant, Lives: Limited(3), Format: FormatWritten}
	cards := numberedCards(5)
	s := newTestSession(t, cards, cfg)

	for i, want := range []int{2, 1, 0} {
		card, ok := s.Current()
		require.True(t, ok)
		out, err := s.Submit(card.ID, "completely wrong")
		require.NoError(t, err)
		assert.Equal(t, want, out.Lives)
		assert.Equal(t, want, s.Lives())
		if want > 0 {
			assert.False(t, out.Ended, "answer %d", i)
			assert.Equal(t, StateInProgress, s.State())
			require.NoError(t, s.Advance())
		} else {
			assert.True(t, out.Ended)
			assert.Equal(t, StateEndedByLivesExhausted, s.State())
		}
	}

	_, err := s.Submit(cards[3].ID, "whatever")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, s.Lives())

	// Advancing an ended session is allowed and keeps it ended.
	require.NoError(t, s.Advance())
	assert.Equal(t, StateEndedByLivesExhausted, s.State())
}

func TestSession_PracticeModeNeverLosesLives(t *testing.T) {
	s := newTestSession(t, numberedCards(4), DefaultConfig())
	for _, c := range s.Cards() {
		out, err := s.Submit(c.ID, "nope nope nope")
		require.NoError(t, err)
		assert.False(t, out.Correct)
		assert.Equal(t, UnlimitedLives, out.Lives)
		assert.False(t, out.Ended)
		require.NoError(t, s.Advance())
	}
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, UnlimitedLives, s.Lives())
}

func TestSession_Streaks(t *testing.T) {
	cards := numberedCards(5)
	s := newTestSession(t, cards, DefaultConfig())

	answers := []struct {
		correct       bool
		wantStreak    int
		wantMaxStreak int
	}{
		{true, 1, 1},
		{true, 2, 2},
		{false, 0, 2},
		{true, 1, 2},
		{true, 2, 2},
	}
	prevMax := 0
	for i, a := range answers {
		answer := "wrong wrong wrong"
		if a.correct {
			answer = cards[i].Answer
		}
		out, err := s.Submit(cards[i].ID, answer)
		require.NoError(t, err)
		assert.Equal(t, a.wantStreak, out.Streak, "streak after answer %d", i)
		assert.Equal(t, a.wantMaxStreak, s.MaxStreak(), "max streak after answer %d", i)
		assert.GreaterOrEqual(t, s.MaxStreak(), prevMax)
		prevMax = s.MaxStreak()
		require.NoError(t, s.Advance())
	}
}

func TestSession_Misuse(t *testing.T) {
	s := New(testCards(), DefaultConfig())
	defer s.Close()

	_, err := s.Submit("card1", "4")
	assert.ErrorIs(t, err, ErrInvalidTransition, "submit before start")
	assert.ErrorIs(t, s.Advance(), ErrInvalidTransition, "advance before start")
	assert.ErrorIs(t, s.Review(), ErrInvalidTransition)

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrInvalidTransition, "start twice")

	_, err = s.Submit("nope", "4")
	assert.ErrorIs(t, err, ErrUnknownCard)
	_, err = s.SelfAssess("nope", true)
	assert.ErrorIs(t, err, ErrUnknownCard)
	_, err = s.Options("nope")
	assert.ErrorIs(t, err, ErrUnknownCard)
	assert.ErrorIs(t, s.Goto("nope"), ErrUnknownCard)

	_, err = s.Submit("card1", "4")
	require.NoError(t, err)
	_, err = s.Submit("card1", "4")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	assert.Equal(t, 1, s.Streak(), "rejected submit leaves state untouched")

	assert.ErrorIs(t, s.Complete(), ErrIncomplete)
	require.NoError(t, s.Advance())
	assert.ErrorIs(t, s.Advance(), ErrIncomplete, "last card unanswered")
	assert.Equal(t, StateInProgress, s.State())

	_, err = s.RetakeFailed()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSession_GotoUnanswered(t *testing.T) {
	s := newTestSession(t, testCards(), Config{Feedback: FeedbackEndReview})
	require.NoError(t, s.Advance())
	_, err := s.Submit("card2", "Paris")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Advance(), ErrIncomplete)

	require.NoError(t, s.Goto("card1"))
	assert.Equal(t, 0, s.CurrentIndex())
	_, err = s.Submit("card1", "4")
	require.NoError(t, err)
	require.NoError(t, s.Complete())
	assert.Equal(t, StateCompleted, s.State())
}

func TestSession_EmptyDeckCompletesImmediately(t *testing.T) {
	s := newTestSession(t, nil, DefaultConfig())
	assert.Equal(t, StateCompleted, s.State())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_MultipleChoice(t *testing.T) {
	cards := []deck.Card{
		{ID: "y1", Question: "Storming of the Bastille?", Answer: "1789"},
		{ID: "y2", Question: "Moon landing?", Answer: "1969"},
		{ID: "y3", Question: "Columbus?", Answer: "1492"},
		{ID: "y4", Question: "Hastings?", Answer: "1066"},
	}
	cfg := Config{Format: FormatMultipleChoice, Distractors: 3}
	s := newTestSession(t, cards, cfg)

	opts, err := s.Options("y1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1789", "1969", "1492", "1066"}, opts)

	again, err := s.Options("y1")
	require.NoError(t, err)
	assert.Equal(t, opts, again, "options are stable within a session")

	out, err := s.Submit("y1", "1789")
	require.NoError(t, err)
	assert.True(t, out.Correct)

	// Choice answers are compared exactly, without typo tolerance.
	out, err = s.Submit("y2", "1968")
	require.NoError(t, err)
	assert.False(t, out.Correct)
}

func TestSession_SingleCardSelfAssess(t *testing.T) {
	cards := []deck.Card{{ID: "only", Question: "2+2?", Answer: "4"}}
	s := newTestSession(t, cards, Config{Format: FormatMultipleChoice})

	opts, err := s.Options("only")
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, opts)

	out, err := s.SelfAssess("only", true)
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Nil(t, s.UserAnswer("only"))
	require.NoError(t, s.Advance())
	assert.Equal(t, StateCompleted, s.State())
}

func TestSession_RetakeFailed(t *testing.T) {
	cards := numberedCards(4)
	s := newTestSession(t, cards, DefaultConfig())
	for i, c := range cards {
		answer := c.Answer
		if i%2 == 1 {
			answer = "totally different"
		}
		_, err := s.Submit(c.ID, answer)
		require.NoError(t, err)
		require.NoError(t, s.Advance())
	}
	require.Equal(t, StateCompleted, s.State())

	retake, err := s.RetakeFailed()
	require.NoError(t, err)
	defer retake.Close()

	assert.Equal(t, StateNotStarted, retake.State())
	assert.NotEqual(t, s.ID, retake.ID)
	assert.Equal(t, []deck.Card{cards[1], cards[3]}, retake.Cards())
	assert.Len(t, s.Cards(), 4, "original session untouched")

	require.NoError(t, retake.Start())
	for _, c := range retake.Cards() {
		_, err := retake.Submit(c.ID, c.Answer)
		require.NoError(t, err)
		require.NoError(t, retake.Advance())
	}
	_, err = retake.RetakeFailed()
	assert.ErrorIs(t, err, ErrNothingToRetake)
}

func TestSession_RetakeAfterLivesExhausted(t *testing.T) {
	cards := numberedCards(4)
	s := newTestSession(t, cards, Config{Lives: Limited(1)})
	_, err := s.Submit(cards[0].ID, "wrong wrong wrong")
	require.NoError(t, err)
	require.Equal(t, StateEndedByLivesExhausted, s.State())

	retake, err := s.RetakeFailed()
	require.NoError(t, err)
	assert.Equal(t, []deck.Card{cards[0]}, retake.Cards())
}

func TestSession_RestartShufflesReproducibly(t *testing.T) {
	cards := numberedCards(8)
	mk := func() *Session {
		s := New(cards, DefaultConfig(), WithRand(rand.New(rand.NewPCG(9, 9))))
		require.NoError(t, s.Start())
		_, err := s.Submit(cards[0].ID, cards[0].Answer)
		require.NoError(t, err)
		return s
	}

	a := mk().Restart()
	b := mk().Restart()
	assert.Equal(t, a.Cards(), b.Cards(), "same seed, same order")
	assert.ElementsMatch(t, cards, a.Cards())
	assert.Equal(t, StateNotStarted, a.State())
	assert.Zero(t, a.Streak())
	_, answered := a.Result(cards[0].ID)
	assert.False(t, answered)
}

func TestSession_SummaryAndClock(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	now := start
	clock := func() time.Time { return now }

	s := newTestSession(t, testCards(), DefaultConfig(), WithClock(clock))
	_, err := s.Submit("card1", "5 apples")
	require.NoError(t, err)
	require.NoError(t, s.Advance())
	now = now.Add(90 * time.Second)
	_, err = s.Submit("card2", "Paris")
	require.NoError(t, err)
	require.NoError(t, s.Advance())

	sum := s.Summary()
	assert.Equal(t, StateCompleted, sum.State)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 2, sum.Answered)
	assert.Equal(t, 1, sum.Correct)
	assert.InDelta(t, 0.5, sum.Accuracy(), 1e-9)
	assert.Equal(t, 90*time.Second, sum.Duration)
	require.Len(t, sum.Missed, 1)
	assert.Equal(t, "card1", sum.Missed[0].Card.ID)
	assert.Equal(t, "5 apples", *sum.Missed[0].UserAnswer)
	assert.Equal(t, start, s.StartedAt())
}

func TestParseConfigValues(t *testing.T) {
	f, err := ParseFeedback("review")
	require.NoError(t, err)
	assert.Equal(t, FeedbackEndReview, f)
	_, err = ParseFeedback("later")
	assert.Error(t, err)

	fm, err := ParseFormat("choice")
	require.NoError(t, err)
	assert.Equal(t, FormatMultipleChoice, fm)
	_, err = ParseFormat("oral")
	assert.Error(t, err)

	assert.True(t, Limited(0).Unlimited())
	assert.True(t, Limited(-3).Unlimited())
	assert.False(t, Limited(2).Unlimited())
	assert.Equal(t, "3 lives", Limited(3).String())
}

type fakeExplainer struct {
	mu      sync.Mutex
	calls   []ExplanationRequest
	release chan struct{}
	text    string
	err     error
}

func (f *fakeExplainer) Explain(_ context.Context, req ExplanationRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return f.text, f.err
}

func (f *fakeExplainer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSession_ExplanationDelivered(t *testing.T) {
	ex := &fakeExplainer{text: "2+2 is 4 because..."}
	s := newTestSession(t, testCards(), DefaultConfig(), WithExplainer(ex))

	_, err := s.Submit("card1", "22")
	require.NoError(t, err)
	s.expl.wait()

	text, ok := s.Explanation("card1")
	require.True(t, ok)
	assert.Equal(t, "2+2 is 4 because...", text)

	select {
	case e := <-s.Explanations():
		assert.Equal(t, Explanation{CardID: "card1", Text: "2+2 is 4 because..."}, e)
	default:
		t.Fatal("expected explanation announcement")
	}

	require.Len(t, ex.calls, 1)
	assert.Equal(t, ExplanationRequest{
		CardID:        "card1",
		Question:      "2+2?",
		CorrectAnswer: "4",
		UserAnswer:    "22",
	}, ex.calls[0])
}

func TestSession_ExplanationDiscardedAfterAdvance(t *testing.T) {
	ex := &fakeExplainer{text: "late", release: make(chan struct{})}
	s := newTestSession(t, testCards(), DefaultConfig(), WithExplainer(ex))

	_, err := s.Submit("card1", "22")
	require.NoError(t, err)
	assert.True(t, s.ExplanationPending("card1"))

	require.NoError(t, s.Advance())
	assert.False(t, s.ExplanationPending("card1"))

	close(ex.release)
	s.expl.wait()

	_, ok := s.Explanation("card1")
	assert.False(t, ok, "late explanation must be dropped")
	select {
	case e := <-s.Explanations():
		t.Fatalf("unexpected explanation %+v", e)
	default:
	}
}

func TestSession_ExplanationFailureIsSilent(t *testing.T) {
	ex := &fakeExplainer{err: errors.New("provider down")}
	s := newTestSession(t, testCards(), DefaultConfig(), WithExplainer(ex))

	_, err := s.Submit("card1", "22")
	require.NoError(t, err)
	s.expl.wait()

	_, ok := s.Explanation("card1")
	assert.False(t, ok)
	assert.False(t, s.ExplanationPending("card1"))
	require.NoError(t, s.Advance())
	assert.Equal(t, StateInProgress, s.State())
}

func TestSession_NoExplanationForCorrectAnswer(t *testing.T) {
	ex := &fakeExplainer{text: "unused"}
	s := newTestSession(t, testCards(), DefaultConfig(), WithExplainer(ex))

	_, err := s.Submit("card1", "4")
	require.NoError(t, err)
	s.expl.wait()
	assert.Zero(t, ex.callCount())
}

func TestSession_EndReviewExplainsOnReview(t *testing.T) {
	ex := &fakeExplainer{text: "4 is the sum"}
	cfg := Config{Feedback: FeedbackEndReview, Lives: Practice(), Format: FormatWritten}
	s := newTestSession(t, testCards(), cfg, WithExplainer(ex))

	_, err := s.Submit("card1", "22")
	require.NoError(t, err)
	require.NoError(t, s.Advance())
	_, err = s.Submit("card2", "Paris")
	require.NoError(t, err)
	require.NoError(t, s.Advance())
	s.expl.wait()
	assert.Zero(t, ex.callCount(), "nothing is shown while drilling, so nothing is asked")

	require.NoError(t, s.Review())
	s.expl.wait()
	require.Equal(t, 1, ex.callCount())
	assert.Equal(t, "22", ex.calls[0].UserAnswer)
	text, ok := s.Explanation("card1")
	require.True(t, ok)
	assert.Equal(t, "4 is the sum", text)
}

func TestSession_ReviewSkipsDeliveredExplanations(t *testing.T) {
	ex := &fakeExplainer{text: "explained"}
	cfg := Config{Feedback: FeedbackInstant, Lives: Limited(1), Format: FormatWritten}
	s := newTestSession(t, testCards(), cfg, WithExplainer(ex))

	out, err := s.Submit("card1", "22")
	require.NoError(t, err)
	require.True(t, out.Ended)
	s.expl.wait()

	require.NoError(t, s.Review())
	s.expl.wait()
	assert.Equal(t, 1, ex.callCount())
}

func TestSession_CloseReleasesWaiters(t *testing.T) {
	ex := &fakeExplainer{text: "unused"}
	s := newTestSession(t, testCards(), DefaultConfig(), WithExplainer(ex))

	select {
	case <-s.Done():
		t.Fatal("done before Close")
	default:
	}

	s.Close()
	s.Close()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed")
	}

	_, err := s.Submit("card1", "22")
	require.NoError(t, err)
	s.expl.wait()
	assert.Zero(t, ex.callCount(), "a closed session asks for nothing")
}
