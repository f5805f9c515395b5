package quiz

import (
	"context"
	"log/slog"
	"sync"
)

// ExplanationRequest asks why an answer was wrong.
type ExplanationRequest struct {
	CardID        string
	Question      string
	CorrectAnswer string
	UserAnswer    string
}

// Explainer produces a natural-language explanation for a wrong answer.
// It may be slow or fail; failures only mean no explanation is shown.
type Explainer interface {
	Explain(ctx context.Context, req ExplanationRequest) (string, error)
}

// Explanation is a delivered explanation for a card.
type Explanation struct {
	CardID string
	Text   string
}

// explanationTask is one in-flight request.
type explanationTask struct {
	cancel context.CancelFunc
}

// explanations tracks in-flight explanation requests keyed by card id.
// A request is cancelled when the learner moves off its card, and a result
// arriving after cancellation is dropped.
type explanations struct {
	explainer Explainer
	logger    *slog.Logger

	mu        sync.Mutex
	pending   map[string]*explanationTask
	delivered map[string]string
	ch        chan Explanation
	done      chan struct{}
	closed    bool
	wg        sync.WaitGroup
}

func newExplanations(explainer Explainer, logger *slog.Logger, buffer int) *explanations {
	return &explanations{
		explainer: explainer,
		logger:    logger,
		pending:   make(map[string]*explanationTask),
		delivered: make(map[string]string),
		ch:        make(chan Explanation, max(buffer, 1)),
		done:      make(chan struct{}),
	}
}

// request starts an explanation for req.CardID, replacing any earlier
// request for the same card.
func (e *explanations) request(req ExplanationRequest) {
	if e.explainer == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	task := &explanationTask{cancel: cancel}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		cancel()
		return
	}
	if prev, ok := e.pending[req.CardID]; ok {
		prev.cancel()
	}
	e.pending[req.CardID] = task
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		text, err := e.explainer.Explain(ctx, req)

		e.mu.Lock()
		defer e.mu.Unlock()
		if e.pending[req.CardID] != task {
			e.logger.Debug("discarding stale explanation", "card_id", req.CardID)
			return
		}
		delete(e.pending, req.CardID)
		cancel()

		if err != nil {
			e.logger.Warn("explanation request failed", "card_id", req.CardID, "error", err)
			return
		}
		if text == "" {
			return
		}
		e.delivered[req.CardID] = text
		select {
		case e.ch <- Explanation{CardID: req.CardID, Text: text}:
		default:
			e.logger.Debug("explanation channel full", "card_id", req.CardID)
		}
	}()
}

// cancel abandons the pending request for cardID, if any.
func (e *explanations) cancel(cardID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.pending[cardID]; ok {
		t.cancel()
		delete(e.pending, cardID)
	}
}

// close abandons every pending request, refuses new ones and releases
// anyone waiting on done. It may be called more than once.
func (e *explanations) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.pending {
		t.cancel()
		delete(e.pending, id)
	}
	if !e.closed {
		e.closed = true
		close(e.done)
	}
}

func (e *explanations) get(cardID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	text, ok := e.delivered[cardID]
	return text, ok
}

func (e *explanations) isPending(cardID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[cardID]
	return ok
}

// wait blocks until every started request has returned.
func (e *explanations) wait() {
	e.wg.Wait()
}
