// Package explain produces short explanations for wrong quiz answers
// using an LLM, with optional caching.
package explain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abhisek/quizcraft/internal/llm"
	"github.com/abhisek/quizcraft/internal/quiz"
	"github.com/abhisek/quizcraft/internal/similarity"
)

// Purpose tags explanation requests in the LLM event log.
const Purpose = "explanation"

// ErrEmptyExplanation is returned when the model answers with no text.
var ErrEmptyExplanation = errors.New("empty explanation")

const systemPrompt = `You are a patient tutor reviewing a flashcard quiz.
Explain in at most three short sentences why the learner's answer is wrong
and what makes the correct answer right. Do not repeat the question.
Respond with JSON only.`

var explanationSchema = &llm.Schema{
	Name:        "answer-explanation",
	Description: "Explanation of why a quiz answer is wrong",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"explanation": map[string]any{
				"type":        "string",
				"description": "Two or three sentences addressed to the learner",
			},
		},
		"required":             []any{"explanation"},
		"additionalProperties": false,
	},
}

type explanationOutput struct {
	Explanation string `json:"explanation"`
}

// Service implements quiz.Explainer over an llm.Provider.
type Service struct {
	provider    llm.Provider
	cache       Cache
	sf          singleflight.Group
	timeout     time.Duration
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

var _ quiz.Explainer = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithCache stores explanations in c.
func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithTimeout bounds each LLM call. Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

// WithMaxTokens sets the response token limit.
func WithMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option { return func(s *Service) { s.temperature = t } }

// WithLogger sets the logger used for cache failures.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// New returns a Service that asks provider for explanations.
func New(provider llm.Provider, opts ...Option) *Service {
	s := &Service{
		provider:  provider,
		timeout:   15 * time.Second,
		maxTokens: 256,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Explain returns an explanation for req. Identical concurrent requests
// share one LLM call; a cancelled caller stops waiting without cancelling
// the shared call for the others.
func (s *Service) Explain(ctx context.Context, req quiz.ExplanationRequest) (string, error) {
	key := Key(req)

	if text, ok := s.cached(ctx, key); ok {
		return text, nil
	}

	ch := s.sf.DoChan(key, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		if text, ok := s.cached(shared, key); ok {
			return text, nil
		}
		text, err := s.generate(shared, req)
		if err != nil {
			return "", err
		}
		if s.cache != nil {
			if err := s.cache.Set(shared, key, text); err != nil {
				s.logger.Warn("explanation cache write failed", "card", req.CardID, "error", err)
			}
		}
		return text, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *Service) cached(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	text, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Debug("explanation cache read failed", "error", err)
		return "", false
	}
	return text, ok
}

func (s *Service) generate(ctx context.Context, req quiz.ExplanationRequest) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx = llm.WithCardID(llm.WithPurpose(ctx, Purpose), req.CardID)

	ask := llm.Ask(systemPrompt, Prompt(req), explanationSchema)
	ask.MaxTokens = s.maxTokens
	ask.Temperature = s.temperature

	resp, err := s.provider.Generate(ctx, ask)
	if err != nil {
		return "", fmt.Errorf("generate explanation: %w", err)
	}

	var out explanationOutput
	if err := resp.Decode(&out); err != nil {
		return "", fmt.Errorf("decode explanation: %w", err)
	}
	text := strings.TrimSpace(out.Explanation)
	if text == "" {
		return "", ErrEmptyExplanation
	}
	return text, nil
}

// Prompt renders the user message for req.
func Prompt(req quiz.ExplanationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", req.Question)
	fmt.Fprintf(&b, "Correct answer: %s\n", req.CorrectAnswer)
	if strings.TrimSpace(req.UserAnswer) == "" {
		b.WriteString("The learner did not know the answer.\n")
	} else {
		fmt.Fprintf(&b, "Learner's answer: %s\n", req.UserAnswer)
	}
	return b.String()
}

// Key identifies a request for caching. Answers differing only in case or
// surrounding space share a key.
func Key(req quiz.ExplanationRequest) string {
	h := sha256.New()
	for _, part := range []string{req.Question, req.CorrectAnswer, similarity.Fold(req.UserAnswer)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
