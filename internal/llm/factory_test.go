package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizcraft/internal/store"
)

var envKeys = []string{
	"QUIZCRAFT_LLM_PROVIDER",
	"QUIZCRAFT_ANTHROPIC_API_KEY", "QUIZCRAFT_ANTHROPIC_MODEL", "QUIZCRAFT_ANTHROPIC_BASE_URL",
	"QUIZCRAFT_OPENAI_API_KEY", "QUIZCRAFT_OPENAI_MODEL", "QUIZCRAFT_OPENAI_BASE_URL",
	"QUIZCRAFT_GEMINI_API_KEY", "QUIZCRAFT_GEMINI_MODEL", "QUIZCRAFT_GEMINI_BASE_URL",
	"QUIZCRAFT_OPENROUTER_API_KEY", "QUIZCRAFT_OPENROUTER_MODEL", "QUIZCRAFT_OPENROUTER_BASE_URL",
	"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestResolveConfig(t *testing.T) {
	t.Run("explicit provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("QUIZCRAFT_LLM_PROVIDER", "openai")
		t.Setenv("QUIZCRAFT_OPENAI_API_KEY", "sk-test")
		t.Setenv("QUIZCRAFT_OPENAI_MODEL", "gpt-nano")

		cfg, err := ResolveConfig()
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.Provider)
		assert.Equal(t, "gpt-nano", cfg.OpenAI.Model)
	})

	t.Run("base url override", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("QUIZCRAFT_ANTHROPIC_API_KEY", "sk-ant")
		t.Setenv("QUIZCRAFT_ANTHROPIC_BASE_URL", "http://proxy.local")

		cfg, err := ResolveConfig()
		require.NoError(t, err)
		assert.Equal(t, "anthropic", cfg.Provider)
		assert.Equal(t, "http://proxy.local", cfg.Anthropic.BaseURL)
		assert.Equal(t, "claude-haiku", cfg.Anthropic.Model)
	})

	t.Run("discovers vendor key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

		cfg, err := ResolveConfig()
		require.NoError(t, err)
		assert.Equal(t, "anthropic", cfg.Provider)
		assert.Equal(t, "sk-ant", cfg.Anthropic.APIKey)
	})

	t.Run("gemini wins discovery", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "sk-oai")
		t.Setenv("GEMINI_API_KEY", "g-key")

		cfg, err := ResolveConfig()
		require.NoError(t, err)
		assert.Equal(t, "gemini", cfg.Provider)
	})

	t.Run("nothing configured", func(t *testing.T) {
		clearEnv(t)
		_, err := ResolveConfig()
		assert.ErrorContains(t, err, "QUIZCRAFT_ANTHROPIC_API_KEY")
	})
}

func TestConfig_SetModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "gemini"
	cfg.SetModel("gemini-pro")
	assert.Equal(t, "gemini-pro", cfg.Gemini.Model)

	cfg.SetModel("")
	assert.Equal(t, "gemini-pro", cfg.Gemini.Model)
	assert.Equal(t, "claude-haiku", cfg.Anthropic.Model)

	cfg.Provider = "mock"
	cfg.SetModel("anything")
	assert.Equal(t, DefaultConfig().OpenAI, cfg.OpenAI)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(t.Context(), Config{Provider: "mock"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	_, err = NewProvider(t.Context(), Config{Provider: "carrier-pigeon"}, nil, nil)
	assert.ErrorContains(t, err, "unknown LLM provider")

	_, err = NewProvider(t.Context(), Config{Provider: "openai"}, nil, nil)
	assert.ErrorContains(t, err, "initializing openai provider")

	cfg := DefaultConfig()
	cfg.Provider = "openrouter"
	cfg.OpenRouter.APIKey = "sk-or"
	p, err = NewProvider(t.Context(), cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.0-flash-exp", p.ModelID())
}

type recorder struct {
	events []store.LLMRequestEventData
	err    error
}

func (r *recorder) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"explanation":"ok"}`), Usage: Usage{InputTokens: 12, OutputTokens: 4}},
		MockResponse{Err: &ErrProviderUnavailable{}},
	)
	rec := &recorder{}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := WithLogging(mock, "mock", rec, logger)

	ctx := WithCardID(WithPurpose(t.Context(), "explanation"), "fr")
	_, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "why?"}}})
	require.NoError(t, err)
	_, err = p.Generate(ctx, Request{})
	require.Error(t, err)

	require.Len(t, rec.events, 2)
	first := rec.events[0]
	assert.Equal(t, "mock", first.Provider)
	assert.Equal(t, "explanation", first.Purpose)
	assert.Equal(t, "fr", first.CardID)
	assert.True(t, first.Success)
	assert.Equal(t, 12, first.InputTokens)
	assert.Contains(t, first.RequestBody, "[system]\nsys")
	assert.Contains(t, first.RequestBody, "[user]\nwhy?")
	assert.Equal(t, `{"explanation":"ok"}`, first.ResponseBody)

	assert.False(t, rec.events[1].Success)
	assert.NotEmpty(t, rec.events[1].ErrorMessage)
	assert.Contains(t, buf.String(), "llm request failed")
}

func TestLoggingProvider_RecorderFailureIsNotFatal(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	var buf bytes.Buffer
	p := WithLogging(mock, "mock", &recorder{err: errors.New("disk full")}, slog.New(slog.NewTextHandler(&buf, nil)))

	_, err := p.Generate(t.Context(), Request{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "disk full")
}

func TestWithTimeout(t *testing.T) {
	slow := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`), Delay: time.Minute})
	p := WithTimeout(slow, 10*time.Millisecond)
	_, err := p.Generate(t.Context(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "mock", p.ModelID())

	mock := NewMockProvider()
	assert.Same(t, Provider(mock), WithTimeout(mock, 0))
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4.1-mini")
	require.NotNil(t, c)
	assert.InDelta(t, 0.4+1.6, c.Cost(1_000_000, 1_000_000), 1e-9)
	assert.Nil(t, LookupCost("no-such-model"))
}
