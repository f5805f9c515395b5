package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_ReplaysInOrder(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"explanation":"first"}`), Usage: Usage{InputTokens: 10, OutputTokens: 5}},
	)
	mock.AddResponse(MockJSON(map[string]string{"explanation": "second"}))

	first, err := mock.Generate(t.Context(), Ask("sys", "why 4?", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"explanation":"first"}`, string(first.Content))
	assert.Equal(t, 15, first.Usage.Total())
	assert.Equal(t, StopEnd, first.StopReason)
	assert.Equal(t, "mock", first.Model)

	second, err := mock.Generate(t.Context(), Ask("sys", "why Paris?", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"explanation":"second"}`, string(second.Content))

	require.Equal(t, 2, mock.CallCount())
	assert.Equal(t, "why Paris?", mock.Calls[1].Messages[0].Content)
	assert.Equal(t, "sys", mock.Calls[0].System)
	assert.Equal(t, "mock", mock.ModelID())

	_, err = mock.Generate(t.Context(), Request{})
	var unavail *ErrProviderUnavailable
	assert.True(t, errors.As(err, &unavail), "an empty queue reads as an outage")
}

func TestMockProvider_ConfiguredError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{RetryAfter: time.Second}})
	_, err := mock.Generate(t.Context(), Request{})
	var rl *ErrRateLimit
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, time.Second, rl.RetryAfter)
}

func TestMockProvider_ValidatesAgainstSchema(t *testing.T) {
	schema := &Schema{
		Name: "mock-explanation",
		Definition: map[string]any{
			"type":       "object",
			"required":   []any{"explanation"},
			"properties": map[string]any{"explanation": map[string]any{"type": "string"}},
		},
	}
	mock := NewMockProvider(
		MockJSON(map[string]string{"explanation": "because"}),
		MockJSON(map[string]int{"explanation": 3}),
	)

	_, err := mock.Generate(t.Context(), Request{Schema: schema})
	require.NoError(t, err)

	_, err = mock.Generate(t.Context(), Request{Schema: schema})
	var inv *ErrInvalidResponse
	assert.True(t, errors.As(err, &inv), "got %v", err)
}

func TestMockProvider_DelayHonoursContext(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`), Delay: time.Minute})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := mock.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPurposeContext(t *testing.T) {
	ctx := t.Context()
	assert.Equal(t, "unknown", PurposeFrom(ctx))
	assert.Empty(t, CardIDFrom(ctx))

	ctx = WithPurpose(ctx, "explanation")
	assert.Equal(t, "explanation", PurposeFrom(ctx))

	ctx = WithCardID(ctx, "fr")
	assert.Equal(t, "fr", CardIDFrom(ctx))
	assert.Equal(t, "explanation", PurposeFrom(ctx), "card id must not hide purpose")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, "QUIZCRAFT_ANTHROPIC_API_KEY"},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: Endpoint{APIKey: "sk-test"}}, ""},
		{"gemini without key", Config{Provider: "gemini", OpenAI: Endpoint{APIKey: "sk-test"}}, "QUIZCRAFT_GEMINI_API_KEY"},
		{"openrouter with key", Config{Provider: "openrouter", OpenRouter: Endpoint{APIKey: "sk-or"}}, ""},
		{"mock needs no key", Config{Provider: "mock"}, ""},
		{"unknown provider", Config{Provider: "carrier-pigeon"}, "unknown LLM provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
