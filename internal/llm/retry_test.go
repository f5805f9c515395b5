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

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2,
	}
}

var (
	explained = MockJSON(map[string]string{"explanation": "Canberra was built as a compromise."})
	outage    = MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503")}}
	garbled   = MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`{"explan`), Err: errors.New("unexpected end")}}
)

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		replies   []MockResponse
		wantCalls int
		wantErr   any // pointer to the error type expected, nil for success
	}{
		{"first attempt", []MockResponse{explained}, 1, nil},
		{"outage then success", []MockResponse{outage, explained}, 2, nil},
		{"every attempt fails", []MockResponse{outage, outage, outage, explained}, 3, new(*ErrProviderUnavailable)},
		{"rate limit honours retry-after", []MockResponse{
			{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}}, explained,
		}, 2, nil},
		{"truncation is final", []MockResponse{
			{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{"explanation":"Can`)}}, explained,
		}, 1, new(*ErrMaxTokensExceeded)},
		{"rejected request is final", []MockResponse{
			{Err: &ErrRejected{Status: 401, Err: errors.New("invalid key")}}, explained,
		}, 1, new(*ErrRejected)},
		{"garbled reply retried once", []MockResponse{garbled, explained}, 2, nil},
		{"garbled twice gives up", []MockResponse{garbled, garbled, explained}, 2, new(*ErrInvalidResponse)},
		{"mixed failures exhaust attempts", []MockResponse{garbled, outage, garbled}, 3, new(*ErrInvalidResponse)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.replies...)
			p := WithRetry(mock, fastRetry(), nil)

			resp, err := p.Generate(t.Context(), Request{})
			assert.Equal(t, tt.wantCalls, mock.CallCount())
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.JSONEq(t, `{"explanation":"Canberra was built as a compromise."}`, string(resp.Content))
				return
			}
			assert.True(t, errors.As(err, tt.wantErr), "got %T: %v", err, err)
		})
	}
}

func TestRetry_CancelledContext(t *testing.T) {
	mock := NewMockProvider(outage, outage, explained)
	p := WithRetry(mock, fastRetry(), nil)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount(), "a cancelled call is not retried")
}

func TestRetry_GivesUpBeforeDeadline(t *testing.T) {
	mock := NewMockProvider(outage, explained)
	cfg := fastRetry()
	cfg.InitialWait = time.Minute
	cfg.MaxWait = time.Minute
	p := WithRetry(mock, cfg, nil)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Generate(ctx, Request{})
	var unavail *ErrProviderUnavailable
	require.True(t, errors.As(err, &unavail), "want the provider error, got %v", err)
	assert.Equal(t, 1, mock.CallCount())
	assert.Less(t, time.Since(start), 40*time.Millisecond, "should not sleep toward the deadline")
}

func TestRetry_ZeroAttemptsStillCallsOnce(t *testing.T) {
	mock := NewMockProvider(explained)
	p := WithRetry(mock, RetryConfig{}, nil)

	_, err := p.Generate(t.Context(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, mock.CallCount())
	assert.Equal(t, "mock", p.ModelID())
}

func TestRetry_Backoff(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{
		InitialWait: 100 * time.Millisecond,
		MaxWait:     300 * time.Millisecond,
		Multiplier:  2,
	}}
	down := &ErrProviderUnavailable{}

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 300 * time.Millisecond}, // capped
		{5, 300 * time.Millisecond},
	}
	for _, tt := range tests {
		got := r.backoff(tt.attempt, down)
		assert.InDelta(t, float64(tt.base), float64(got), float64(tt.base)*0.2+1,
			"attempt %d: %v outside jitter around %v", tt.attempt, got, tt.base)
	}

	rl := &ErrRateLimit{RetryAfter: 7 * time.Second}
	assert.Equal(t, 7*time.Second, r.backoff(0, rl))
}
