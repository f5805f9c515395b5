package llm

import "context"

type contextKey int

const (
	purposeKey contextKey = iota
	cardKey
)

// WithPurpose labels requests made with ctx, e.g. "explanation". The label
// is recorded with each request event and groups usage in `llm stats`.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom returns the purpose label, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// WithCardID ties requests made with ctx to the quiz card they are about.
func WithCardID(ctx context.Context, cardID string) context.Context {
	return context.WithValue(ctx, cardKey, cardID)
}

// CardIDFrom returns the card id attached by WithCardID, or "".
func CardIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(cardKey).(string)
	return v
}
