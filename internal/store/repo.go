package store

import (
	"context"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	After   int64  // sequence > After
	Purpose string // LLM events only; empty matches all
	CardID  string // LLM events only; empty matches all
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	CardID       string // card being explained, if any
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates LLM events by a grouping key.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// AnswerEventData records a single graded answer.
// UserAnswer is nil for self-assessed cards.
type AnswerEventData struct {
	SessionID     string
	CardID        string
	Question      string
	CorrectAnswer string
	UserAnswer    *string
	Correct       bool
	Exact         bool
	Distance      int
	Format        string
}

// AnswerEvent is a stored answer event.
type AnswerEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	AnswerEventData
}

// SessionEventData records the outcome of a quiz session.
type SessionEventData struct {
	SessionID string
	Deck      string
	State     string
	Feedback  string
	Format    string
	Total     int
	Answered  int
	Correct   int
	MaxStreak int
	LivesLeft int
	StartedAt time.Time
	EndedAt   time.Time
}

// SessionRecord is a stored quiz session.
type SessionRecord struct {
	Sequence int64
	SessionEventData
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	// QueryLLMEvents returns LLM events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)
	// GetLLMEvent returns a single event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)

	// AppendAnswerEvent records a graded answer.
	AppendAnswerEvent(ctx context.Context, data AnswerEventData) error
	// SessionAnswers returns a session's answers in the order given.
	SessionAnswers(ctx context.Context, sessionID string) ([]AnswerEvent, error)

	// AppendSessionEvent records a finished session. Recording the same
	// session again replaces the earlier row.
	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	// RecentSessions returns sessions newest first.
	RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error)
}

// eventRepo implements EventRepo with ent's SQL builders over the
// shared driver and the global sequence counter.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequence
	now func() time.Time
}

func builder() *entsql.DialectBuilder { return entsql.Dialect(dialect.SQLite) }

func (r *eventRepo) exec(ctx context.Context, q interface{ Query() (string, []any) }) error {
	query, args := q.Query()
	return r.drv.Exec(ctx, query, args, nil)
}

// scan runs q and decodes every row into dest, a pointer to a slice of
// structs whose sql tags name the selected columns.
func (r *eventRepo) scan(ctx context.Context, q *entsql.Selector, dest any) error {
	query, args := q.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return err
	}
	defer rows.Close()
	return entsql.ScanSlice(rows, dest)
}

func (r *eventRepo) timestamp() int64 {
	if r.now != nil {
		return toMillis(r.now())
	}
	return toMillis(time.Now())
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
