package store

import (
	"context"
	"fmt"
	"math"

	entsql "entgo.io/ent/dialect/sql"
)

var llmEventColumns = []string{
	"id", "sequence", "timestamp", "provider", "model", "purpose", "card_id",
	"input_tokens", "output_tokens", "latency_ms", "success", "error_message",
	"request_body", "response_body",
}

// llmEventRow mirrors one llm_request_events row.
type llmEventRow struct {
	ID           int    `sql:"id"`
	Sequence     int64  `sql:"sequence"`
	Timestamp    int64  `sql:"timestamp"`
	Provider     string `sql:"provider"`
	Model        string `sql:"model"`
	Purpose      string `sql:"purpose"`
	CardID       string `sql:"card_id"`
	InputTokens  int    `sql:"input_tokens"`
	OutputTokens int    `sql:"output_tokens"`
	LatencyMs    int64  `sql:"latency_ms"`
	Success      bool   `sql:"success"`
	ErrorMessage string `sql:"error_message"`
	RequestBody  string `sql:"request_body"`
	ResponseBody string `sql:"response_body"`
}

func (row llmEventRow) event() LLMEvent {
	return LLMEvent{
		ID:        row.ID,
		Sequence:  row.Sequence,
		Timestamp: fromMillis(row.Timestamp),
		LLMRequestEventData: LLMRequestEventData{
			Provider:     row.Provider,
			Model:        row.Model,
			Purpose:      row.Purpose,
			CardID:       row.CardID,
			InputTokens:  row.InputTokens,
			OutputTokens: row.OutputTokens,
			LatencyMs:    row.LatencyMs,
			Success:      row.Success,
			ErrorMessage: row.ErrorMessage,
			RequestBody:  row.RequestBody,
			ResponseBody: row.ResponseBody,
		},
	}
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	insert := builder().Insert(llmRequestEventsTable.Name).
		Columns(llmEventColumns[1:]...).
		Values(seqNum, r.timestamp(), data.Provider, data.Model, data.Purpose, data.CardID,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody)
	if err := r.exec(ctx, insert); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	q := builder().Select(llmEventColumns...).
		From(builder().Table(llmRequestEventsTable.Name)).
		OrderBy(entsql.Desc("sequence"))
	if opts.After > 0 {
		q.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Purpose != "" {
		q.Where(entsql.EQ("purpose", opts.Purpose))
	}
	if opts.CardID != "" {
		q.Where(entsql.EQ("card_id", opts.CardID))
	}
	if opts.Limit > 0 {
		q.Limit(opts.Limit)
	}

	var rows []llmEventRow
	if err := r.scan(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	events := make([]LLMEvent, len(rows))
	for i, row := range rows {
		events[i] = row.event()
	}
	return events, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error) {
	q := builder().Select(llmEventColumns...).
		From(builder().Table(llmRequestEventsTable.Name)).
		Where(entsql.EQ("id", id))

	var rows []llmEventRow
	if err := r.scan(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	e := rows[0].event()
	return &e, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.llmUsage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.llmUsage(ctx, "model")
}

// usageRow is one group of llmUsage.
type usageRow struct {
	Key          string  `sql:"group_key"`
	Calls        int     `sql:"calls"`
	InputTokens  int     `sql:"input_tokens"`
	OutputTokens int     `sql:"output_tokens"`
	AvgLatency   float64 `sql:"avg_latency"`
}

// llmUsage aggregates events grouped by column, busiest group first.
func (r *eventRepo) llmUsage(ctx context.Context, column string) ([]LLMUsage, error) {
	q := builder().Select(
		entsql.As(column, "group_key"),
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
		entsql.As(entsql.Avg("latency_ms"), "avg_latency"),
	).
		From(builder().Table(llmRequestEventsTable.Name)).
		GroupBy(column).
		OrderBy(entsql.Desc("calls"), column)

	var rows []usageRow
	if err := r.scan(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("query LLM usage by %s: %w", column, err)
	}

	out := make([]LLMUsage, len(rows))
	for i, row := range rows {
		u := LLMUsage{
			Calls:        row.Calls,
			InputTokens:  row.InputTokens,
			OutputTokens: row.OutputTokens,
			AvgLatencyMs: int64(math.Round(row.AvgLatency)),
		}
		if column == "purpose" {
			u.Purpose = row.Key
		} else {
			u.Model = row.Key
		}
		out[i] = u
	}
	return out, nil
}
