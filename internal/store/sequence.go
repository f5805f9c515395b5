package store

import (
	"context"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// nextSequenceSQL stays raw: the update builder cannot return the
// pre-increment value in the same statement.
const nextSequenceSQL = `UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`

// sequence is one counter shared by every event table, so answers,
// sessions and LLM calls can be ordered against each other. The row
// lives in global_sequence and survives reopening the database.
type sequence struct {
	mu  sync.Mutex
	drv *entsql.Driver
}

// Next returns the next value and advances the counter.
func (s *sequence) Next(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, nextSequenceSQL, []any{}, &rows); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	defer rows.Close()

	var vals []int64
	if err := entsql.ScanSlice(rows, &vals); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	if len(vals) != 1 {
		return 0, fmt.Errorf("next sequence: counter row missing")
	}
	return vals[0], nil
}
