package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// schemaVersion is stored in PRAGMA user_version after migrating. Bump it
// whenever the tables below change so older builds refuse the file.
const schemaVersion = 2

// Timestamps are Unix milliseconds (UTC); zero means unset.
var (
	globalSequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	globalSequenceTable = &schema.Table{
		Name:       "global_sequence",
		Columns:    globalSequenceColumns,
		PrimaryKey: []*schema.Column{globalSequenceColumns[0]},
	}

	quizSessionsColumns = []*schema.Column{
		{Name: "session_id", Type: field.TypeString},
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "deck", Type: field.TypeString},
		{Name: "state", Type: field.TypeString},
		{Name: "feedback", Type: field.TypeString},
		{Name: "format", Type: field.TypeString},
		{Name: "total", Type: field.TypeInt},
		{Name: "answered", Type: field.TypeInt},
		{Name: "correct", Type: field.TypeInt},
		{Name: "max_streak", Type: field.TypeInt},
		{Name: "lives_left", Type: field.TypeInt},
		{Name: "started_at", Type: field.TypeInt64},
		{Name: "ended_at", Type: field.TypeInt64},
	}
	quizSessionsTable = &schema.Table{
		Name:       "quiz_sessions",
		Columns:    quizSessionsColumns,
		PrimaryKey: []*schema.Column{quizSessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "quizsession_sequence", Columns: []*schema.Column{quizSessionsColumns[1]}},
		},
	}

	answerEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "session_id", Type: field.TypeString},
		{Name: "card_id", Type: field.TypeString},
		{Name: "question", Type: field.TypeString},
		{Name: "correct_answer", Type: field.TypeString},
		{Name: "user_answer", Type: field.TypeString, Nullable: true},
		{Name: "correct", Type: field.TypeBool},
		{Name: "exact", Type: field.TypeBool},
		{Name: "distance", Type: field.TypeInt},
		{Name: "format", Type: field.TypeString},
	}
	answerEventsTable = &schema.Table{
		Name:       "answer_events",
		Columns:    answerEventsColumns,
		PrimaryKey: []*schema.Column{answerEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "answerevent_session_id_sequence", Columns: []*schema.Column{answerEventsColumns[3], answerEventsColumns[1]}},
		},
	}

	llmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Default: ""},
		{Name: "response_body", Type: field.TypeString, Default: ""},
		// Added in schema version 2; older files gain it on open.
		{Name: "card_id", Type: field.TypeString, Default: ""},
	}
	llmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmRequestEventsColumns,
		PrimaryKey: []*schema.Column{llmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmRequestEventsColumns[5]}},
			{Name: "llmrequestevent_card_id_sequence", Columns: []*schema.Column{llmRequestEventsColumns[13], llmRequestEventsColumns[1]}},
		},
	}

	tables = []*schema.Table{
		globalSequenceTable,
		quizSessionsTable,
		answerEventsTable,
		llmRequestEventsTable,
	}
)

// migrate brings the tables in line with the definitions above. ent diffs
// the live schema, so missing tables, columns and indexes are added in
// place. A file stamped by a newer build is left untouched.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	version, err := userVersion(ctx, drv)
	if err != nil {
		return err
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", version, schemaVersion)
	}

	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("prepare migration: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	seed, args := builder().
		Insert(globalSequenceTable.Name).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()
	if err := drv.Exec(ctx, seed, args, nil); err != nil {
		return fmt.Errorf("seed sequence: %w", err)
	}

	// PRAGMA arguments cannot be bound.
	if err := drv.Exec(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion), []any{}, nil); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return nil
}

func userVersion(ctx context.Context, drv *entsql.Driver) (int, error) {
	var rows entsql.Rows
	if err := drv.Query(ctx, "PRAGMA user_version", []any{}, &rows); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	defer rows.Close()

	var versions []int
	if err := entsql.ScanSlice(rows, &versions); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if len(versions) == 0 {
		return 0, nil
	}
	return versions[0], nil
}
