package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

var sessionColumns = []string{
	"session_id", "sequence", "deck", "state", "feedback", "format", "total",
	"answered", "correct", "max_streak", "lives_left", "started_at", "ended_at",
}

type sessionRow struct {
	SessionID string `sql:"session_id"`
	Sequence  int64  `sql:"sequence"`
	Deck      string `sql:"deck"`
	State     string `sql:"state"`
	Feedback  string `sql:"feedback"`
	Format    string `sql:"format"`
	Total     int    `sql:"total"`
	Answered  int    `sql:"answered"`
	Correct   int    `sql:"correct"`
	MaxStreak int    `sql:"max_streak"`
	LivesLeft int    `sql:"lives_left"`
	StartedAt int64  `sql:"started_at"`
	EndedAt   int64  `sql:"ended_at"`
}

// AppendSessionEvent upserts on session_id, taking a fresh sequence so
// the latest write sorts first.
func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	upsert := builder().Insert(quizSessionsTable.Name).
		Columns(sessionColumns...).
		Values(data.SessionID, seqNum, data.Deck, data.State, data.Feedback, data.Format,
			data.Total, data.Answered, data.Correct, data.MaxStreak, data.LivesLeft,
			toMillis(data.StartedAt), toMillis(data.EndedAt)).
		OnConflict(entsql.ConflictColumns("session_id"), entsql.ResolveWithNewValues())
	if err := r.exec(ctx, upsert); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	q := builder().Select(sessionColumns...).
		From(builder().Table(quizSessionsTable.Name)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		q.Limit(limit)
	}

	var rows []sessionRow
	if err := r.scan(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	out := make([]SessionRecord, len(rows))
	for i, row := range rows {
		out[i] = SessionRecord{
			Sequence: row.Sequence,
			SessionEventData: SessionEventData{
				SessionID: row.SessionID,
				Deck:      row.Deck,
				State:     row.State,
				Feedback:  row.Feedback,
				Format:    row.Format,
				Total:     row.Total,
				Answered:  row.Answered,
				Correct:   row.Correct,
				MaxStreak: row.MaxStreak,
				LivesLeft: row.LivesLeft,
				StartedAt: fromMillis(row.StartedAt),
				EndedAt:   fromMillis(row.EndedAt),
			},
		}
	}
	return out, nil
}

var answerColumns = []string{
	"id", "sequence", "timestamp", "session_id", "card_id", "question",
	"correct_answer", "user_answer", "correct", "exact", "distance", "format",
}

type answerRow struct {
	ID            int            `sql:"id"`
	Sequence      int64          `sql:"sequence"`
	Timestamp     int64          `sql:"timestamp"`
	SessionID     string         `sql:"session_id"`
	CardID        string         `sql:"card_id"`
	Question      string         `sql:"question"`
	CorrectAnswer string         `sql:"correct_answer"`
	UserAnswer    sql.NullString `sql:"user_answer"`
	Correct       bool           `sql:"correct"`
	Exact         bool           `sql:"exact"`
	Distance      int            `sql:"distance"`
	Format        string         `sql:"format"`
}

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	var userAnswer sql.NullString
	if data.UserAnswer != nil {
		userAnswer = sql.NullString{String: *data.UserAnswer, Valid: true}
	}

	insert := builder().Insert(answerEventsTable.Name).
		Columns(answerColumns[1:]...).
		Values(seqNum, r.timestamp(), data.SessionID, data.CardID, data.Question,
			data.CorrectAnswer, userAnswer, data.Correct, data.Exact, data.Distance,
			data.Format)
	if err := r.exec(ctx, insert); err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) SessionAnswers(ctx context.Context, sessionID string) ([]AnswerEvent, error) {
	q := builder().Select(answerColumns...).
		From(builder().Table(answerEventsTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("sequence")

	var rows []answerRow
	if err := r.scan(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}

	out := make([]AnswerEvent, len(rows))
	for i, row := range rows {
		a := AnswerEvent{
			ID:        row.ID,
			Sequence:  row.Sequence,
			Timestamp: fromMillis(row.Timestamp),
			AnswerEventData: AnswerEventData{
				SessionID:     row.SessionID,
				CardID:        row.CardID,
				Question:      row.Question,
				CorrectAnswer: row.CorrectAnswer,
				Correct:       row.Correct,
				Exact:         row.Exact,
				Distance:      row.Distance,
				Format:        row.Format,
			},
		}
		if row.UserAnswer.Valid {
			a.UserAnswer = &row.UserAnswer.String
		}
		out[i] = a
	}
	return out, nil
}
