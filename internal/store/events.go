package store

import (
	"context"
	"database/sql"
	"time"
)

// CreateEventParams holds the fields for creating an audit log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts an audit log entry and returns it.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	var e Event
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO events (level, category, message, user_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, level, category, message, user_id, metadata, created_at`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.CreatedAt).
		Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt)
	return e, err
}

// ListRecentEvents returns the newest audit entries, newest first.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, level, category, message, user_id, metadata, created_at
		FROM events
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteEventsBefore removes audit entries older than the cutoff and
// returns how many were deleted.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
