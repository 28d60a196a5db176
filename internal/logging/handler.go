// Package logging provides a slog handler that also persists WARN and
// ERROR records to the database-backed audit log.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"quill/internal/store"
)

// EventLogHandler is a slog.Handler that wraps another handler and also
// writes WARN and ERROR level logs to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
}

// NewEventLogHandler creates an EventLogHandler that wraps the given
// handler. Records at WARN level and above go to both the wrapped
// handler and the audit log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeToEventLog(r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
	}
}

// writeToEventLog persists a log record to the events table. A
// background context is used so the event lands even when the request
// context is already cancelled.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	level := store.EventLevelWarning
	if r.Level >= slog.LevelError {
		level = store.EventLevelError
	}

	category := "general"
	attrs := make(map[string]string)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return true
		}
		attrs[a.Key] = a.Value.String()
		return true
	})

	metadata := "{}"
	if len(attrs) > 0 {
		if b, err := json.Marshal(attrs); err == nil {
			metadata = string(b)
		}
	}

	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   r.Message,
		Metadata:  metadata,
		CreatedAt: r.Time,
	})
}
