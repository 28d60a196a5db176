package maintenance

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"quill/internal/store"
)

// Scheduler runs periodic housekeeping jobs.
type Scheduler struct {
	db            *sql.DB
	cron          *cron.Cron
	logger        *slog.Logger
	retentionDays int
}

// New creates a new maintenance scheduler. retentionDays controls how
// long event log rows are kept.
func New(db *sql.DB, logger *slog.Logger, retentionDays int) *Scheduler {
	return &Scheduler{
		db:            db,
		cron:          cron.New(),
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Start registers the housekeeping jobs and begins the scheduler.
// Event pruning runs daily at 03:10.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("10 3 * * *", func() {
		if err := s.pruneEvents(); err != nil {
			s.logger.Error("failed to prune events", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("maintenance scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("maintenance scheduler stopped")
}

// pruneEvents deletes event log rows older than the retention window.
func (s *Scheduler) pruneEvents() error {
	if s.retentionDays <= 0 {
		return nil
	}

	ctx := context.Background()
	queries := store.New(s.db)

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		s.logger.Info("pruned old events", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}
