package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/store"
)

const (
	jobSource = "core"

	pruneEventsSchedule   = "30 3 * * *" // daily, off-peak
	staleDisplaysSchedule = "*/15 * * * *"

	// StaleDisplayThreshold is how long a display may go without polling
	// the feed before it is reported as offline.
	StaleDisplayThreshold = 15 * time.Minute
)

// Scheduler runs recurring maintenance jobs: pruning the event log and
// reporting displays that have stopped polling.
type Scheduler struct {
	db             *sql.DB
	queries        *store.Queries
	cron           *cron.Cron
	registry       *Registry
	logger         *slog.Logger
	eventRetention time.Duration
}

// New creates a scheduler with the given event log retention.
func New(db *sql.DB, registry *Registry, logger *slog.Logger, eventRetention time.Duration) *Scheduler {
	return &Scheduler{
		db:             db,
		queries:        store.New(db),
		cron:           cron.New(),
		registry:       registry,
		logger:         logger,
		eventRetention: eventRetention,
	}
}

// Start registers the maintenance jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name        string
		description string
		schedule    string
		run         func() error
	}{
		{
			name:        "prune_events",
			description: "Delete event log entries older than the configured retention",
			schedule:    pruneEventsSchedule,
			run:         s.pruneEvents,
		},
		{
			name:        "stale_displays",
			description: "Report active displays that have stopped polling the feed",
			schedule:    staleDisplaysSchedule,
			run:         s.reportStaleDisplays,
		},
	}

	for _, job := range jobs {
		run := job.run
		name := job.name
		jobFunc := func() {
			if err := run(); err != nil {
				s.logger.Error("scheduled job failed", "job", name, "error", err)
			}
		}

		schedule := s.registry.GetEffectiveSchedule(jobSource, job.name, job.schedule)
		entryID, err := s.cron.AddFunc(schedule, jobFunc)
		if err != nil {
			return err
		}
		s.registry.Register(jobSource, job.name, job.description, job.schedule, s.cron, entryID, jobFunc, run)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// pruneEvents deletes event log entries older than the retention window.
func (s *Scheduler) pruneEvents() error {
	ctx := context.Background()
	cutoff := time.Now().Add(-s.eventRetention)

	deleted, err := s.queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("pruned event log",
			"category", model.EventCategorySystem,
			"deleted", deleted,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
	return nil
}

// reportStaleDisplays logs a warning for each active display that has not
// polled the feed within StaleDisplayThreshold.
func (s *Scheduler) reportStaleDisplays() error {
	ctx := context.Background()
	cutoff := time.Now().Add(-StaleDisplayThreshold)

	stale, err := s.queries.ListStaleDisplays(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, d := range stale {
		lastSeen := "never"
		if d.LastSeenAt.Valid {
			lastSeen = d.LastSeenAt.Time.Format(time.RFC3339)
		}
		s.logger.Warn("display offline",
			"category", model.EventCategorySystem,
			"display_id", d.ID,
			"display_name", d.Name,
			"department_id", d.DepartmentID,
			"last_seen", lastSeen,
		)
	}
	return nil
}
