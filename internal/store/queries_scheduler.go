package store

import (
	"context"
	"time"
)

// GetSchedulerOverrideParams holds parameters for GetSchedulerOverride.
type GetSchedulerOverrideParams struct {
	Source string
	Name   string
}

// GetSchedulerOverride returns the persisted cron override for a job,
// or sql.ErrNoRows when none exists.
func (q *Queries) GetSchedulerOverride(ctx context.Context, arg GetSchedulerOverrideParams) (string, error) {
	var schedule string
	err := q.db.QueryRowContext(ctx,
		`SELECT override_schedule FROM scheduler_overrides WHERE source = ? AND name = ?`,
		arg.Source, arg.Name).Scan(&schedule)
	return schedule, err
}

// UpsertSchedulerOverrideParams holds parameters for UpsertSchedulerOverride.
type UpsertSchedulerOverrideParams struct {
	Source           string
	Name             string
	OverrideSchedule string
}

// UpsertSchedulerOverride stores or replaces the cron override for a job.
func (q *Queries) UpsertSchedulerOverride(ctx context.Context, arg UpsertSchedulerOverrideParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO scheduler_overrides (source, name, override_schedule, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source, name) DO UPDATE SET
			override_schedule = excluded.override_schedule,
			updated_at = excluded.updated_at`,
		arg.Source, arg.Name, arg.OverrideSchedule, time.Now())
	return err
}

// DeleteSchedulerOverrideParams holds parameters for DeleteSchedulerOverride.
type DeleteSchedulerOverrideParams struct {
	Source string
	Name   string
}

// DeleteSchedulerOverride removes the cron override for a job.
func (q *Queries) DeleteSchedulerOverride(ctx context.Context, arg DeleteSchedulerOverrideParams) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM scheduler_overrides WHERE source = ? AND name = ?`,
		arg.Source, arg.Name)
	return err
}
