package store

import (
	"context"
	"time"

	"github.com/opensignage/osign-go/internal/model"
)

const scheduleColumns = `id, department_id, page_id, name, start_time, end_time, weekdays, priority, active, created_at, updated_at`

func scanSchedule(row interface{ Scan(...any) error }) (model.Schedule, error) {
	var s model.Schedule
	err := row.Scan(&s.ID, &s.DepartmentID, &s.PageID, &s.Name, &s.StartTime, &s.EndTime,
		&s.Weekdays, &s.Priority, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// CreateScheduleParams holds parameters for CreateSchedule.
type CreateScheduleParams struct {
	DepartmentID int64
	PageID       int64
	Name         string
	StartTime    int64
	EndTime      int64
	Weekdays     int64
	Priority     int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateSchedule inserts a new schedule and returns the created row.
func (q *Queries) CreateSchedule(ctx context.Context, arg CreateScheduleParams) (model.Schedule, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO schedules (department_id, page_id, name, start_time, end_time, weekdays, priority, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		RETURNING `+scheduleColumns,
		arg.DepartmentID, arg.PageID, arg.Name, arg.StartTime, arg.EndTime,
		arg.Weekdays, arg.Priority, arg.CreatedAt, arg.UpdatedAt)
	return scanSchedule(row)
}

// GetScheduleByID fetches a schedule by id.
func (q *Queries) GetScheduleByID(ctx context.Context, id int64) (model.Schedule, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	return scanSchedule(row)
}

// ListSchedulesByDepartment returns a department's schedules ordered by
// priority descending, so the first match during window resolution wins.
func (q *Queries) ListSchedulesByDepartment(ctx context.Context, departmentID int64) ([]model.Schedule, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE department_id = ? ORDER BY priority DESC, id`,
		departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// UpdateScheduleParams holds parameters for UpdateSchedule.
type UpdateScheduleParams struct {
	ID        int64
	PageID    int64
	Name      string
	StartTime int64
	EndTime   int64
	Weekdays  int64
	Priority  int64
	Active    bool
	UpdatedAt time.Time
}

// UpdateSchedule updates a schedule's mutable fields.
func (q *Queries) UpdateSchedule(ctx context.Context, arg UpdateScheduleParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE schedules
		SET page_id = ?, name = ?, start_time = ?, end_time = ?, weekdays = ?, priority = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		arg.PageID, arg.Name, arg.StartTime, arg.EndTime, arg.Weekdays,
		arg.Priority, arg.Active, arg.UpdatedAt, arg.ID)
	return err
}

// DeleteSchedule removes a schedule.
func (q *Queries) DeleteSchedule(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	return err
}
