package store

import (
	"context"
	"time"

	"github.com/opensignage/osign-go/internal/model"
)

const displayColumns = `id, department_id, name, device_key, active, last_seen_at, created_at`

func scanDisplay(row interface{ Scan(...any) error }) (model.Display, error) {
	var d model.Display
	err := row.Scan(&d.ID, &d.DepartmentID, &d.Name, &d.DeviceKey, &d.Active, &d.LastSeenAt, &d.CreatedAt)
	return d, err
}

// CreateDisplayParams holds parameters for CreateDisplay.
type CreateDisplayParams struct {
	DepartmentID int64
	Name         string
	DeviceKey    string
	CreatedAt    time.Time
}

// CreateDisplay registers a new display screen.
func (q *Queries) CreateDisplay(ctx context.Context, arg CreateDisplayParams) (model.Display, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO displays (department_id, name, device_key, active, created_at)
		VALUES (?, ?, ?, 1, ?)
		RETURNING `+displayColumns,
		arg.DepartmentID, arg.Name, arg.DeviceKey, arg.CreatedAt)
	return scanDisplay(row)
}

// GetDisplayByDeviceKey fetches an active display by its device key.
func (q *Queries) GetDisplayByDeviceKey(ctx context.Context, deviceKey string) (model.Display, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+displayColumns+` FROM displays WHERE device_key = ? AND active = 1`, deviceKey)
	return scanDisplay(row)
}

// GetDisplayByID fetches a display regardless of active state.
func (q *Queries) GetDisplayByID(ctx context.Context, id int64) (model.Display, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+displayColumns+` FROM displays WHERE id = ?`, id)
	return scanDisplay(row)
}

// ListDisplaysByDepartment returns a department's displays.
func (q *Queries) ListDisplaysByDepartment(ctx context.Context, departmentID int64) ([]model.Display, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+displayColumns+` FROM displays WHERE department_id = ? ORDER BY name`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var displays []model.Display
	for rows.Next() {
		d, err := scanDisplay(rows)
		if err != nil {
			return nil, err
		}
		displays = append(displays, d)
	}
	return displays, rows.Err()
}

// TouchDisplay records a feed poll from a display.
func (q *Queries) TouchDisplay(ctx context.Context, id int64, seenAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE displays SET last_seen_at = ? WHERE id = ?`, seenAt, id)
	return err
}

// ListStaleDisplays returns active displays that have not polled the feed
// since the cutoff, including displays that have never polled at all.
func (q *Queries) ListStaleDisplays(ctx context.Context, cutoff time.Time) ([]model.Display, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+displayColumns+` FROM displays
		WHERE active = 1 AND (last_seen_at IS NULL OR last_seen_at < ?)
		ORDER BY department_id, name`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var displays []model.Display
	for rows.Next() {
		d, err := scanDisplay(rows)
		if err != nil {
			return nil, err
		}
		displays = append(displays, d)
	}
	return displays, rows.Err()
}

// DeleteDisplay removes a display.
func (q *Queries) DeleteDisplay(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM displays WHERE id = ?`, id)
	return err
}
