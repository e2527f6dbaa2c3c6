package store

import (
	"context"
	"time"

	"github.com/opensignage/osign-go/internal/model"
)

const departmentColumns = `id, company_id, name, slug, active, created_at, updated_at`

func scanDepartment(row interface{ Scan(...any) error }) (model.Department, error) {
	var d model.Department
	err := row.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Slug, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// CreateDepartmentParams holds parameters for CreateDepartment.
type CreateDepartmentParams struct {
	CompanyID int64
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateDepartment inserts a new department and returns the created row.
func (q *Queries) CreateDepartment(ctx context.Context, arg CreateDepartmentParams) (model.Department, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO departments (company_id, name, slug, active, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		RETURNING `+departmentColumns,
		arg.CompanyID, arg.Name, arg.Slug, arg.CreatedAt, arg.UpdatedAt)
	return scanDepartment(row)
}

// GetDepartmentByID fetches a department by id.
func (q *Queries) GetDepartmentByID(ctx context.Context, id int64) (model.Department, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id = ?`, id)
	return scanDepartment(row)
}

// ListDepartmentsByCompany returns all active departments of a company.
func (q *Queries) ListDepartmentsByCompany(ctx context.Context, companyID int64) ([]model.Department, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+departmentColumns+` FROM departments WHERE company_id = ? AND active = 1 ORDER BY name`,
		companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []model.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// ListUserDepartmentsByCompany returns the active departments of a company
// where the user holds an active department role, joined with the owning
// company name for display. One batched query, no per-role fan-out.
func (q *Queries) ListUserDepartmentsByCompany(ctx context.Context, userID, companyID int64) ([]model.DepartmentWithCompany, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT d.id, d.company_id, d.name, d.slug, d.active, d.created_at, d.updated_at, c.name
		FROM departments d
		JOIN companies c ON c.id = d.company_id
		JOIN department_roles dr ON dr.department_id = d.id
		WHERE dr.user_id = ? AND dr.active = 1 AND d.company_id = ? AND d.active = 1
		ORDER BY d.name`,
		userID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []model.DepartmentWithCompany
	for rows.Next() {
		var d model.DepartmentWithCompany
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Slug, &d.Active,
			&d.CreatedAt, &d.UpdatedAt, &d.CompanyName); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// UpdateDepartmentParams holds parameters for UpdateDepartment.
type UpdateDepartmentParams struct {
	ID        int64
	Name      string
	Slug      string
	Active    bool
	UpdatedAt time.Time
}

// UpdateDepartment updates a department's mutable fields.
func (q *Queries) UpdateDepartment(ctx context.Context, arg UpdateDepartmentParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE departments SET name = ?, slug = ?, active = ?, updated_at = ? WHERE id = ?`,
		arg.Name, arg.Slug, arg.Active, arg.UpdatedAt, arg.ID)
	return err
}

// DeleteDepartment removes a department; pages, schedules and role rows
// cascade at the database level.
func (q *Queries) DeleteDepartment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM departments WHERE id = ?`, id)
	return err
}
