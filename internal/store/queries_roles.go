package store

import (
	"context"
	"time"

	"github.com/opensignage/osign-go/internal/model"
)

const companyRoleColumns = `id, user_id, company_id, role, active, assigned_by, assigned_at`

const departmentRoleColumns = `id, user_id, department_id, role, active, assigned_by, assigned_at`

func scanCompanyRole(row interface{ Scan(...any) error }) (model.CompanyRole, error) {
	var r model.CompanyRole
	err := row.Scan(&r.ID, &r.UserID, &r.CompanyID, &r.Role, &r.Active, &r.AssignedBy, &r.AssignedAt)
	return r, err
}

func scanDepartmentRole(row interface{ Scan(...any) error }) (model.DepartmentRole, error) {
	var r model.DepartmentRole
	err := row.Scan(&r.ID, &r.UserID, &r.DepartmentID, &r.Role, &r.Active, &r.AssignedBy, &r.AssignedAt)
	return r, err
}

// GetActiveCompanyRole fetches the active company role for a (user, company)
// pair. sql.ErrNoRows means the user has no role there.
func (q *Queries) GetActiveCompanyRole(ctx context.Context, userID, companyID int64) (model.CompanyRole, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+companyRoleColumns+` FROM company_roles WHERE user_id = ? AND company_id = ? AND active = 1`,
		userID, companyID)
	return scanCompanyRole(row)
}

// GetActiveDepartmentRole fetches the active department role for a
// (user, department) pair.
func (q *Queries) GetActiveDepartmentRole(ctx context.Context, userID, departmentID int64) (model.DepartmentRole, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+departmentRoleColumns+` FROM department_roles WHERE user_id = ? AND department_id = ? AND active = 1`,
		userID, departmentID)
	return scanDepartmentRole(row)
}

// ListActiveCompanyRolesByUser returns every active company role held by a user.
func (q *Queries) ListActiveCompanyRolesByUser(ctx context.Context, userID int64) ([]model.CompanyRole, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+companyRoleColumns+` FROM company_roles WHERE user_id = ? AND active = 1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.CompanyRole
	for rows.Next() {
		r, err := scanCompanyRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// ListCompanyRolesByCompany returns every active role grant within a company.
func (q *Queries) ListCompanyRolesByCompany(ctx context.Context, companyID int64) ([]model.CompanyRole, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+companyRoleColumns+` FROM company_roles WHERE company_id = ? AND active = 1 ORDER BY user_id`,
		companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.CompanyRole
	for rows.Next() {
		r, err := scanCompanyRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// CountActiveCompanyAdminRoles counts active company_admin grants held by a user.
func (q *Queries) CountActiveCompanyAdminRoles(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM company_roles WHERE user_id = ? AND active = 1 AND role = ?`,
		userID, model.CompanyRoleAdmin).Scan(&n)
	return n, err
}

// UpsertCompanyRoleParams holds parameters for UpsertCompanyRole.
type UpsertCompanyRoleParams struct {
	UserID     int64
	CompanyID  int64
	Role       string
	AssignedBy string
	AssignedAt time.Time
}

// UpsertCompanyRole inserts or updates the role row for a (user, company)
// pair as a single atomic statement. The unique index on
// (user_id, company_id) makes concurrent assignments converge on one row.
func (q *Queries) UpsertCompanyRole(ctx context.Context, arg UpsertCompanyRoleParams) (model.CompanyRole, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO company_roles (user_id, company_id, role, active, assigned_by, assigned_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT (user_id, company_id) DO UPDATE SET
			role = excluded.role,
			active = 1,
			assigned_by = excluded.assigned_by,
			assigned_at = excluded.assigned_at
		RETURNING `+companyRoleColumns,
		arg.UserID, arg.CompanyID, arg.Role, arg.AssignedBy, arg.AssignedAt)
	return scanCompanyRole(row)
}

// DeleteCompanyRole removes the role row for a (user, company) pair.
func (q *Queries) DeleteCompanyRole(ctx context.Context, userID, companyID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM company_roles WHERE user_id = ? AND company_id = ?`, userID, companyID)
	return err
}

// UpsertDepartmentRoleParams holds parameters for UpsertDepartmentRole.
type UpsertDepartmentRoleParams struct {
	UserID       int64
	DepartmentID int64
	Role         string
	AssignedBy   string
	AssignedAt   time.Time
}

// UpsertDepartmentRole inserts or updates the role row for a
// (user, department) pair as a single atomic statement.
func (q *Queries) UpsertDepartmentRole(ctx context.Context, arg UpsertDepartmentRoleParams) (model.DepartmentRole, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO department_roles (user_id, department_id, role, active, assigned_by, assigned_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT (user_id, department_id) DO UPDATE SET
			role = excluded.role,
			active = 1,
			assigned_by = excluded.assigned_by,
			assigned_at = excluded.assigned_at
		RETURNING `+departmentRoleColumns,
		arg.UserID, arg.DepartmentID, arg.Role, arg.AssignedBy, arg.AssignedAt)
	return scanDepartmentRole(row)
}

// DeleteDepartmentRole removes the role row for a (user, department) pair.
func (q *Queries) DeleteDepartmentRole(ctx context.Context, userID, departmentID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM department_roles WHERE user_id = ? AND department_id = ?`, userID, departmentID)
	return err
}

// DeleteDepartmentRolesByCompany removes every department role the user
// holds in departments of the given company. Used by the company-role
// removal cascade.
func (q *Queries) DeleteDepartmentRolesByCompany(ctx context.Context, userID, companyID int64) error {
	_, err := q.db.ExecContext(ctx, `
		DELETE FROM department_roles
		WHERE user_id = ? AND department_id IN (
			SELECT id FROM departments WHERE company_id = ?
		)`,
		userID, companyID)
	return err
}

// ListDepartmentRolesByDepartment returns every active role grant within a department.
func (q *Queries) ListDepartmentRolesByDepartment(ctx context.Context, departmentID int64) ([]model.DepartmentRole, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+departmentRoleColumns+` FROM department_roles WHERE department_id = ? AND active = 1 ORDER BY user_id`,
		departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.DepartmentRole
	for rows.Next() {
		r, err := scanDepartmentRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}
