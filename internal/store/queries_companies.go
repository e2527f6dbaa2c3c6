package store

import (
	"context"
	"strings"
	"time"

	"github.com/opensignage/osign-go/internal/model"
)

const companyColumns = `id, name, slug, active, created_at, updated_at`

func scanCompany(row interface{ Scan(...any) error }) (model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateCompanyParams holds parameters for CreateCompany.
type CreateCompanyParams struct {
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateCompany inserts a new company and returns the created row.
func (q *Queries) CreateCompany(ctx context.Context, arg CreateCompanyParams) (model.Company, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO companies (name, slug, active, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		RETURNING `+companyColumns,
		arg.Name, arg.Slug, arg.CreatedAt, arg.UpdatedAt)
	return scanCompany(row)
}

// GetCompanyByID fetches a company by id.
func (q *Queries) GetCompanyByID(ctx context.Context, id int64) (model.Company, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
	return scanCompany(row)
}

// ListActiveCompanies returns all active companies ordered by name.
func (q *Queries) ListActiveCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// ListCompaniesByIDs returns active companies matching the given ids in one
// batched query.
func (q *Queries) ListCompaniesByIDs(ctx context.Context, ids []int64) ([]model.Company, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE active = 1 AND id IN (`+placeholders+`) ORDER BY name`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// UpdateCompanyParams holds parameters for UpdateCompany.
type UpdateCompanyParams struct {
	ID        int64
	Name      string
	Slug      string
	Active    bool
	UpdatedAt time.Time
}

// UpdateCompany updates a company's mutable fields.
func (q *Queries) UpdateCompany(ctx context.Context, arg UpdateCompanyParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, slug = ?, active = ?, updated_at = ? WHERE id = ?`,
		arg.Name, arg.Slug, arg.Active, arg.UpdatedAt, arg.ID)
	return err
}

// DeleteCompany removes a company; department and role rows cascade at the
// database level.
func (q *Queries) DeleteCompany(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	return err
}

// CountCompaniesBySlug counts companies with the given slug.
func (q *Queries) CountCompaniesBySlug(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies WHERE slug = ?`, slug).Scan(&n)
	return n, err
}
