package store

import (
	"context"
	"strings"
	"time"

	"github.com/opensignage/osign-go/internal/model"
)

const layoutColumns = `id, company_id, name, definition, active, created_at, updated_at`

const layoutSectionColumns = `id, layout_id, position, row_index, column_index, width, height, active, created_at`

func scanLayout(row interface{ Scan(...any) error }) (model.Layout, error) {
	var l model.Layout
	err := row.Scan(&l.ID, &l.CompanyID, &l.Name, &l.Definition, &l.Active, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func scanLayoutSection(row interface{ Scan(...any) error }) (model.LayoutSection, error) {
	var s model.LayoutSection
	err := row.Scan(&s.ID, &s.LayoutID, &s.Position, &s.RowIndex, &s.ColumnIndex,
		&s.Width, &s.Height, &s.Active, &s.CreatedAt)
	return s, err
}

// CreateLayoutParams holds parameters for CreateLayout.
type CreateLayoutParams struct {
	CompanyID  int64
	Name       string
	Definition string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateLayout inserts a new layout and returns the created row.
func (q *Queries) CreateLayout(ctx context.Context, arg CreateLayoutParams) (model.Layout, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO layouts (company_id, name, definition, active, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		RETURNING `+layoutColumns,
		arg.CompanyID, arg.Name, arg.Definition, arg.CreatedAt, arg.UpdatedAt)
	return scanLayout(row)
}

// GetLayoutByID fetches a layout by id.
func (q *Queries) GetLayoutByID(ctx context.Context, id int64) (model.Layout, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+layoutColumns+` FROM layouts WHERE id = ?`, id)
	return scanLayout(row)
}

// ListLayoutsByCompany returns all layouts belonging to a company.
func (q *Queries) ListLayoutsByCompany(ctx context.Context, companyID int64) ([]model.Layout, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+layoutColumns+` FROM layouts WHERE company_id = ? ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var layouts []model.Layout
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
	}
	return layouts, rows.Err()
}

// UpdateLayoutParams holds parameters for UpdateLayout.
type UpdateLayoutParams struct {
	ID         int64
	Name       string
	Definition string
	Active     bool
	UpdatedAt  time.Time
}

// UpdateLayout updates a layout's mutable fields.
func (q *Queries) UpdateLayout(ctx context.Context, arg UpdateLayoutParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE layouts SET name = ?, definition = ?, active = ?, updated_at = ? WHERE id = ?`,
		arg.Name, arg.Definition, arg.Active, arg.UpdatedAt, arg.ID)
	return err
}

// DeleteLayout removes a layout; its sections cascade at the database level.
func (q *Queries) DeleteLayout(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id)
	return err
}

// CreateLayoutSectionParams holds parameters for CreateLayoutSection.
type CreateLayoutSectionParams struct {
	LayoutID    int64
	Position    string
	RowIndex    int64
	ColumnIndex int64
	Width       float64
	Height      float64
	CreatedAt   time.Time
}

// CreateLayoutSection inserts one derived section row.
func (q *Queries) CreateLayoutSection(ctx context.Context, arg CreateLayoutSectionParams) (model.LayoutSection, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO layout_sections (layout_id, position, row_index, column_index, width, height, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?)
		RETURNING `+layoutSectionColumns,
		arg.LayoutID, arg.Position, arg.RowIndex, arg.ColumnIndex, arg.Width, arg.Height, arg.CreatedAt)
	return scanLayoutSection(row)
}

// ListLayoutSections returns a layout's sections in traversal order.
func (q *Queries) ListLayoutSections(ctx context.Context, layoutID int64) ([]model.LayoutSection, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+layoutSectionColumns+` FROM layout_sections WHERE layout_id = ? ORDER BY id`, layoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []model.LayoutSection
	for rows.Next() {
		s, err := scanLayoutSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// DeleteLayoutSections removes every section row of a layout.
func (q *Queries) DeleteLayoutSections(ctx context.Context, layoutID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM layout_sections WHERE layout_id = ?`, layoutID)
	return err
}

// DeletePageSectionsBySections removes every page-section link referencing
// any of the given section ids.
func (q *Queries) DeletePageSectionsBySections(ctx context.Context, sectionIDs []int64) error {
	if len(sectionIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sectionIDs)), ",")
	args := make([]any, len(sectionIDs))
	for i, id := range sectionIDs {
		args[i] = id
	}
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM page_sections WHERE section_id IN (`+placeholders+`)`, args...)
	return err
}

// CountPagesByLayout counts pages referencing a layout.
func (q *Queries) CountPagesByLayout(ctx context.Context, layoutID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE layout_id = ?`, layoutID).Scan(&n)
	return n, err
}

// ClearPageLayoutReferences unassigns the layout from every page using it.
// Pages survive layout deletion in an unassigned state.
func (q *Queries) ClearPageLayoutReferences(ctx context.Context, layoutID int64, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE pages SET layout_id = NULL, updated_at = ? WHERE layout_id = ?`, updatedAt, layoutID)
	return err
}
