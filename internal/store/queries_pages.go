package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/opensignage/osign-go/internal/model"
)

const pageColumns = `id, department_id, layout_id, title, slug, active, created_at, updated_at`

const pageContentColumns = `id, page_id, section_position, content_type, content_ref, display_order, duration_seconds, created_at, updated_at`

func scanPage(row interface{ Scan(...any) error }) (model.Page, error) {
	var p model.Page
	err := row.Scan(&p.ID, &p.DepartmentID, &p.LayoutID, &p.Title, &p.Slug,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanPageContent(row interface{ Scan(...any) error }) (model.PageContent, error) {
	var c model.PageContent
	err := row.Scan(&c.ID, &c.PageID, &c.SectionPosition, &c.ContentType, &c.ContentRef,
		&c.DisplayOrder, &c.DurationSeconds, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreatePageParams holds parameters for CreatePage.
type CreatePageParams struct {
	DepartmentID int64
	LayoutID     sql.NullInt64
	Title        string
	Slug         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreatePage inserts a new page and returns the created row.
func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (model.Page, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO pages (department_id, layout_id, title, slug, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		RETURNING `+pageColumns,
		arg.DepartmentID, arg.LayoutID, arg.Title, arg.Slug, arg.CreatedAt, arg.UpdatedAt)
	return scanPage(row)
}

// GetPageByID fetches a page by id.
func (q *Queries) GetPageByID(ctx context.Context, id int64) (model.Page, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = ?`, id)
	return scanPage(row)
}

// ListPagesByDepartment returns all pages of a department.
func (q *Queries) ListPagesByDepartment(ctx context.Context, departmentID int64) ([]model.Page, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE department_id = ? ORDER BY title`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// UpdatePageParams holds parameters for UpdatePage.
type UpdatePageParams struct {
	ID        int64
	LayoutID  sql.NullInt64
	Title     string
	Slug      string
	Active    bool
	UpdatedAt time.Time
}

// UpdatePage updates a page's mutable fields.
func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE pages SET layout_id = ?, title = ?, slug = ?, active = ?, updated_at = ? WHERE id = ?`,
		arg.LayoutID, arg.Title, arg.Slug, arg.Active, arg.UpdatedAt, arg.ID)
	return err
}

// DeletePage removes a page; its section links, contents and schedules
// cascade at the database level.
func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	return err
}

// CreatePageSection links a page to a layout section.
func (q *Queries) CreatePageSection(ctx context.Context, pageID, sectionID int64, createdAt time.Time) (model.PageSection, error) {
	var ps model.PageSection
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO page_sections (page_id, section_id, created_at)
		VALUES (?, ?, ?)
		RETURNING id, page_id, section_id, created_at`,
		pageID, sectionID, createdAt)
	err := row.Scan(&ps.ID, &ps.PageID, &ps.SectionID, &ps.CreatedAt)
	return ps, err
}

// ListPageSections returns a page's section links.
func (q *Queries) ListPageSections(ctx context.Context, pageID int64) ([]model.PageSection, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, page_id, section_id, created_at FROM page_sections WHERE page_id = ? ORDER BY id`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []model.PageSection
	for rows.Next() {
		var ps model.PageSection
		if err := rows.Scan(&ps.ID, &ps.PageID, &ps.SectionID, &ps.CreatedAt); err != nil {
			return nil, err
		}
		sections = append(sections, ps)
	}
	return sections, rows.Err()
}

// DeletePageSection removes one page-section link.
func (q *Queries) DeletePageSection(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM page_sections WHERE id = ?`, id)
	return err
}

// CreatePageContentParams holds parameters for CreatePageContent.
type CreatePageContentParams struct {
	PageID          int64
	SectionPosition string
	ContentType     string
	ContentRef      string
	DisplayOrder    int64
	DurationSeconds int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreatePageContent assigns content to a section position on a page.
func (q *Queries) CreatePageContent(ctx context.Context, arg CreatePageContentParams) (model.PageContent, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO page_contents (page_id, section_position, content_type, content_ref, display_order, duration_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+pageContentColumns,
		arg.PageID, arg.SectionPosition, arg.ContentType, arg.ContentRef,
		arg.DisplayOrder, arg.DurationSeconds, arg.CreatedAt, arg.UpdatedAt)
	return scanPageContent(row)
}

// ListPageContents returns a page's content entries ordered by section and
// display order.
func (q *Queries) ListPageContents(ctx context.Context, pageID int64) ([]model.PageContent, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+pageContentColumns+` FROM page_contents WHERE page_id = ? ORDER BY section_position, display_order`,
		pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []model.PageContent
	for rows.Next() {
		c, err := scanPageContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

// GetPageContentByID fetches one content entry.
func (q *Queries) GetPageContentByID(ctx context.Context, id int64) (model.PageContent, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+pageContentColumns+` FROM page_contents WHERE id = ?`, id)
	return scanPageContent(row)
}

// UpdatePageContentParams holds parameters for UpdatePageContent.
type UpdatePageContentParams struct {
	ID              int64
	SectionPosition string
	ContentType     string
	ContentRef      string
	DisplayOrder    int64
	DurationSeconds int64
	UpdatedAt       time.Time
}

// UpdatePageContent updates one content entry.
func (q *Queries) UpdatePageContent(ctx context.Context, arg UpdatePageContentParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE page_contents
		SET section_position = ?, content_type = ?, content_ref = ?, display_order = ?, duration_seconds = ?, updated_at = ?
		WHERE id = ?`,
		arg.SectionPosition, arg.ContentType, arg.ContentRef, arg.DisplayOrder,
		arg.DurationSeconds, arg.UpdatedAt, arg.ID)
	return err
}

// DeletePageContent removes one content entry.
func (q *Queries) DeletePageContent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM page_contents WHERE id = ?`, id)
	return err
}
