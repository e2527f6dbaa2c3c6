package model

import (
	"database/sql"
	"time"
)

// Page is a signage page owned by a department. A page may reference one
// layout; pages survive layout deletion in an unassigned state.
type Page struct {
	ID           int64         `json:"id"`
	DepartmentID int64         `json:"department_id"`
	LayoutID     sql.NullInt64 `json:"layout_id,omitempty"`
	Title        string        `json:"title"`
	Slug         string        `json:"slug"`
	Active       bool          `json:"active"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// PageSection links a page to a specific layout section. These links are
// destroyed whenever the layout's sections are regenerated.
type PageSection struct {
	ID        int64     `json:"id"`
	PageID    int64     `json:"page_id"`
	SectionID int64     `json:"section_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PageContent is content assigned to a named section position on a page,
// with display ordering and duration.
type PageContent struct {
	ID              int64     `json:"id"`
	PageID          int64     `json:"page_id"`
	SectionPosition string    `json:"section_position"`
	ContentType     string    `json:"content_type"`
	ContentRef      string    `json:"content_ref"`
	DisplayOrder    int64     `json:"display_order"`
	DurationSeconds int64     `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Content types for page content entries.
const (
	ContentTypeImage = "image"
	ContentTypeVideo = "video"
	ContentTypeHTML  = "html"
	ContentTypeURL   = "url"
)
