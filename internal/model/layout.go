package model

import "time"

// Layout belongs to one company and carries the JSON grid definition.
// Section counts and row counts are derived from the definition on demand,
// never stored.
type Layout struct {
	ID         int64     `json:"id"`
	CompanyID  int64     `json:"company_id"`
	Name       string    `json:"name"`
	Definition string    `json:"definition"` // JSON, see internal/layout
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LayoutSection is a persisted leaf cell of a layout's grid. Sections are
// regenerated in full whenever the definition changes; they are never edited
// individually.
type LayoutSection struct {
	ID          int64     `json:"id"`
	LayoutID    int64     `json:"layout_id"`
	Position    string    `json:"position"` // e.g. "R1C2.R1C1"
	RowIndex    int64     `json:"row_index"`
	ColumnIndex int64     `json:"column_index"`
	Width       float64   `json:"width"`  // percent
	Height      float64   `json:"height"` // percent
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}
