// Package service provides business logic over the store layer: layout
// lifecycle and section synchronization, schedule resolution and the
// display feed.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/opensignage/osign-go/internal/layout"
	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/store"
)

// ErrLayoutNotFound is returned when a layout id does not resolve.
var ErrLayoutNotFound = errors.New("layout not found")

// LayoutService manages grid layouts and keeps their derived section rows
// in sync with the JSON definition.
type LayoutService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewLayoutService creates a new LayoutService.
func NewLayoutService(db *sql.DB) *LayoutService {
	return &LayoutService{
		db:      db,
		queries: store.New(db),
	}
}

// Get fetches one layout.
func (s *LayoutService) Get(ctx context.Context, id int64) (model.Layout, error) {
	lay, err := s.queries.GetLayoutByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Layout{}, ErrLayoutNotFound
	}
	return lay, err
}

// ListByCompany returns the company's layouts.
func (s *LayoutService) ListByCompany(ctx context.Context, companyID int64) ([]model.Layout, error) {
	return s.queries.ListLayoutsByCompany(ctx, companyID)
}

// Sections returns a layout's derived sections ordered by position.
func (s *LayoutService) Sections(ctx context.Context, layoutID int64) ([]model.LayoutSection, error) {
	return s.queries.ListLayoutSections(ctx, layoutID)
}

// Create validates the definition, stores the layout and generates its
// section rows, all in one transaction. A *layout.ValidationError is
// returned unwrapped so callers can surface the structural path.
func (s *LayoutService) Create(ctx context.Context, companyID int64, name, definition string) (model.Layout, error) {
	def, err := layout.ParseAndValidate(definition)
	if err != nil {
		return model.Layout{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Layout{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	now := time.Now()
	lay, err := qtx.CreateLayout(ctx, store.CreateLayoutParams{
		CompanyID:  companyID,
		Name:       name,
		Definition: definition,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return model.Layout{}, fmt.Errorf("creating layout: %w", err)
	}
	if err := createSections(ctx, qtx, lay.ID, def, now); err != nil {
		return model.Layout{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Layout{}, fmt.Errorf("committing layout: %w", err)
	}

	slog.Info("layout created",
		"category", model.EventCategoryLayout,
		"layout_id", lay.ID, "company_id", companyID, "sections", def.SectionCount())
	return lay, nil
}

// UpdateDefinition replaces a layout's grid definition and resynchronizes
// its derived sections. The resync is destructive: every existing section
// row is deleted along with any page-to-section content placements, then
// sections are regenerated from the new definition. All of it happens in
// one transaction so readers never observe a half-synced layout.
func (s *LayoutService) UpdateDefinition(ctx context.Context, layoutID int64, definition string) error {
	def, err := layout.ParseAndValidate(definition)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	lay, err := qtx.GetLayoutByID(ctx, layoutID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLayoutNotFound
	}
	if err != nil {
		return fmt.Errorf("loading layout %d: %w", layoutID, err)
	}

	dropped, err := dropSections(ctx, qtx, layoutID)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := createSections(ctx, qtx, layoutID, def, now); err != nil {
		return err
	}
	if err := qtx.UpdateLayout(ctx, store.UpdateLayoutParams{
		ID:         layoutID,
		Name:       lay.Name,
		Definition: definition,
		Active:     lay.Active,
		UpdatedAt:  now,
	}); err != nil {
		return fmt.Errorf("updating layout definition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing resync: %w", err)
	}

	slog.Info("layout sections resynced",
		"category", model.EventCategoryLayout,
		"layout_id", layoutID, "dropped", dropped, "created", def.SectionCount())
	return nil
}

// Rename updates the layout's name and active flag without touching the
// definition or sections.
func (s *LayoutService) Rename(ctx context.Context, layoutID int64, name string, active bool) error {
	lay, err := s.queries.GetLayoutByID(ctx, layoutID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLayoutNotFound
	}
	if err != nil {
		return fmt.Errorf("loading layout %d: %w", layoutID, err)
	}
	return s.queries.UpdateLayout(ctx, store.UpdateLayoutParams{
		ID:         layoutID,
		Name:       name,
		Definition: lay.Definition,
		Active:     active,
		UpdatedAt:  time.Now(),
	})
}

// InUseBy reports how many pages currently reference the layout.
func (s *LayoutService) InUseBy(ctx context.Context, layoutID int64) (int64, error) {
	return s.queries.CountPagesByLayout(ctx, layoutID)
}

// Delete removes a layout. Pages referencing it are detached (their
// layout_id cleared) rather than deleted; content placements into the
// layout's sections go away with the sections.
func (s *LayoutService) Delete(ctx context.Context, layoutID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	if _, err := qtx.GetLayoutByID(ctx, layoutID); errors.Is(err, sql.ErrNoRows) {
		return ErrLayoutNotFound
	} else if err != nil {
		return fmt.Errorf("loading layout %d: %w", layoutID, err)
	}

	if _, err := dropSections(ctx, qtx, layoutID); err != nil {
		return err
	}
	if err := qtx.ClearPageLayoutReferences(ctx, layoutID, time.Now()); err != nil {
		return fmt.Errorf("detaching pages: %w", err)
	}
	if err := qtx.DeleteLayout(ctx, layoutID); err != nil {
		return fmt.Errorf("deleting layout: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}

	slog.Info("layout deleted",
		"category", model.EventCategoryLayout, "layout_id", layoutID)
	return nil
}

// dropSections deletes a layout's section rows and every page content
// placement pointing at them. Returns how many sections were removed.
func dropSections(ctx context.Context, qtx *store.Queries, layoutID int64) (int, error) {
	sections, err := qtx.ListLayoutSections(ctx, layoutID)
	if err != nil {
		return 0, fmt.Errorf("listing sections: %w", err)
	}
	if len(sections) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(sections))
	for i, sec := range sections {
		ids[i] = sec.ID
	}
	if err := qtx.DeletePageSectionsBySections(ctx, ids); err != nil {
		return 0, fmt.Errorf("deleting page placements: %w", err)
	}
	if err := qtx.DeleteLayoutSections(ctx, layoutID); err != nil {
		return 0, fmt.Errorf("deleting sections: %w", err)
	}
	return len(sections), nil
}

// createSections walks the definition depth-first and inserts one row per
// leaf cell. Walk order is deterministic, so repeated syncs of the same
// definition produce identical position labels.
func createSections(ctx context.Context, qtx *store.Queries, layoutID int64, def *layout.Definition, now time.Time) error {
	var insertErr error
	def.Walk(func(sec layout.Section) {
		if insertErr != nil {
			return
		}
		_, insertErr = qtx.CreateLayoutSection(ctx, store.CreateLayoutSectionParams{
			LayoutID:    layoutID,
			Position:    sec.Position,
			RowIndex:    int64(sec.RowIndex),
			ColumnIndex: int64(sec.ColumnIndex),
			Width:       sec.Width,
			Height:      sec.Height,
			CreatedAt:   now,
		})
	})
	if insertErr != nil {
		return fmt.Errorf("creating sections: %w", insertErr)
	}
	return nil
}
