package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opensignage/osign-go/internal/cache"
	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/store"
)

// ErrDisplayNotFound is returned when a device key does not resolve to an
// active display.
var ErrDisplayNotFound = errors.New("display not found")

// FeedTTL bounds how stale a cached display feed may get. Displays poll,
// so a short TTL keeps schedule flips visible within one poll interval.
const FeedTTL = 30 * time.Second

// DisplayService registers display screens and serves their pull feed.
type DisplayService struct {
	queries   *store.Queries
	schedules *ScheduleService
	feed      cache.Cacher
}

// NewDisplayService creates a new DisplayService. The feed cache may be
// backed by memory or Redis; both satisfy Cacher.
func NewDisplayService(db *sql.DB, schedules *ScheduleService, feed cache.Cacher) *DisplayService {
	return &DisplayService{
		queries:   store.New(db),
		schedules: schedules,
		feed:      feed,
	}
}

// Register creates a display under the department and issues its device
// key. The key is the only credential a screen presents when polling.
func (s *DisplayService) Register(ctx context.Context, departmentID int64, name string) (model.Display, error) {
	display, err := s.queries.CreateDisplay(ctx, store.CreateDisplayParams{
		DepartmentID: departmentID,
		Name:         name,
		DeviceKey:    uuid.NewString(),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return model.Display{}, fmt.Errorf("registering display: %w", err)
	}
	slog.Info("display registered",
		"category", model.EventCategorySystem,
		"display_id", display.ID, "department_id", departmentID)
	return display, nil
}

// Get fetches one display by id.
func (s *DisplayService) Get(ctx context.Context, id int64) (model.Display, error) {
	display, err := s.queries.GetDisplayByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Display{}, ErrDisplayNotFound
	}
	return display, err
}

// ListByDepartment returns the department's displays.
func (s *DisplayService) ListByDepartment(ctx context.Context, departmentID int64) ([]model.Display, error) {
	return s.queries.ListDisplaysByDepartment(ctx, departmentID)
}

// Delete removes a display registration.
func (s *DisplayService) Delete(ctx context.Context, id int64) error {
	return s.queries.DeleteDisplay(ctx, id)
}

// Feed is the payload a display polls for: the page it should currently
// show, with the page's layout sections and content placements resolved.
type Feed struct {
	DisplayID   int64                 `json:"display_id"`
	Name        string                `json:"name"`
	GeneratedAt time.Time             `json:"generated_at"`
	Page        *FeedPage             `json:"page,omitempty"`
	Sections    []model.LayoutSection `json:"sections,omitempty"`
	Contents    []model.PageContent   `json:"contents,omitempty"`
}

// FeedPage is the page portion of a feed.
type FeedPage struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	LayoutID int64  `json:"layout_id,omitempty"`
}

// GetFeed resolves and returns the feed for a device key, updating the
// display's last-seen timestamp. Feeds are cached per department under
// FeedTTL; every display in a department shows the same resolved page, so
// they share one cache entry.
func (s *DisplayService) GetFeed(ctx context.Context, deviceKey string) (*Feed, error) {
	display, err := s.queries.GetDisplayByDeviceKey(ctx, deviceKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisplayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolving device key: %w", err)
	}

	if err := s.queries.TouchDisplay(ctx, display.ID, time.Now()); err != nil {
		slog.Warn("touching display failed", "display_id", display.ID, "error", err)
	}

	cacheKey := fmt.Sprintf("feed:dept:%d", display.DepartmentID)
	if data, err := s.feed.Get(ctx, cacheKey); err == nil {
		var feed Feed
		if err := json.Unmarshal(data, &feed); err == nil {
			feed.DisplayID = display.ID
			feed.Name = display.Name
			return &feed, nil
		}
	}

	feed, err := s.buildFeed(ctx, display)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(feed); err == nil {
		if err := s.feed.Set(ctx, cacheKey, data, FeedTTL); err != nil {
			slog.Warn("caching feed failed", "department_id", display.DepartmentID, "error", err)
		}
	}
	return feed, nil
}

// InvalidateFeed drops the cached feed for a department. Called after
// schedule or page mutations so displays pick up the change on the next
// poll instead of after the TTL.
func (s *DisplayService) InvalidateFeed(ctx context.Context, departmentID int64) {
	key := fmt.Sprintf("feed:dept:%d", departmentID)
	if err := s.feed.Delete(ctx, key); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		slog.Warn("invalidating feed failed", "department_id", departmentID, "error", err)
	}
}

func (s *DisplayService) buildFeed(ctx context.Context, display model.Display) (*Feed, error) {
	now := time.Now()
	feed := &Feed{
		DisplayID:   display.ID,
		Name:        display.Name,
		GeneratedAt: now,
	}

	sched, ok, err := s.schedules.CurrentActive(ctx, display.DepartmentID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Nothing scheduled right now; the display shows its idle screen.
		return feed, nil
	}

	page, err := s.queries.GetPageByID(ctx, sched.PageID)
	if errors.Is(err, sql.ErrNoRows) {
		// Schedule points at a page deleted since; treat as idle.
		return feed, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading scheduled page: %w", err)
	}

	feed.Page = &FeedPage{ID: page.ID, Title: page.Title}
	if page.LayoutID.Valid {
		feed.Page.LayoutID = page.LayoutID.Int64
		sections, err := s.queries.ListLayoutSections(ctx, page.LayoutID.Int64)
		if err != nil {
			return nil, fmt.Errorf("loading layout sections: %w", err)
		}
		feed.Sections = sections
	}

	contents, err := s.queries.ListPageContents(ctx, page.ID)
	if err != nil {
		return nil, fmt.Errorf("loading page contents: %w", err)
	}
	feed.Contents = contents
	return feed, nil
}
