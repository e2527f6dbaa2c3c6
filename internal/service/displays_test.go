package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opensignage/osign-go/internal/cache"
	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/testutil"
)

func TestDisplayRegisterIssuesUniqueKeys(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	company := testutil.CreateCompany(t, db, "Acme", "acme")
	dept := testutil.CreateDepartment(t, db, company.ID, "Lobby", "lobby")

	feed := cache.NewMemoryCache(time.Minute)
	defer func() { _ = feed.Close() }()
	svc := NewDisplayService(db, NewScheduleService(db), feed)

	a, err := svc.Register(ctx, dept.ID, "left screen")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	b, err := svc.Register(ctx, dept.ID, "right screen")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if a.DeviceKey == "" || a.DeviceKey == b.DeviceKey {
		t.Errorf("device keys not unique: %q vs %q", a.DeviceKey, b.DeviceKey)
	}
}

func TestGetFeedResolvesScheduledPage(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	company := testutil.CreateCompany(t, db, "Acme", "acme")
	dept := testutil.CreateDepartment(t, db, company.ID, "Lobby", "lobby")
	page := testutil.CreatePage(t, db, dept.ID, "welcome")

	feed := cache.NewMemoryCache(time.Minute)
	defer func() { _ = feed.Close() }()
	schedules := NewScheduleService(db)
	svc := NewDisplayService(db, schedules, feed)

	if _, err := schedules.Create(ctx, dept.ID, ScheduleInput{
		PageID: page.ID, Name: "always", StartTime: 0, EndTime: 0,
		Weekdays: model.WeekdaysAll,
	}); err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	display, err := svc.Register(ctx, dept.ID, "screen")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := svc.GetFeed(ctx, display.DeviceKey)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if got.Page == nil || got.Page.ID != page.ID {
		t.Fatalf("feed page = %+v, want page %d", got.Page, page.ID)
	}
	if got.DisplayID != display.ID {
		t.Errorf("feed display id = %d, want %d", got.DisplayID, display.ID)
	}

	// Second poll is served from cache and keeps per-display identity.
	other, err := svc.Register(ctx, dept.ID, "second screen")
	if err != nil {
		t.Fatalf("Register second: %v", err)
	}
	cached, err := svc.GetFeed(ctx, other.DeviceKey)
	if err != nil {
		t.Fatalf("GetFeed(cached): %v", err)
	}
	if cached.DisplayID != other.ID || cached.Name != "second screen" {
		t.Errorf("cached feed identity = %d/%q, want %d/%q",
			cached.DisplayID, cached.Name, other.ID, "second screen")
	}
	if cached.Page == nil || cached.Page.ID != page.ID {
		t.Errorf("cached feed lost page")
	}
}

func TestGetFeedIdleWhenNothingScheduled(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	company := testutil.CreateCompany(t, db, "Acme", "acme")
	dept := testutil.CreateDepartment(t, db, company.ID, "Lobby", "lobby")

	feed := cache.NewMemoryCache(time.Minute)
	defer func() { _ = feed.Close() }()
	svc := NewDisplayService(db, NewScheduleService(db), feed)

	display, err := svc.Register(ctx, dept.ID, "screen")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := svc.GetFeed(ctx, display.DeviceKey)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if got.Page != nil {
		t.Errorf("idle feed carries page %+v", got.Page)
	}
}

func TestGetFeedUnknownKey(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	feed := cache.NewMemoryCache(time.Minute)
	defer func() { _ = feed.Close() }()
	svc := NewDisplayService(db, NewScheduleService(db), feed)

	if _, err := svc.GetFeed(context.Background(), "not-a-key"); !errors.Is(err, ErrDisplayNotFound) {
		t.Errorf("err = %v, want ErrDisplayNotFound", err)
	}
}

func TestInvalidateFeedForcesRebuild(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	company := testutil.CreateCompany(t, db, "Acme", "acme")
	dept := testutil.CreateDepartment(t, db, company.ID, "Lobby", "lobby")
	first := testutil.CreatePage(t, db, dept.ID, "first")
	second := testutil.CreatePage(t, db, dept.ID, "second")

	feed := cache.NewMemoryCache(time.Minute)
	defer func() { _ = feed.Close() }()
	schedules := NewScheduleService(db)
	svc := NewDisplayService(db, schedules, feed)

	sched, err := schedules.Create(ctx, dept.ID, ScheduleInput{
		PageID: first.ID, Name: "always", StartTime: 0, EndTime: 0,
		Weekdays: model.WeekdaysAll,
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	display, err := svc.Register(ctx, dept.ID, "screen")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := svc.GetFeed(ctx, display.DeviceKey)
	if err != nil || got.Page == nil || got.Page.ID != first.ID {
		t.Fatalf("initial feed = %+v err=%v", got, err)
	}

	if err := schedules.Update(ctx, sched.ID, ScheduleInput{
		PageID: second.ID, Name: "always", StartTime: 0, EndTime: 0,
		Weekdays: model.WeekdaysAll, Active: true,
	}); err != nil {
		t.Fatalf("update schedule: %v", err)
	}
	svc.InvalidateFeed(ctx, dept.ID)

	got, err = svc.GetFeed(ctx, display.DeviceKey)
	if err != nil {
		t.Fatalf("GetFeed after invalidate: %v", err)
	}
	if got.Page == nil || got.Page.ID != second.ID {
		t.Errorf("feed page = %+v, want %d after invalidation", got.Page, second.ID)
	}
}
