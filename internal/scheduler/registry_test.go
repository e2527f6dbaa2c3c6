package scheduler

import (
	"context"
	"testing"

	"github.com/robfig/cron/v3"

	"github.com/opensignage/osign-go/internal/store"
	"github.com/opensignage/osign-go/internal/testutil"
)

func TestNewRegistry(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	registry := NewRegistry(db, testutil.TestLoggerSilent())

	if registry.db != db {
		t.Error("registry.db not set")
	}
	if registry.jobs == nil {
		t.Error("registry.jobs not initialized")
	}
}

func TestRegisterAndList(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	registry := NewRegistry(db, testutil.TestLoggerSilent())

	cronInst := cron.New()
	defer cronInst.Stop()

	jobFunc := func() {}
	entryID, err := cronInst.AddFunc("@every 1h", jobFunc)
	if err != nil {
		t.Fatalf("AddFunc: %v", err)
	}

	registry.Register("core", "prune_events", "Prune old events", "@every 1h", cronInst, entryID, jobFunc, nil)

	jobs := registry.List()
	if len(jobs) != 1 {
		t.Fatalf("List() returned %d jobs, want 1", len(jobs))
	}
	job := jobs[0]
	if job.Source != "core" || job.Name != "prune_events" {
		t.Errorf("job = %s:%s, want core:prune_events", job.Source, job.Name)
	}
	if job.IsOverridden {
		t.Error("IsOverridden = true for job without override")
	}
	if job.CanTrigger {
		t.Error("CanTrigger = true for job without trigger func")
	}
}

func TestGetEffectiveSchedule(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	registry := NewRegistry(db, testutil.TestLoggerSilent())

	if got := registry.GetEffectiveSchedule("core", "prune_events", "30 3 * * *"); got != "30 3 * * *" {
		t.Errorf("GetEffectiveSchedule() = %q, want default", got)
	}

	err := store.New(db).UpsertSchedulerOverride(context.Background(), store.UpsertSchedulerOverrideParams{
		Source:           "core",
		Name:             "prune_events",
		OverrideSchedule: "0 4 * * *",
	})
	if err != nil {
		t.Fatalf("UpsertSchedulerOverride: %v", err)
	}

	if got := registry.GetEffectiveSchedule("core", "prune_events", "30 3 * * *"); got != "0 4 * * *" {
		t.Errorf("GetEffectiveSchedule() = %q, want override", got)
	}
}

func TestUpdateSchedule(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	registry := NewRegistry(db, testutil.TestLoggerSilent())

	cronInst := cron.New()
	defer cronInst.Stop()

	jobFunc := func() {}
	entryID, _ := cronInst.AddFunc("@every 1h", jobFunc)
	registry.Register("core", "stale_displays", "Report offline displays", "@every 1h", cronInst, entryID, jobFunc, nil)

	t.Run("invalid expression rejected", func(t *testing.T) {
		if err := registry.UpdateSchedule("core", "stale_displays", "not a cron expr"); err == nil {
			t.Error("UpdateSchedule() accepted invalid expression")
		}
	})

	t.Run("unknown job rejected", func(t *testing.T) {
		if err := registry.UpdateSchedule("core", "missing", "@every 5m"); err == nil {
			t.Error("UpdateSchedule() accepted unknown job")
		}
	})

	t.Run("valid update persists", func(t *testing.T) {
		if err := registry.UpdateSchedule("core", "stale_displays", "@every 5m"); err != nil {
			t.Fatalf("UpdateSchedule: %v", err)
		}

		jobs := registry.List()
		if jobs[0].Schedule != "@every 5m" {
			t.Errorf("Schedule = %q, want @every 5m", jobs[0].Schedule)
		}
		if !jobs[0].IsOverridden {
			t.Error("IsOverridden = false after update")
		}

		stored, err := store.New(db).GetSchedulerOverride(context.Background(), store.GetSchedulerOverrideParams{
			Source: "core",
			Name:   "stale_displays",
		})
		if err != nil {
			t.Fatalf("GetSchedulerOverride: %v", err)
		}
		if stored != "@every 5m" {
			t.Errorf("stored override = %q, want @every 5m", stored)
		}
	})
}

func TestResetSchedule(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	registry := NewRegistry(db, testutil.TestLoggerSilent())

	cronInst := cron.New()
	defer cronInst.Stop()

	jobFunc := func() {}
	entryID, _ := cronInst.AddFunc("@every 1h", jobFunc)
	registry.Register("core", "prune_events", "Prune old events", "@every 1h", cronInst, entryID, jobFunc, nil)

	if err := registry.UpdateSchedule("core", "prune_events", "@every 10m"); err != nil {
		t.Fatalf("UpdateSchedule: %v", err)
	}
	if err := registry.ResetSchedule("core", "prune_events"); err != nil {
		t.Fatalf("ResetSchedule: %v", err)
	}

	jobs := registry.List()
	if jobs[0].Schedule != "@every 1h" {
		t.Errorf("Schedule = %q, want default @every 1h", jobs[0].Schedule)
	}
	if jobs[0].IsOverridden {
		t.Error("IsOverridden = true after reset")
	}

	_, err := store.New(db).GetSchedulerOverride(context.Background(), store.GetSchedulerOverrideParams{
		Source: "core",
		Name:   "prune_events",
	})
	if err == nil {
		t.Error("override still persisted after reset")
	}
}

func TestTriggerNow(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	registry := NewRegistry(db, testutil.TestLoggerSilent())

	cronInst := cron.New()
	defer cronInst.Stop()

	ran := false
	trigger := func() error {
		ran = true
		return nil
	}
	jobFunc := func() { _ = trigger() }
	entryID, _ := cronInst.AddFunc("@every 1h", jobFunc)
	registry.Register("core", "prune_events", "Prune old events", "@every 1h", cronInst, entryID, jobFunc, trigger)

	if err := registry.TriggerNow("core", "prune_events"); err != nil {
		t.Fatalf("TriggerNow: %v", err)
	}
	if !ran {
		t.Error("trigger func did not run")
	}

	if err := registry.TriggerNow("core", "missing"); err == nil {
		t.Error("TriggerNow() accepted unknown job")
	}
}
