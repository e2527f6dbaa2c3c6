package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensignage/osign-go/internal/store"
	"github.com/opensignage/osign-go/internal/testutil"
)

func TestSeedIdempotent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, db))

	queries := store.New(db)
	admin, err := queries.GetUserByEmail(ctx, store.DefaultAdminEmail)
	require.NoError(t, err)
	assert.True(t, admin.IsSystemAdmin)
	assert.Equal(t, store.DefaultAdminName, admin.Name)

	// A second run must not create a duplicate admin.
	require.NoError(t, store.Seed(ctx, db))

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE email = ?`, store.DefaultAdminEmail).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSchedulerOverrideRoundTrip(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	queries := store.New(db)
	key := store.GetSchedulerOverrideParams{Source: "core", Name: "prune_events"}

	_, err := queries.GetSchedulerOverride(ctx, key)
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, queries.UpsertSchedulerOverride(ctx, store.UpsertSchedulerOverrideParams{
		Source:           "core",
		Name:             "prune_events",
		OverrideSchedule: "0 3 * * *",
	}))

	schedule, err := queries.GetSchedulerOverride(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "0 3 * * *", schedule)

	// Upsert replaces rather than duplicating.
	require.NoError(t, queries.UpsertSchedulerOverride(ctx, store.UpsertSchedulerOverrideParams{
		Source:           "core",
		Name:             "prune_events",
		OverrideSchedule: "30 4 * * *",
	}))
	schedule, err = queries.GetSchedulerOverride(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "30 4 * * *", schedule)

	require.NoError(t, queries.DeleteSchedulerOverride(ctx, store.DeleteSchedulerOverrideParams{
		Source: "core",
		Name:   "prune_events",
	}))
	_, err = queries.GetSchedulerOverride(ctx, key)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDisplayQueries(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	queries := store.New(db)

	company := testutil.CreateCompany(t, db, "Acme", "acme")
	dept := testutil.CreateDepartment(t, db, company.ID, "Lobby", "lobby")

	display, err := queries.CreateDisplay(ctx, store.CreateDisplayParams{
		DepartmentID: dept.ID,
		Name:         "Entrance Screen",
		DeviceKey:    "key-entrance",
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, display.Active)
	assert.False(t, display.LastSeenAt.Valid)

	byKey, err := queries.GetDisplayByDeviceKey(ctx, "key-entrance")
	require.NoError(t, err)
	assert.Equal(t, display.ID, byKey.ID)

	// A display that has never polled counts as stale.
	stale, err := queries.ListStaleDisplays(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, display.ID, stale[0].ID)

	require.NoError(t, queries.TouchDisplay(ctx, display.ID, time.Now()))
	stale, err = queries.ListStaleDisplays(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stale)

	touched, err := queries.GetDisplayByID(ctx, display.ID)
	require.NoError(t, err)
	assert.True(t, touched.LastSeenAt.Valid)

	// Deactivated displays disappear from the device key lookup but stay
	// reachable by ID.
	_, err = db.Exec(`UPDATE displays SET active = 0 WHERE id = ?`, display.ID)
	require.NoError(t, err)
	_, err = queries.GetDisplayByDeviceKey(ctx, "key-entrance")
	require.ErrorIs(t, err, sql.ErrNoRows)
	_, err = queries.GetDisplayByID(ctx, display.ID)
	require.NoError(t, err)

	require.NoError(t, queries.DeleteDisplay(ctx, display.ID))
	_, err = queries.GetDisplayByID(ctx, display.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)
}
