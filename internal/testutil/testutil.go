// Package testutil provides shared test helpers for the oSign project.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/store"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "osign-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// CreateUser inserts a regular active user and returns it.
func CreateUser(t *testing.T, db *sql.DB, email string) model.User {
	t.Helper()
	return createUser(t, db, email, false)
}

// CreateSystemAdmin inserts an active user with the system admin flag set.
func CreateSystemAdmin(t *testing.T, db *sql.DB, email string) model.User {
	t.Helper()
	return createUser(t, db, email, true)
}

func createUser(t *testing.T, db *sql.DB, email string, sysAdmin bool) model.User {
	t.Helper()
	now := time.Now()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:         email,
		Name:          email,
		PasswordHash:  "x",
		IsSystemAdmin: sysAdmin,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return user
}

// CreateCompany inserts an active company and returns it.
func CreateCompany(t *testing.T, db *sql.DB, name, slug string) model.Company {
	t.Helper()
	now := time.Now()
	company, err := store.New(db).CreateCompany(context.Background(), store.CreateCompanyParams{
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCompany(%s): %v", name, err)
	}
	return company
}

// CreateDepartment inserts an active department under the company.
func CreateDepartment(t *testing.T, db *sql.DB, companyID int64, name, slug string) model.Department {
	t.Helper()
	now := time.Now()
	dept, err := store.New(db).CreateDepartment(context.Background(), store.CreateDepartmentParams{
		CompanyID: companyID,
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateDepartment(%s): %v", name, err)
	}
	return dept
}

// CreateLayout inserts a layout owned by the company with the given
// grid definition JSON.
func CreateLayout(t *testing.T, db *sql.DB, companyID int64, name, definition string) model.Layout {
	t.Helper()
	now := time.Now()
	lay, err := store.New(db).CreateLayout(context.Background(), store.CreateLayoutParams{
		CompanyID:  companyID,
		Name:       name,
		Definition: definition,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateLayout(%s): %v", name, err)
	}
	return lay
}

// CreatePage inserts a page owned by the department.
func CreatePage(t *testing.T, db *sql.DB, departmentID int64, title string) model.Page {
	t.Helper()
	now := time.Now()
	page, err := store.New(db).CreatePage(context.Background(), store.CreatePageParams{
		DepartmentID: departmentID,
		Title:        title,
		Slug:         title,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreatePage(%s): %v", title, err)
	}
	return page
}

// Eventually polls fn until it returns true or the timeout expires.
func Eventually(t *testing.T, timeout time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
