package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/store"
)

// Schedule validation failures.
var (
	ErrScheduleNotFound  = errors.New("schedule not found")
	ErrInvalidTimeWindow = errors.New("time window out of range")
	ErrNoWeekdays        = errors.New("schedule covers no weekdays")
	ErrPageWrongOwner    = errors.New("page belongs to a different department")
)

const minutesPerDay = 24 * 60

// ScheduleService manages department playback schedules and resolves
// which page a department should show at a given instant.
type ScheduleService struct {
	queries *store.Queries
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(db *sql.DB) *ScheduleService {
	return &ScheduleService{queries: store.New(db)}
}

// ScheduleInput carries the user-editable schedule fields.
type ScheduleInput struct {
	PageID    int64
	Name      string
	StartTime int64 // minutes since midnight
	EndTime   int64
	Weekdays  int64
	Priority  int64
	Active    bool
}

func (s *ScheduleService) validate(ctx context.Context, departmentID int64, in ScheduleInput) error {
	if in.StartTime < 0 || in.StartTime >= minutesPerDay ||
		in.EndTime < 0 || in.EndTime >= minutesPerDay {
		return fmt.Errorf("%w: start=%d end=%d", ErrInvalidTimeWindow, in.StartTime, in.EndTime)
	}
	if in.Weekdays&model.WeekdaysAll == 0 {
		return ErrNoWeekdays
	}
	page, err := s.queries.GetPageByID(ctx, in.PageID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPageWrongOwner
	}
	if err != nil {
		return fmt.Errorf("loading page %d: %w", in.PageID, err)
	}
	if page.DepartmentID != departmentID {
		return ErrPageWrongOwner
	}
	return nil
}

// Create validates and inserts a schedule. The referenced page must belong
// to the same department.
func (s *ScheduleService) Create(ctx context.Context, departmentID int64, in ScheduleInput) (model.Schedule, error) {
	if err := s.validate(ctx, departmentID, in); err != nil {
		return model.Schedule{}, err
	}
	now := time.Now()
	return s.queries.CreateSchedule(ctx, store.CreateScheduleParams{
		DepartmentID: departmentID,
		PageID:       in.PageID,
		Name:         in.Name,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		Weekdays:     in.Weekdays,
		Priority:     in.Priority,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Update validates and replaces a schedule's editable fields.
func (s *ScheduleService) Update(ctx context.Context, id int64, in ScheduleInput) error {
	sched, err := s.queries.GetScheduleByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrScheduleNotFound
	}
	if err != nil {
		return fmt.Errorf("loading schedule %d: %w", id, err)
	}
	if err := s.validate(ctx, sched.DepartmentID, in); err != nil {
		return err
	}
	return s.queries.UpdateSchedule(ctx, store.UpdateScheduleParams{
		ID:        id,
		PageID:    in.PageID,
		Name:      in.Name,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Weekdays:  in.Weekdays,
		Priority:  in.Priority,
		Active:    in.Active,
		UpdatedAt: time.Now(),
	})
}

// Get fetches one schedule.
func (s *ScheduleService) Get(ctx context.Context, id int64) (model.Schedule, error) {
	sched, err := s.queries.GetScheduleByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Schedule{}, ErrScheduleNotFound
	}
	return sched, err
}

// ListByDepartment returns the department's schedules, highest priority
// first.
func (s *ScheduleService) ListByDepartment(ctx context.Context, departmentID int64) ([]model.Schedule, error) {
	return s.queries.ListSchedulesByDepartment(ctx, departmentID)
}

// Delete removes a schedule.
func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	return s.queries.DeleteSchedule(ctx, id)
}

// CurrentActive resolves which schedule a department should be playing at
// the given instant: among active schedules whose weekday bit and time
// window cover it, the one with the highest priority wins (lowest id on a
// tie, since the listing order is stable). Returns false when nothing
// matches.
func (s *ScheduleService) CurrentActive(ctx context.Context, departmentID int64, at time.Time) (model.Schedule, bool, error) {
	schedules, err := s.queries.ListSchedulesByDepartment(ctx, departmentID)
	if err != nil {
		return model.Schedule{}, false, fmt.Errorf("listing schedules: %w", err)
	}
	for _, sched := range schedules {
		if sched.Matches(at) {
			return sched, true, nil
		}
	}
	return model.Schedule{}, false, nil
}
