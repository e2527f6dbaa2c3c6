package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/opensignage/osign-go/internal/middleware"
	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/service"
)

// ScheduleRequest is the request body for creating or updating a
// schedule. Times are minutes since midnight, weekdays a Mon=1 bitmask.
type ScheduleRequest struct {
	PageID    int64  `json:"page_id"`
	Name      string `json:"name"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
	Weekdays  *int64 `json:"weekdays,omitempty"`
	Priority  int64  `json:"priority"`
	Active    *bool  `json:"active,omitempty"`
}

func (req ScheduleRequest) toInput() (service.ScheduleInput, map[string]string) {
	errs := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "is required"
	}
	if req.PageID <= 0 {
		errs["page_id"] = "is required"
	}
	if len(errs) > 0 {
		return service.ScheduleInput{}, errs
	}

	in := service.ScheduleInput{
		PageID:    req.PageID,
		Name:      strings.TrimSpace(req.Name),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Weekdays:  model.WeekdaysAll,
		Priority:  req.Priority,
		Active:    true,
	}
	if req.Weekdays != nil {
		in.Weekdays = *req.Weekdays
	}
	if req.Active != nil {
		in.Active = *req.Active
	}
	return in, nil
}

// writeScheduleError maps service validation failures to API errors.
func writeScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidTimeWindow):
		WriteValidationError(w, map[string]string{"start_time": "times must be within 0..1439 minutes"})
	case errors.Is(err, service.ErrNoWeekdays):
		WriteValidationError(w, map[string]string{"weekdays": "must cover at least one weekday"})
	case errors.Is(err, service.ErrPageWrongOwner):
		WriteValidationError(w, map[string]string{"page_id": "must reference a page in the same department"})
	case errors.Is(err, service.ErrScheduleNotFound):
		WriteNotFound(w, "schedule not found")
	default:
		WriteInternalError(w, "Failed to save schedule")
	}
}

// ListSchedules handles GET /api/departments/{departmentID}/schedules.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	departmentID, ok := requireIDParam(w, r, "departmentID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanAccessDepartment(ctx, userID, departmentID)
	if !checkAccess(w, allowed, err) {
		return
	}

	schedules, err := h.schedules.ListByDepartment(ctx, departmentID)
	if err != nil {
		WriteInternalError(w, "Failed to list schedules")
		return
	}
	WriteSuccess(w, schedules, &Meta{Total: len(schedules)})
}

// CreateSchedule handles POST /api/departments/{departmentID}/schedules.
// Requires department manager.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	departmentID, ok := requireIDParam(w, r, "departmentID")
	if !ok {
		return
	}

	allowed, err := h.engine.IsDepartmentManager(ctx, userID, departmentID)
	if !checkAccess(w, allowed, err) {
		return
	}

	var req ScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, fieldErrs := req.toInput()
	if fieldErrs != nil {
		WriteValidationError(w, fieldErrs)
		return
	}

	sched, err := h.schedules.Create(ctx, departmentID, in)
	if err != nil {
		writeScheduleError(w, err)
		return
	}

	h.displays.InvalidateFeed(ctx, departmentID)
	WriteCreated(w, sched)
}

// requireSchedule loads a schedule and checks access to its department,
// requiring manager when mutate is set.
func (h *Handler) requireSchedule(w http.ResponseWriter, r *http.Request, mutate bool) (model.Schedule, bool) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	scheduleID, ok := requireIDParam(w, r, "scheduleID")
	if !ok {
		return model.Schedule{}, false
	}

	sched, err := h.schedules.Get(ctx, scheduleID)
	if err != nil {
		notFoundOr(w, err, "schedule", service.ErrScheduleNotFound)
		return model.Schedule{}, false
	}

	var allowed bool
	if mutate {
		allowed, err = h.engine.IsDepartmentManager(ctx, userID, sched.DepartmentID)
	} else {
		allowed, err = h.engine.CanAccessDepartment(ctx, userID, sched.DepartmentID)
	}
	if !checkAccess(w, allowed, err) {
		return model.Schedule{}, false
	}
	return sched, true
}

// GetSchedule handles GET /api/schedules/{scheduleID}.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, ok := h.requireSchedule(w, r, false)
	if !ok {
		return
	}
	WriteSuccess(w, sched, nil)
}

// UpdateSchedule handles PUT /api/schedules/{scheduleID}. Requires
// department manager.
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sched, ok := h.requireSchedule(w, r, true)
	if !ok {
		return
	}

	var req ScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, fieldErrs := req.toInput()
	if fieldErrs != nil {
		WriteValidationError(w, fieldErrs)
		return
	}

	if err := h.schedules.Update(ctx, sched.ID, in); err != nil {
		writeScheduleError(w, err)
		return
	}

	h.displays.InvalidateFeed(ctx, sched.DepartmentID)

	updated, err := h.schedules.Get(ctx, sched.ID)
	if err != nil {
		WriteInternalError(w, "Failed to update schedule")
		return
	}
	WriteSuccess(w, updated, nil)
}

// DeleteSchedule handles DELETE /api/schedules/{scheduleID}. Requires
// department manager.
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sched, ok := h.requireSchedule(w, r, true)
	if !ok {
		return
	}

	if err := h.schedules.Delete(ctx, sched.ID); err != nil {
		WriteInternalError(w, "Failed to delete schedule")
		return
	}

	h.displays.InvalidateFeed(ctx, sched.DepartmentID)
	WriteNoContent(w)
}

// CurrentScheduleResponse reports which schedule (if any) is live for a
// department right now.
type CurrentScheduleResponse struct {
	Schedule *model.Schedule `json:"schedule"`
	At       time.Time       `json:"at"`
}

// GetCurrentSchedule handles GET
// /api/departments/{departmentID}/schedules/current.
func (h *Handler) GetCurrentSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	departmentID, ok := requireIDParam(w, r, "departmentID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanAccessDepartment(ctx, userID, departmentID)
	if !checkAccess(w, allowed, err) {
		return
	}

	now := time.Now()
	sched, found, err := h.schedules.CurrentActive(ctx, departmentID, now)
	if err != nil {
		WriteInternalError(w, "Failed to resolve current schedule")
		return
	}

	resp := CurrentScheduleResponse{At: now}
	if found {
		resp.Schedule = &sched
	}
	WriteSuccess(w, resp, nil)
}
