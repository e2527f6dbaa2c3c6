package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/opensignage/osign-go/internal/middleware"
	"github.com/opensignage/osign-go/internal/model"
)

// JobScheduleRequest is the request body for overriding a job's cron
// schedule.
type JobScheduleRequest struct {
	Schedule string `json:"schedule"`
}

// ListJobs handles GET /api/admin/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.List()
	WriteSuccess(w, jobs, &Meta{Total: len(jobs)})
}

func jobParams(r *http.Request) (source, name string) {
	return chi.URLParam(r, "source"), chi.URLParam(r, "name")
}

// TriggerJob handles POST /api/admin/jobs/{source}/{name}/trigger.
func (h *Handler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	source, name := jobParams(r)

	if err := h.jobs.TriggerNow(source, name); err != nil {
		WriteNotFound(w, err.Error())
		return
	}

	slog.Info("job triggered",
		"category", model.EventCategorySystem,
		"user_id", middleware.GetUserID(r),
		"job", source+":"+name,
	)
	WriteNoContent(w)
}

// UpdateJobSchedule handles PUT /api/admin/jobs/{source}/{name}/schedule,
// persisting a cron override for the job.
func (h *Handler) UpdateJobSchedule(w http.ResponseWriter, r *http.Request) {
	source, name := jobParams(r)

	var req JobScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	schedule := strings.TrimSpace(req.Schedule)
	if schedule == "" {
		WriteValidationError(w, map[string]string{"schedule": "is required"})
		return
	}

	if err := h.jobs.UpdateSchedule(source, name, schedule); err != nil {
		WriteValidationError(w, map[string]string{"schedule": err.Error()})
		return
	}

	slog.Info("job schedule overridden",
		"category", model.EventCategorySystem,
		"user_id", middleware.GetUserID(r),
		"job", source+":"+name,
		"schedule", schedule,
	)
	WriteNoContent(w)
}

// ResetJobSchedule handles DELETE /api/admin/jobs/{source}/{name}/schedule,
// dropping any override and restoring the default cron expression.
func (h *Handler) ResetJobSchedule(w http.ResponseWriter, r *http.Request) {
	source, name := jobParams(r)

	if err := h.jobs.ResetSchedule(source, name); err != nil {
		WriteNotFound(w, err.Error())
		return
	}

	slog.Info("job schedule reset",
		"category", model.EventCategorySystem,
		"user_id", middleware.GetUserID(r),
		"job", source+":"+name,
	)
	WriteNoContent(w)
}
