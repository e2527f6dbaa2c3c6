package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/opensignage/osign-go/internal/middleware"
	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/service"
)

// DisplayRequest is the request body for registering a display.
type DisplayRequest struct {
	Name string `json:"name"`
}

// ListDisplays handles GET /api/departments/{departmentID}/displays.
func (h *Handler) ListDisplays(w http.ResponseWriter, r *http.Request) {
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

	displays, err := h.displays.ListByDepartment(ctx, departmentID)
	if err != nil {
		WriteInternalError(w, "Failed to list displays")
		return
	}
	WriteSuccess(w, displays, &Meta{Total: len(displays)})
}

// RegisterDisplay handles POST /api/departments/{departmentID}/displays.
// Requires department manager; the response carries the issued device
// key, the screen's only credential.
func (h *Handler) RegisterDisplay(w http.ResponseWriter, r *http.Request) {
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

	var req DisplayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		WriteValidationError(w, map[string]string{"name": "is required"})
		return
	}

	display, err := h.displays.Register(ctx, departmentID, name)
	if err != nil {
		WriteInternalError(w, "Failed to register display")
		return
	}
	WriteCreated(w, display)
}

// DeleteDisplay handles DELETE /api/displays/{displayID}. Requires
// department manager on the display's department.
func (h *Handler) DeleteDisplay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	displayID, ok := requireIDParam(w, r, "displayID")
	if !ok {
		return
	}

	display, err := h.displays.Get(ctx, displayID)
	if err != nil {
		notFoundOr(w, err, "display", service.ErrDisplayNotFound)
		return
	}

	allowed, err := h.engine.IsDepartmentManager(ctx, userID, display.DepartmentID)
	if !checkAccess(w, allowed, err) {
		return
	}

	if err := h.displays.Delete(ctx, display.ID); err != nil {
		WriteInternalError(w, "Failed to delete display")
		return
	}

	slog.Info("display removed",
		"category", model.EventCategorySystem,
		"user_id", userID,
		"display_id", display.ID,
		"department_id", display.DepartmentID,
	)
	WriteNoContent(w)
}

// GetFeed handles GET /feed/{deviceKey}. No session: the device key is
// the credential. Unknown or deactivated keys get a 404 so key-guessing
// reveals nothing about which departments exist.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deviceKey := chi.URLParam(r, "deviceKey")
	if deviceKey == "" {
		WriteNotFound(w, "display not found")
		return
	}

	feed, err := h.displays.GetFeed(ctx, deviceKey)
	if err != nil {
		notFoundOr(w, err, "display", service.ErrDisplayNotFound)
		return
	}
	WriteSuccess(w, feed, nil)
}
