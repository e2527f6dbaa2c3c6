package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/opensignage/osign-go/internal/layout"
	"github.com/opensignage/osign-go/internal/middleware"
	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/service"
)

// LayoutRequest is the request body for creating a layout.
type LayoutRequest struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// LayoutUpdateRequest is the request body for renaming a layout.
type LayoutUpdateRequest struct {
	Name   string `json:"name"`
	Active *bool  `json:"active,omitempty"`
}

// LayoutDefinitionRequest is the request body for replacing a layout's
// grid definition.
type LayoutDefinitionRequest struct {
	Definition string `json:"definition"`
}

// LayoutDetail bundles a layout with its derived sections.
type LayoutDetail struct {
	model.Layout
	Sections []model.LayoutSection `json:"sections"`
	InUseBy  int64                 `json:"in_use_by"`
}

// writeLayoutValidationError maps a *layout.ValidationError onto a 422
// response keyed by the failing definition path.
func writeLayoutValidationError(w http.ResponseWriter, err error) bool {
	var verr *layout.ValidationError
	if errors.As(err, &verr) {
		WriteValidationError(w, map[string]string{verr.Path: verr.Msg})
		return true
	}
	return false
}

// ListLayouts handles GET /api/companies/{companyID}/layouts.
func (h *Handler) ListLayouts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	companyID, ok := requireIDParam(w, r, "companyID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanAccessCompany(ctx, userID, companyID)
	if !checkAccess(w, allowed, err) {
		return
	}

	layouts, err := h.layouts.ListByCompany(ctx, companyID)
	if err != nil {
		WriteInternalError(w, "Failed to list layouts")
		return
	}
	WriteSuccess(w, layouts, &Meta{Total: len(layouts)})
}

// CreateLayout handles POST /api/companies/{companyID}/layouts. Requires
// company admin. The definition is validated and sections are derived in
// the same transaction.
func (h *Handler) CreateLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	companyID, ok := requireIDParam(w, r, "companyID")
	if !ok {
		return
	}

	allowed, err := h.engine.IsCompanyAdmin(ctx, userID, companyID)
	if !checkAccess(w, allowed, err) {
		return
	}

	var req LayoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteValidationError(w, map[string]string{"name": "is required"})
		return
	}

	created, err := h.layouts.Create(ctx, companyID, req.Name, req.Definition)
	if err != nil {
		if writeLayoutValidationError(w, err) {
			return
		}
		WriteInternalError(w, "Failed to create layout")
		return
	}

	slog.Info("layout created",
		"category", model.EventCategoryLayout,
		"user_id", userID,
		"layout_id", created.ID,
		"company_id", companyID,
	)
	WriteCreated(w, created)
}

// requireLayoutAccess loads a layout and checks company access for the
// user, optionally requiring company admin.
func (h *Handler) requireLayoutAccess(w http.ResponseWriter, r *http.Request, needAdmin bool) (model.Layout, bool) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	layoutID, ok := requireIDParam(w, r, "layoutID")
	if !ok {
		return model.Layout{}, false
	}

	lay, err := h.layouts.Get(ctx, layoutID)
	if err != nil {
		notFoundOr(w, err, "layout", service.ErrLayoutNotFound)
		return model.Layout{}, false
	}

	var allowed bool
	if needAdmin {
		allowed, err = h.engine.IsCompanyAdmin(ctx, userID, lay.CompanyID)
	} else {
		allowed, err = h.engine.CanAccessCompany(ctx, userID, lay.CompanyID)
	}
	if !checkAccess(w, allowed, err) {
		return model.Layout{}, false
	}
	return lay, true
}

// GetLayout handles GET /api/layouts/{layoutID}, returning the layout
// with its sections and reference count.
func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lay, ok := h.requireLayoutAccess(w, r, false)
	if !ok {
		return
	}

	sections, err := h.layouts.Sections(ctx, lay.ID)
	if err != nil {
		WriteInternalError(w, "Failed to load layout sections")
		return
	}
	inUse, err := h.layouts.InUseBy(ctx, lay.ID)
	if err != nil {
		WriteInternalError(w, "Failed to load layout usage")
		return
	}

	WriteSuccess(w, LayoutDetail{Layout: lay, Sections: sections, InUseBy: inUse}, nil)
}

// UpdateLayout handles PUT /api/layouts/{layoutID} (rename / activate).
func (h *Handler) UpdateLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lay, ok := h.requireLayoutAccess(w, r, true)
	if !ok {
		return
	}

	var req LayoutUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = lay.Name
	}
	active := lay.Active
	if req.Active != nil {
		active = *req.Active
	}

	if err := h.layouts.Rename(ctx, lay.ID, name, active); err != nil {
		WriteInternalError(w, "Failed to update layout")
		return
	}

	updated, err := h.layouts.Get(ctx, lay.ID)
	if err != nil {
		WriteInternalError(w, "Failed to update layout")
		return
	}
	WriteSuccess(w, updated, nil)
}

// UpdateLayoutDefinition handles PUT /api/layouts/{layoutID}/definition.
// The stored sections are dropped and rebuilt from the new definition;
// content placed into the old sections is removed with them.
func (h *Handler) UpdateLayoutDefinition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	lay, ok := h.requireLayoutAccess(w, r, true)
	if !ok {
		return
	}

	var req LayoutDefinitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.layouts.UpdateDefinition(ctx, lay.ID, req.Definition); err != nil {
		if writeLayoutValidationError(w, err) {
			return
		}
		WriteInternalError(w, "Failed to update layout definition")
		return
	}

	slog.Warn("layout sections rebuilt",
		"category", model.EventCategoryLayout,
		"user_id", userID,
		"layout_id", lay.ID,
		"company_id", lay.CompanyID,
	)

	sections, err := h.layouts.Sections(ctx, lay.ID)
	if err != nil {
		WriteInternalError(w, "Failed to load layout sections")
		return
	}
	updated, err := h.layouts.Get(ctx, lay.ID)
	if err != nil {
		WriteInternalError(w, "Failed to load layout")
		return
	}
	WriteSuccess(w, LayoutDetail{Layout: updated, Sections: sections}, nil)
}

// DeleteLayout handles DELETE /api/layouts/{layoutID}. Pages referencing
// the layout are detached, not deleted.
func (h *Handler) DeleteLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	lay, ok := h.requireLayoutAccess(w, r, true)
	if !ok {
		return
	}

	if err := h.layouts.Delete(ctx, lay.ID); err != nil {
		WriteInternalError(w, "Failed to delete layout")
		return
	}

	slog.Warn("layout deleted",
		"category", model.EventCategoryLayout,
		"user_id", userID,
		"layout_id", lay.ID,
		"company_id", lay.CompanyID,
	)
	WriteNoContent(w)
}
