package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/opensignage/osign-go/internal/middleware"
	"github.com/opensignage/osign-go/internal/store"
)

// DepartmentRequest is the request body for creating or updating a
// department.
type DepartmentRequest struct {
	Name   string `json:"name"`
	Slug   string `json:"slug,omitempty"`
	Active *bool  `json:"active,omitempty"`
}

// ListDepartments handles GET /api/companies/{companyID}/departments.
// Company admins and system admins see every department; other users see
// only departments where they hold a role.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
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

	departments, err := h.engine.GetUserDepartments(ctx, userID, companyID)
	if err != nil {
		WriteInternalError(w, "Failed to list departments")
		return
	}
	WriteSuccess(w, departments, &Meta{Total: len(departments)})
}

// CreateDepartment handles POST /api/companies/{companyID}/departments.
func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.queries.GetCompanyByID(ctx, companyID); err != nil {
		notFoundOr(w, err, "company", sql.ErrNoRows)
		return
	}

	var req DepartmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteValidationError(w, map[string]string{"name": "is required"})
		return
	}
	slug, slugErr := normalizeSlug(req.Slug, req.Name)
	if slugErr != "" {
		WriteValidationError(w, map[string]string{"slug": slugErr})
		return
	}

	now := time.Now()
	department, err := h.queries.CreateDepartment(ctx, store.CreateDepartmentParams{
		CompanyID: companyID,
		Name:      req.Name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create department")
		return
	}

	WriteCreated(w, department)
}

// GetDepartment handles GET /api/departments/{departmentID}.
func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
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

	department, err := h.queries.GetDepartmentByID(ctx, departmentID)
	if err != nil {
		notFoundOr(w, err, "department", sql.ErrNoRows)
		return
	}
	WriteSuccess(w, department, nil)
}

// UpdateDepartment handles PUT /api/departments/{departmentID}. Requires
// company admin on the owning company.
func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	departmentID, ok := requireIDParam(w, r, "departmentID")
	if !ok {
		return
	}

	department, err := h.queries.GetDepartmentByID(ctx, departmentID)
	if err != nil {
		notFoundOr(w, err, "department", sql.ErrNoRows)
		return
	}

	allowed, err := h.engine.IsCompanyAdmin(ctx, userID, department.CompanyID)
	if !checkAccess(w, allowed, err) {
		return
	}

	var req DepartmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = department.Name
	}
	slug, slugErr := normalizeSlug(req.Slug, name)
	if slugErr != "" {
		WriteValidationError(w, map[string]string{"slug": slugErr})
		return
	}
	active := department.Active
	if req.Active != nil {
		active = *req.Active
	}

	if err := h.queries.UpdateDepartment(ctx, store.UpdateDepartmentParams{
		ID:        departmentID,
		Name:      name,
		Slug:      slug,
		Active:    active,
		UpdatedAt: time.Now(),
	}); err != nil {
		WriteInternalError(w, "Failed to update department")
		return
	}

	updated, err := h.queries.GetDepartmentByID(ctx, departmentID)
	if err != nil {
		WriteInternalError(w, "Failed to update department")
		return
	}
	WriteSuccess(w, updated, nil)
}

// DeleteDepartment handles DELETE /api/departments/{departmentID}.
// Requires company admin on the owning company.
func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	departmentID, ok := requireIDParam(w, r, "departmentID")
	if !ok {
		return
	}

	department, err := h.queries.GetDepartmentByID(ctx, departmentID)
	if err != nil {
		notFoundOr(w, err, "department", sql.ErrNoRows)
		return
	}

	allowed, err := h.engine.IsCompanyAdmin(ctx, userID, department.CompanyID)
	if !checkAccess(w, allowed, err) {
		return
	}

	if err := h.queries.DeleteDepartment(ctx, departmentID); err != nil {
		WriteInternalError(w, "Failed to delete department")
		return
	}

	h.displays.InvalidateFeed(ctx, departmentID)
	WriteNoContent(w)
}
