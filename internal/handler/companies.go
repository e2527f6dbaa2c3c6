package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/opensignage/osign-go/internal/middleware"
	"github.com/opensignage/osign-go/internal/store"
	"github.com/opensignage/osign-go/internal/util"
)

// CompanyRequest is the request body for creating or updating a company.
type CompanyRequest struct {
	Name   string `json:"name"`
	Slug   string `json:"slug,omitempty"`
	Active *bool  `json:"active,omitempty"`
}

// normalizeSlug derives a slug from the explicit value or the name,
// returning a validation error message when neither yields a valid slug.
func normalizeSlug(slug, name string) (string, string) {
	s := strings.TrimSpace(slug)
	if s == "" {
		s = util.Slugify(name)
	}
	if !util.IsValidSlug(s) {
		return "", "must be lowercase alphanumerics and single hyphens"
	}
	return s, ""
}

// requireSystemAdmin checks the system admin bit for company-level
// mutations.
func (h *Handler) requireSystemAdmin(w http.ResponseWriter, r *http.Request) bool {
	allowed, err := h.engine.IsSystemAdmin(r.Context(), middleware.GetUserID(r))
	return checkAccess(w, allowed, err)
}

// ListCompanies handles GET /api/companies. System admins see every
// active company; other users see companies where they hold a role.
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	companies, err := h.engine.GetUserCompanies(ctx, userID)
	if err != nil {
		WriteInternalError(w, "Failed to list companies")
		return
	}
	WriteSuccess(w, companies, &Meta{Total: len(companies)})
}

// CreateCompany handles POST /api/companies. System admin only.
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.requireSystemAdmin(w, r) {
		return
	}

	var req CompanyRequest
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

	taken, err := h.queries.CountCompaniesBySlug(ctx, slug)
	if err != nil {
		WriteInternalError(w, "Failed to create company")
		return
	}
	if taken != 0 {
		WriteConflict(w, "A company with this slug already exists")
		return
	}

	now := time.Now()
	company, err := h.queries.CreateCompany(ctx, store.CreateCompanyParams{
		Name:      req.Name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create company")
		return
	}

	WriteCreated(w, company)
}

// GetCompany handles GET /api/companies/{companyID}.
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
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

	company, err := h.queries.GetCompanyByID(ctx, companyID)
	if err != nil {
		notFoundOr(w, err, "company", sql.ErrNoRows)
		return
	}
	WriteSuccess(w, company, nil)
}

// UpdateCompany handles PUT /api/companies/{companyID}. System admin
// only.
func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.requireSystemAdmin(w, r) {
		return
	}

	companyID, ok := requireIDParam(w, r, "companyID")
	if !ok {
		return
	}

	company, err := h.queries.GetCompanyByID(ctx, companyID)
	if err != nil {
		notFoundOr(w, err, "company", sql.ErrNoRows)
		return
	}

	var req CompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = company.Name
	}
	slug, slugErr := normalizeSlug(req.Slug, name)
	if slugErr != "" {
		WriteValidationError(w, map[string]string{"slug": slugErr})
		return
	}
	active := company.Active
	if req.Active != nil {
		active = *req.Active
	}

	if err := h.queries.UpdateCompany(ctx, store.UpdateCompanyParams{
		ID:        companyID,
		Name:      name,
		Slug:      slug,
		Active:    active,
		UpdatedAt: time.Now(),
	}); err != nil {
		WriteInternalError(w, "Failed to update company")
		return
	}

	updated, err := h.queries.GetCompanyByID(ctx, companyID)
	if err != nil {
		WriteInternalError(w, "Failed to update company")
		return
	}
	WriteSuccess(w, updated, nil)
}

// DeleteCompany handles DELETE /api/companies/{companyID}. System admin
// only. Departments, roles, and content cascade at the schema level.
func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.requireSystemAdmin(w, r) {
		return
	}

	companyID, ok := requireIDParam(w, r, "companyID")
	if !ok {
		return
	}

	if _, err := h.queries.GetCompanyByID(ctx, companyID); err != nil {
		notFoundOr(w, err, "company", sql.ErrNoRows)
		return
	}

	if err := h.queries.DeleteCompany(ctx, companyID); err != nil {
		WriteInternalError(w, "Failed to delete company")
		return
	}
	WriteNoContent(w)
}
