package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/opensignage/osign-go/internal/authz"
	"github.com/opensignage/osign-go/internal/middleware"
)

// RoleRequest is the request body for assigning a role.
type RoleRequest struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// canManageDepartmentRoles reports whether the user may grant or revoke
// roles within the department: department manager or admin above it.
func (h *Handler) canManageDepartmentRoles(r *http.Request, userID, departmentID int64) (bool, error) {
	return h.engine.IsDepartmentManager(r.Context(), userID, departmentID)
}

// AssignCompanyRole handles POST /api/companies/{companyID}/roles.
// Requires company admin.
func (h *Handler) AssignCompanyRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetUser(r)

	companyID, ok := requireIDParam(w, r, "companyID")
	if !ok {
		return
	}

	allowed, err := h.engine.IsCompanyAdmin(ctx, actor.ID, companyID)
	if !checkAccess(w, allowed, err) {
		return
	}

	var req RoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		WriteValidationError(w, map[string]string{"user_id": "is required"})
		return
	}

	if _, err := h.queries.GetUserByID(ctx, req.UserID); err != nil {
		notFoundOr(w, err, "user", sql.ErrNoRows)
		return
	}
	if _, err := h.queries.GetCompanyByID(ctx, companyID); err != nil {
		notFoundOr(w, err, "company", sql.ErrNoRows)
		return
	}

	if err := h.engine.AssignCompanyRole(ctx, req.UserID, companyID, req.Role, actor.Email); err != nil {
		if errors.Is(err, authz.ErrInvalidRole) {
			WriteValidationError(w, map[string]string{"role": "unknown company role"})
			return
		}
		WriteInternalError(w, "Failed to assign role")
		return
	}
	WriteNoContent(w)
}

// RemoveCompanyRole handles DELETE /api/companies/{companyID}/roles/{userID}.
// Department roles under the company are removed with it.
func (h *Handler) RemoveCompanyRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetUser(r)

	companyID, ok := requireIDParam(w, r, "companyID")
	if !ok {
		return
	}
	targetID, ok := requireIDParam(w, r, "userID")
	if !ok {
		return
	}

	allowed, err := h.engine.IsCompanyAdmin(ctx, actor.ID, companyID)
	if !checkAccess(w, allowed, err) {
		return
	}

	if err := h.engine.RemoveCompanyRole(ctx, targetID, companyID); err != nil {
		WriteInternalError(w, "Failed to remove role")
		return
	}
	WriteNoContent(w)
}

// AssignDepartmentRole handles POST /api/departments/{departmentID}/roles.
// Requires department manager (or admin above). A user with no company
// role is auto-provisioned a company viewer role.
func (h *Handler) AssignDepartmentRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetUser(r)

	departmentID, ok := requireIDParam(w, r, "departmentID")
	if !ok {
		return
	}

	allowed, err := h.canManageDepartmentRoles(r, actor.ID, departmentID)
	if !checkAccess(w, allowed, err) {
		return
	}

	var req RoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		WriteValidationError(w, map[string]string{"user_id": "is required"})
		return
	}

	if _, err := h.queries.GetUserByID(ctx, req.UserID); err != nil {
		notFoundOr(w, err, "user", sql.ErrNoRows)
		return
	}

	if err := h.engine.AssignDepartmentRole(ctx, req.UserID, departmentID, req.Role, actor.Email); err != nil {
		switch {
		case errors.Is(err, authz.ErrInvalidRole):
			WriteValidationError(w, map[string]string{"role": "unknown department role"})
		case errors.Is(err, authz.ErrDepartmentNotFound):
			WriteNotFound(w, "department not found")
		default:
			WriteInternalError(w, "Failed to assign role")
		}
		return
	}
	WriteNoContent(w)
}

// RemoveDepartmentRole handles
// DELETE /api/departments/{departmentID}/roles/{userID}. The user's
// company role is kept.
func (h *Handler) RemoveDepartmentRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetUser(r)

	departmentID, ok := requireIDParam(w, r, "departmentID")
	if !ok {
		return
	}
	targetID, ok := requireIDParam(w, r, "userID")
	if !ok {
		return
	}

	allowed, err := h.canManageDepartmentRoles(r, actor.ID, departmentID)
	if !checkAccess(w, allowed, err) {
		return
	}

	if err := h.engine.RemoveDepartmentRole(ctx, targetID, departmentID); err != nil {
		WriteInternalError(w, "Failed to remove role")
		return
	}
	WriteNoContent(w)
}
