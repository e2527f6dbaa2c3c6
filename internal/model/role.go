package model

import "time"

// Company-level roles.
const (
	CompanyRoleAdmin  = "company_admin"
	CompanyRoleViewer = "viewer"
)

// Department-level roles. Privilege is totally ordered:
// manager > editor > viewer.
const (
	DepartmentRoleManager = "department_manager"
	DepartmentRoleEditor  = "editor"
	DepartmentRoleViewer  = "viewer"
)

// ValidCompanyRole reports whether role names a known company role.
func ValidCompanyRole(role string) bool {
	return role == CompanyRoleAdmin || role == CompanyRoleViewer
}

// ValidDepartmentRole reports whether role names a known department role.
func ValidDepartmentRole(role string) bool {
	switch role {
	case DepartmentRoleManager, DepartmentRoleEditor, DepartmentRoleViewer:
		return true
	}
	return false
}

// CompanyRole is a user's role grant within one company. At most one active
// row exists per (user, company) pair; reassignment updates in place.
type CompanyRole struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	CompanyID  int64     `json:"company_id"`
	Role       string    `json:"role"`
	Active     bool      `json:"active"`
	AssignedBy string    `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

// DepartmentRole is a user's role grant within one department. A department
// role implies some company role in the owning company; the authorization
// engine auto-provisions a company viewer role when the implication would
// otherwise break.
type DepartmentRole struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	DepartmentID int64     `json:"department_id"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	AssignedBy   string    `json:"assigned_by"`
	AssignedAt   time.Time `json:"assigned_at"`
}
