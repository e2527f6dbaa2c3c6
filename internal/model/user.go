// Package model defines domain models and types used throughout the
// application including User, Company, Department, Layout and Schedule
// structures.
package model

import (
	"database/sql"
	"time"
)

// User represents a signage CMS user.
type User struct {
	ID            int64        `json:"id"`
	Email         string       `json:"email"`
	PasswordHash  string       `json:"-"` // Never expose in JSON
	Name          string       `json:"name"`
	IsSystemAdmin bool         `json:"is_system_admin"`
	Active        bool         `json:"active"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	LastLoginAt   sql.NullTime `json:"last_login_at,omitempty"`
}
