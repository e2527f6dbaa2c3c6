package model

import (
	"database/sql"
	"time"
)

// Display is a registered screen belonging to a department. Displays pull
// their content feed with the device key; there is no push channel.
type Display struct {
	ID           int64        `json:"id"`
	DepartmentID int64        `json:"department_id"`
	Name         string       `json:"name"`
	DeviceKey    string       `json:"device_key"` // uuid, issued at registration
	Active       bool         `json:"active"`
	LastSeenAt   sql.NullTime `json:"last_seen_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
