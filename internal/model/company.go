package model

import "time"

// Company is the tenant boundary. It owns departments, layouts and role
// grants; all scoped authorization checks resolve to a company eventually.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Department is a unit inside a company. It owns pages, schedules and
// displays, and is the scope for department-level roles.
type Department struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DepartmentWithCompany joins a department with its owning company name,
// for list views that display both.
type DepartmentWithCompany struct {
	Department
	CompanyName string `json:"company_name"`
}
