// Package handler provides the JSON HTTP API: authentication, tenant and
// role administration, layout management, pages, schedules, and the
// device-facing display feed.
package handler

import (
	"database/sql"

	"github.com/alexedwards/scs/v2"

	"github.com/opensignage/osign-go/internal/authz"
	"github.com/opensignage/osign-go/internal/middleware"
	"github.com/opensignage/osign-go/internal/scheduler"
	"github.com/opensignage/osign-go/internal/service"
	"github.com/opensignage/osign-go/internal/store"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db        *sql.DB
	queries   *store.Queries
	engine    *authz.Engine
	layouts   *service.LayoutService
	schedules *service.ScheduleService
	displays  *service.DisplayService
	events    *service.EventService
	sessions  *scs.SessionManager
	loginGate *middleware.LoginProtection
	jobs      *scheduler.Registry
}

// Config collects the dependencies needed by NewHandler.
type Config struct {
	DB        *sql.DB
	Engine    *authz.Engine
	Layouts   *service.LayoutService
	Schedules *service.ScheduleService
	Displays  *service.DisplayService
	Events    *service.EventService
	Sessions  *scs.SessionManager
	LoginGate *middleware.LoginProtection
	Jobs      *scheduler.Registry
}

// NewHandler creates the API handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		db:        cfg.DB,
		queries:   store.New(cfg.DB),
		engine:    cfg.Engine,
		layouts:   cfg.Layouts,
		schedules: cfg.Schedules,
		displays:  cfg.Displays,
		events:    cfg.Events,
		sessions:  cfg.Sessions,
		loginGate: cfg.LoginGate,
		jobs:      cfg.Jobs,
	}
}
