package handler

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/opensignage/osign-go/internal/middleware"
)

// RouterConfig carries the cross-cutting pieces the route tree needs.
type RouterConfig struct {
	IsDevelopment bool

	// FeedRateLimiter throttles the unauthenticated display feed per IP.
	FeedRateLimiter *middleware.GlobalRateLimiter
}

// Routes builds the full route tree: public health and feed endpoints,
// session-authenticated management API, and the system-admin group.
func (h *Handler) Routes(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(30 * time.Second))

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment)
	// Displays are not browsers; the feed skips browser policy headers
	securityConfig.ExcludePaths = []string{"/feed/"}
	r.Use(middleware.SecurityHeaders(securityConfig))
	r.Use(middleware.RequestPath)
	r.Use(h.sessions.LoadAndSave)

	r.Get("/health", h.Health)

	// Device feed: no session, device key is the credential
	r.Group(func(r chi.Router) {
		if cfg.FeedRateLimiter != nil {
			r.Use(cfg.FeedRateLimiter.Middleware())
		}
		r.Get("/feed/{deviceKey}", h.GetFeed)
	})

	r.Route("/api", func(r chi.Router) {
		// Auth routes. Login protection adds per-IP throttling and
		// account lockout on top of the session layer.
		r.Group(func(r chi.Router) {
			r.With(h.loginGate.Middleware()).Post("/auth/login", h.Login)
			r.Post("/auth/logout", h.Logout)
		})

		// Management API: session required, user loaded into context
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(h.sessions))
			r.Use(middleware.LoadUser(h.sessions, h.db))

			r.Get("/auth/me", h.Me)

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", h.ListCompanies)
				r.Post("/", h.CreateCompany)
				r.Route("/{companyID}", func(r chi.Router) {
					r.Get("/", h.GetCompany)
					r.Put("/", h.UpdateCompany)
					r.Delete("/", h.DeleteCompany)

					r.Get("/departments", h.ListDepartments)
					r.Post("/departments", h.CreateDepartment)

					r.Get("/layouts", h.ListLayouts)
					r.Post("/layouts", h.CreateLayout)

					r.Post("/roles", h.AssignCompanyRole)
					r.Delete("/roles/{userID}", h.RemoveCompanyRole)
				})
			})

			r.Route("/departments/{departmentID}", func(r chi.Router) {
				r.Get("/", h.GetDepartment)
				r.Put("/", h.UpdateDepartment)
				r.Delete("/", h.DeleteDepartment)

				r.Post("/roles", h.AssignDepartmentRole)
				r.Delete("/roles/{userID}", h.RemoveDepartmentRole)

				r.Get("/pages", h.ListPages)
				r.Post("/pages", h.CreatePage)

				r.Get("/schedules", h.ListSchedules)
				r.Post("/schedules", h.CreateSchedule)
				r.Get("/schedules/current", h.GetCurrentSchedule)

				r.Get("/displays", h.ListDisplays)
				r.Post("/displays", h.RegisterDisplay)
			})

			r.Route("/layouts/{layoutID}", func(r chi.Router) {
				r.Get("/", h.GetLayout)
				r.Put("/", h.UpdateLayout)
				r.Delete("/", h.DeleteLayout)
				r.Put("/definition", h.UpdateLayoutDefinition)
			})

			r.Route("/pages/{pageID}", func(r chi.Router) {
				r.Get("/", h.GetPage)
				r.Put("/", h.UpdatePage)
				r.Delete("/", h.DeletePage)

				r.Post("/sections", h.AttachPageSection)
				r.Delete("/sections/{linkID}", h.DetachPageSection)

				r.Post("/contents", h.CreatePageContent)
			})

			r.Route("/contents/{contentID}", func(r chi.Router) {
				r.Put("/", h.UpdatePageContent)
				r.Delete("/", h.DeletePageContent)
			})

			r.Route("/schedules/{scheduleID}", func(r chi.Router) {
				r.Get("/", h.GetSchedule)
				r.Put("/", h.UpdateSchedule)
				r.Delete("/", h.DeleteSchedule)
			})

			r.Delete("/displays/{displayID}", h.DeleteDisplay)

			// System administration
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireSystemAdmin(h.engine))

				r.Get("/users", h.ListUsers)
				r.Post("/users", h.CreateUser)

				r.Get("/events", h.ListEvents)

				r.Get("/jobs", h.ListJobs)
				r.Post("/jobs/{source}/{name}/trigger", h.TriggerJob)
				r.Put("/jobs/{source}/{name}/schedule", h.UpdateJobSchedule)
				r.Delete("/jobs/{source}/{name}/schedule", h.ResetJobSchedule)
			})
		})
	})

	return r
}
