package handler

import (
	"net/http"

	"github.com/opensignage/osign-go/internal/version"
)

// HealthResponse is the payload for the health endpoint.
type HealthResponse struct {
	Status  string       `json:"status"`
	Version version.Info `json:"version"`
}

// Health handles GET /health. It pings the database so load balancers
// see a failing instance before users do.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable", nil)
		return
	}
	WriteSuccess(w, HealthResponse{Status: "ok", Version: version.Get()}, nil)
}
