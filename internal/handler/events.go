package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/util"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// EventResponse is the API shape of an audit event. Metadata passes
// through as raw JSON.
type EventResponse struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	UserID    *int64          `json:"user_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}

func eventToResponse(e model.Event) EventResponse {
	resp := EventResponse{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		Metadata:  json.RawMessage(e.Metadata),
		CreatedAt: e.CreatedAt,
	}
	if e.UserID.Valid {
		resp.UserID = &e.UserID.Int64
	}
	if len(resp.Metadata) == 0 {
		resp.Metadata = json.RawMessage("{}")
	}
	return resp
}

// ListEvents handles GET /api/admin/events. System administrators only;
// the route group enforces that.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := int64(defaultEventLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed := util.ParseNullInt64Positive(raw)
		if !parsed.Valid {
			WriteBadRequest(w, "limit must be a positive integer", nil)
			return
		}
		limit = parsed.Int64
		if limit > maxEventLimit {
			limit = maxEventLimit
		}
	}

	events, err := h.events.Recent(ctx, limit)
	if err != nil {
		WriteInternalError(w, "Failed to list events")
		return
	}

	resp := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventToResponse(e))
	}
	WriteSuccess(w, resp, &Meta{Total: len(resp)})
}
