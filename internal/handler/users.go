package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/opensignage/osign-go/internal/auth"
	"github.com/opensignage/osign-go/internal/middleware"
	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/store"
)

const minPasswordLength = 12

// UserRequest is the request body for creating a user account.
type UserRequest struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Password      string `json:"password"`
	IsSystemAdmin bool   `json:"is_system_admin"`
}

// ListUsers handles GET /api/admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.queries.ListUsers(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to list users")
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, userToResponse(u))
	}
	WriteSuccess(w, resp, &Meta{Total: len(resp)})
}

// CreateUser handles POST /api/admin/users. Accounts are created by a
// system administrator; there is no self-service signup.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	fieldErrs := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		fieldErrs["email"] = "must be a valid email address"
	}
	if name == "" {
		fieldErrs["name"] = "is required"
	}
	if len(req.Password) < minPasswordLength {
		fieldErrs["password"] = "must be at least 12 characters"
	}
	if len(fieldErrs) > 0 {
		WriteValidationError(w, fieldErrs)
		return
	}

	if _, err := h.queries.GetUserByEmail(ctx, email); err == nil {
		WriteConflict(w, "A user with this email already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		WriteInternalError(w, "Failed to create user")
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(ctx, store.CreateUserParams{
		Email:         email,
		PasswordHash:  hash,
		Name:          name,
		IsSystemAdmin: req.IsSystemAdmin,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create user")
		return
	}

	slog.Info("user created",
		"category", model.EventCategoryAuth,
		"user_id", middleware.GetUserID(r),
		"created_user_id", user.ID,
		"email", user.Email,
		"is_system_admin", user.IsSystemAdmin,
	)
	WriteCreated(w, userToResponse(user))
}
