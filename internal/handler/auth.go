package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/opensignage/osign-go/internal/auth"
	"github.com/opensignage/osign-go/internal/middleware"
	"github.com/opensignage/osign-go/internal/model"
)

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	IsSystemAdmin bool       `json:"is_system_admin"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

func userToResponse(u model.User) UserResponse {
	resp := UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		IsSystemAdmin: u.IsSystemAdmin,
	}
	if u.LastLoginAt.Valid {
		resp.LastLoginAt = &u.LastLoginAt.Time
	}
	return resp
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		WriteBadRequest(w, "Email and password are required", nil)
		return
	}

	if locked, remaining := h.loginGate.IsAccountLocked(email); locked {
		WriteError(w, http.StatusTooManyRequests, "account_locked",
			"Account temporarily locked. Try again in "+remaining.Round(time.Second).String()+".", nil)
		return
	}

	user, err := h.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			WriteInternalError(w, "Login failed")
			return
		}
		// Unknown accounts still burn an attempt
		h.loginGate.RecordFailedAttempt(email)
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	match, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		WriteInternalError(w, "Login failed")
		return
	}
	if !match || !user.Active {
		locked, _ := h.loginGate.RecordFailedAttempt(email)
		slog.Warn("failed login attempt",
			"category", model.EventCategoryAuth,
			"email", email,
			"ip", middleware.GetClientIP(r),
		)
		if locked {
			WriteError(w, http.StatusTooManyRequests, "account_locked",
				"Too many failed attempts. Account temporarily locked.", nil)
			return
		}
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	h.loginGate.RecordSuccessfulLogin(email)

	// Rotate the session token on privilege change
	if err := h.sessions.RenewToken(ctx); err != nil {
		WriteInternalError(w, "Login failed")
		return
	}
	h.sessions.Put(ctx, middleware.SessionKeyUserID, user.ID)

	if err := h.queries.UpdateUserLastLogin(ctx, user.ID, time.Now()); err != nil {
		slog.Warn("failed to record last login", "error", err, "user_id", user.ID)
	}

	slog.Info("user logged in",
		"category", model.EventCategoryAuth,
		"user_id", user.ID,
		"email", user.Email,
	)

	WriteSuccess(w, userToResponse(user), nil)
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	if err := h.sessions.Destroy(ctx); err != nil {
		WriteInternalError(w, "Logout failed")
		return
	}

	slog.Info("user logged out",
		"category", model.EventCategoryAuth,
		"user_id", userID,
	)

	WriteNoContent(w)
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}
	WriteSuccess(w, userToResponse(*user), nil)
}
