package handlers

import (
	"errors"
	"net/http"
	"time"

	"duo-journal-backend/internal/middleware"
	"duo-journal-backend/internal/repository"
	"duo-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// PushTokenRequest represents the body of PUT /me/push-token
type PushTokenRequest struct {
	PushToken string `json:"push_token"`
}

// PasswordResetRequest represents the body of POST /password-resets
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetResponse carries the issued reset token
type PasswordResetResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// NewPasswordRequest represents the body of POST /password-resets/{token}
type NewPasswordRequest struct {
	Password string `json:"password"`
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.userService.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, 0, "Failed to create user")
		return
	}

	log.Info().
		Int64("user_id", session.User.ID).
		Msg("User created")

	respondJSON(w, http.StatusCreated, session)
}

// CreateSession handles POST /api/v1/sessions
func (h *UserHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.userService.Login(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, 0, "Failed to sign in")
		return
	}

	log.Info().
		Int64("user_id", session.User.ID).
		Msg("User signed in")

	respondJSON(w, http.StatusOK, session)
}

// GetMe handles GET /api/v1/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdatePushToken handles PUT /api/v1/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, req.PushToken); err != nil {
		respondServiceError(w, err, userID, "Failed to update push token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RequestPasswordReset handles POST /api/v1/password-resets
func (h *UserHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reset, err := h.userService.RequestPasswordReset(r.Context(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, "No account uses this email", http.StatusNotFound)
		return
	}
	if err != nil {
		respondServiceError(w, err, 0, "Failed to request password reset")
		return
	}

	log.Info().
		Int64("user_id", reset.UserID).
		Msg("Password reset requested")

	respondJSON(w, http.StatusCreated, PasswordResetResponse{
		Token:     reset.Token,
		ExpiresAt: reset.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// ResetPassword handles POST /api/v1/password-resets/{token}
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req NewPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
		respondServiceError(w, err, 0, "Failed to reset password")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
