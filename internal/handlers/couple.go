package handlers

import (
	"net/http"

	"duo-journal-backend/internal/middleware"
	"duo-journal-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// CoupleHandler handles couple-related HTTP requests
type CoupleHandler struct {
	coupleService *services.CoupleService
}

// NewCoupleHandler creates a new couple handler
func NewCoupleHandler(coupleService *services.CoupleService) *CoupleHandler {
	return &CoupleHandler{
		coupleService: coupleService,
	}
}

// CreateCouple handles POST /api/v1/couples
func (h *CoupleHandler) CreateCouple(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	couple, err := h.coupleService.CreateCouple(ctx, userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to create couple")
		return
	}

	respondJSON(w, http.StatusCreated, couple)
}

// JoinCouple handles POST /api/v1/couples/join
func (h *CoupleHandler) JoinCouple(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.JoinCoupleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.coupleService.JoinCouple(ctx, userID, req.Code); err != nil {
		respondServiceError(w, err, userID, "Failed to join couple")
		return
	}

	status, err := h.coupleService.Status(ctx, userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get couple")
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// GetCouple handles GET /api/v1/couples/me
func (h *CoupleHandler) GetCouple(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	status, err := h.coupleService.Status(ctx, userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get couple")
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// LeaveCouple handles DELETE /api/v1/couples/me
func (h *CoupleHandler) LeaveCouple(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := h.coupleService.LeaveCouple(ctx, userID); err != nil {
		respondServiceError(w, err, userID, "Failed to leave couple")
		return
	}

	log.Info().Int64("user_id", userID).Msg("Couple left via API")
	w.WriteHeader(http.StatusNoContent)
}
