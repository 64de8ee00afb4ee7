package handlers

import (
	"net/http"

	"duo-journal-backend/internal/middleware"
	"duo-journal-backend/internal/services"
)

// SpecialDateHandler handles the couple's special dates
type SpecialDateHandler struct {
	specialDateService *services.SpecialDateService
}

// NewSpecialDateHandler creates a new special date handler
func NewSpecialDateHandler(specialDateService *services.SpecialDateService) *SpecialDateHandler {
	return &SpecialDateHandler{
		specialDateService: specialDateService,
	}
}

// ListSpecialDates handles GET /api/v1/special-dates
func (h *SpecialDateHandler) ListSpecialDates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	dates, err := h.specialDateService.Upcoming(ctx, userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get special dates")
		return
	}

	respondJSON(w, http.StatusOK, dates)
}

// CreateSpecialDate handles POST /api/v1/special-dates
func (h *SpecialDateHandler) CreateSpecialDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.CreateSpecialDateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	date, err := h.specialDateService.Create(ctx, userID, req)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to create special date")
		return
	}

	respondJSON(w, http.StatusCreated, date)
}

// DeleteSpecialDate handles DELETE /api/v1/special-dates/{id}
func (h *SpecialDateHandler) DeleteSpecialDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.specialDateService.Delete(ctx, userID, id); err != nil {
		respondServiceError(w, err, userID, "Failed to delete special date")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
