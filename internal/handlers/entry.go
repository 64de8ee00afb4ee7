package handlers

import (
	"net/http"

	"duo-journal-backend/internal/middleware"
	"duo-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// EntryHandler handles diary entries and the shared timeline
type EntryHandler struct {
	entryService *services.EntryService
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(entryService *services.EntryService) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
	}
}

// GetTimeline handles GET /api/v1/entries
func (h *EntryHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	view, err := h.entryService.Timeline(ctx, userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get timeline")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// SaveEntry handles PUT /api/v1/entries/{day}
func (h *EntryHandler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.SaveEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.entryService.Save(ctx, userID, chi.URLParam(r, "day"), req)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to save entry")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

// DeleteEntry handles DELETE /api/v1/entries/{id}
func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	entryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.entryService.Delete(ctx, userID, entryID); err != nil {
		respondServiceError(w, err, userID, "Failed to delete entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTags handles GET /api/v1/tags
func (h *EntryHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	counts, err := h.entryService.TagSummary(ctx, userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get tags")
		return
	}

	respondJSON(w, http.StatusOK, counts)
}
