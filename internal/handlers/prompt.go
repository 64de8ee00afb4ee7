package handlers

import (
	"net/http"

	"duo-journal-backend/internal/catalog"
	"duo-journal-backend/internal/middleware"
	"duo-journal-backend/internal/services"
)

// PromptHandler hands out conversation starters
type PromptHandler struct {
	promptService *services.PromptService
}

// NewPromptHandler creates a new prompt handler
func NewPromptHandler(promptService *services.PromptService) *PromptHandler {
	return &PromptHandler{
		promptService: promptService,
	}
}

// GetRandom handles GET /api/v1/prompts/random?kind=prompt|question
func (h *PromptHandler) GetRandom(w http.ResponseWriter, r *http.Request) {
	kind := catalog.Kind(r.URL.Query().Get("kind"))

	prompt, err := h.promptService.Random(kind)
	if err != nil {
		respondServiceError(w, err, middleware.GetUserID(r.Context()), "Failed to pick a prompt")
		return
	}

	respondJSON(w, http.StatusOK, prompt)
}
