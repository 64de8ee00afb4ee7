package handlers

import (
	"net/http"

	"duo-journal-backend/internal/middleware"
	"duo-journal-backend/internal/services"
)

// ExportHandler handles timeline exports
type ExportHandler struct {
	exportService *services.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// CreateExport handles POST /api/v1/exports
func (h *ExportHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	export, err := h.exportService.Export(ctx, userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to export timeline")
		return
	}

	respondJSON(w, http.StatusCreated, export)
}
