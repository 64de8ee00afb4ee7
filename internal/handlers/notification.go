package handlers

import (
	"net/http"

	"duo-journal-backend/internal/middleware"
	"duo-journal-backend/internal/services"
)

// NotificationHandler handles anniversary notifications
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// ListNotifications handles GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	list, err := h.notificationService.List(ctx, userID)
	if err != nil {
		respondServiceError(w, err, userID, "Failed to get notifications")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// MarkRead handles POST /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(ctx, userID, id); err != nil {
		respondServiceError(w, err, userID, "Failed to mark notification read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
