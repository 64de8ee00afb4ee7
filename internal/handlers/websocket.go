package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"duo-journal-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub           *services.WSHub
	userService   *services.UserService
	coupleService *services.CoupleService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	coupleService *services.CoupleService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		userService:   userService,
		coupleService: coupleService,
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.userService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	ctx := r.Context()
	partnerID := h.sendCoupleStatus(ctx, userID)
	h.hub.NotifyPartnerStatus(partnerID, true)
	defer func() {
		// the partner may have changed while connected
		if m, err := h.coupleService.Membership(context.WithoutCancel(ctx), userID); err == nil {
			h.hub.NotifyPartnerStatus(m.PartnerID, false)
		}
	}()

	log.Info().Int64("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Int64("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(userID, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, userID, msg); err != nil {
			log.Error().Err(err).Int64("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
		}
	}
}

// sendCoupleStatus tells a fresh connection about its couple and returns the partner ID
func (h *WebSocketHandler) sendCoupleStatus(ctx context.Context, userID int64) int64 {
	msg := services.WSMessage{
		Type: services.EventCoupleStatus,
		Data: map[string]interface{}{"has_couple": false},
	}

	var partnerID int64
	status, err := h.coupleService.Status(ctx, userID)
	switch {
	case err == nil:
		if m, err := h.coupleService.Membership(ctx, userID); err == nil {
			partnerID = m.PartnerID
		}
		online := partnerID != 0 && h.hub.IsOnline(partnerID)
		msg.Online = &online
		msg.Data = map[string]interface{}{
			"has_couple": true,
			"couple":     status,
		}
	case !errors.Is(err, services.ErrNotInCouple):
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load couple status")
	}

	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().
			Err(err).
			Int64("user_id", userID).
			Msg("Failed to send couple_status message")
	}
	return partnerID
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID int64, msg services.WSMessage) error {
	switch msg.Type {
	case services.EventPing:
		return h.hub.SendToUser(userID, services.WSMessage{Type: services.EventPong})
	case services.EventPartnerStatus:
		m, err := h.coupleService.Membership(ctx, userID)
		if err != nil {
			return h.sendError(userID, err.Error())
		}
		online := m.PartnerID != 0 && h.hub.IsOnline(m.PartnerID)
		return h.hub.SendToUser(userID, services.WSMessage{
			Type:   services.EventPartnerStatus,
			Online: &online,
		})
	default:
		return h.sendError(userID, "Unknown message type")
	}
}

// sendError sends an error message to a user
func (h *WebSocketHandler) sendError(userID int64, message string) error {
	return h.hub.SendToUser(userID, services.WSMessage{
		Type:    services.EventError,
		Message: message,
	})
}
