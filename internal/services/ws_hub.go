package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event types pushed to connected members
const (
	EventCoupleStatus  = "couple_status"
	EventPartnerStatus = "partner_status"
	EventPartnerJoined = "partner_joined"
	EventPartnerLeft   = "partner_left"
	EventEntrySaved    = "entry_saved"
	EventNotification  = "notification"
	EventPing          = "ping"
	EventPong          = "pong"
	EventError         = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Online  *bool       `json:"online,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections, one per user
type WSHub struct {
	mu      sync.RWMutex
	clients map[int64]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[int64]*wsClient),
	}
}

// Register registers a new WebSocket connection for a user, replacing an older one
func (h *WSHub) Register(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.clients[userID]; ok {
		existing.conn.Close()
	}
	h.clients[userID] = &wsClient{conn: conn}

	log.Info().Int64("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes the connection of a user if it is still conn
func (h *WSHub) Unregister(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[userID]; ok && client.conn == conn {
		client.conn.Close()
		delete(h.clients, userID)
		log.Info().Int64("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID int64, message WSMessage) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %d is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID, client.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// NotifyPartnerStatus tells partnerID whether their partner is connected
func (h *WSHub) NotifyPartnerStatus(partnerID int64, online bool) {
	if partnerID == 0 || !h.IsOnline(partnerID) {
		return
	}

	message := WSMessage{
		Type:   EventPartnerStatus,
		Online: &online,
	}
	if err := h.SendToUser(partnerID, message); err != nil {
		log.Error().
			Err(err).
			Int64("user_id", partnerID).
			Msg("Failed to notify partner status")
	}
}

// notifyUser sends an event to a user when they are online, logging delivery failures
func notifyUser(sink EventSink, userID int64, message WSMessage) {
	if sink == nil || userID == 0 {
		return
	}
	if hub, ok := sink.(*WSHub); ok && !hub.IsOnline(userID) {
		return
	}
	if err := sink.SendToUser(userID, message); err != nil {
		log.Error().
			Err(err).
			Int64("user_id", userID).
			Str("type", message.Type).
			Msg("Failed to deliver event")
	}
}
