package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// dialHub connects a client whose server side is registered in hub as userID
func dialHub(t *testing.T, hub *WSHub, userID int64) *websocket.Conn {
	t.Helper()
	registered := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(userID, conn)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not registered")
	}
	return client
}

func TestWSHubSendToUser(t *testing.T) {
	hub := NewWSHub()
	client := dialHub(t, hub, 42)

	require.True(t, hub.IsOnline(42))
	require.NoError(t, hub.SendToUser(42, WSMessage{Type: EventEntrySaved, Data: map[string]string{"day": "2024-06-01"}}))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, EventEntrySaved, msg["type"])
	require.Equal(t, map[string]interface{}{"day": "2024-06-01"}, msg["data"])
}

func TestWSHubPartnerStatus(t *testing.T) {
	hub := NewWSHub()
	client := dialHub(t, hub, 7)

	hub.NotifyPartnerStatus(7, true)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg WSMessage
	require.NoError(t, client.ReadJSON(&msg))
	require.Equal(t, EventPartnerStatus, msg.Type)
	require.NotNil(t, msg.Online)
	require.True(t, *msg.Online)
}

func TestWSHubOffline(t *testing.T) {
	hub := NewWSHub()

	require.False(t, hub.IsOnline(1))
	require.Error(t, hub.SendToUser(1, WSMessage{Type: EventNotification}))

	// offline partners are skipped silently
	hub.NotifyPartnerStatus(1, false)
	notifyUser(hub, 1, WSMessage{Type: EventNotification})
}

func TestWSHubUnregisterKeepsNewerConnection(t *testing.T) {
	hub := NewWSHub()
	dialHub(t, hub, 5)

	hub.mu.RLock()
	first := hub.clients[5].conn
	hub.mu.RUnlock()

	dialHub(t, hub, 5)
	hub.Unregister(5, first)
	require.True(t, hub.IsOnline(5))
}
