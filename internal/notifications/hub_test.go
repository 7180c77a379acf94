package notifications

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn := dialHub(t, hub, "user-1")

	// Subscription registers asynchronously after the upgrade.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients["user-1"]) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast("user-1", Event{Event: "notification.created", NotificationID: "n-1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, "notification.created", event.Event)
	require.Equal(t, "n-1", event.NotificationID)
}

func TestBroadcastIgnoresOtherUsers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn := dialHub(t, hub, "user-1")

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients["user-1"]) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast("someone-else", Event{Event: "notification.created", NotificationID: "n-2"})
	hub.Broadcast("user-1", Event{Event: "notification.read", NotificationID: "n-3"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, "n-3", event.NotificationID)
}

func TestBroadcastWithoutSubscribersIsNoop(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	hub.Broadcast("nobody", Event{Event: "notification.created"})
}

func TestCloseDropsSubscribers(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "user-1")

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients["user-1"]) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}
