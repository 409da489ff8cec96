package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/facelink/internal/auth"
	"github.com/your-org/facelink/pkg/dto"
)

func newServer(t *testing.T, defaultUser uuid.UUID) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", auth.UserMiddleware(defaultUser, nil), hub.HandleWS)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) dto.WSEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev dto.WSEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "no message expected")
}

func TestHub_DeliversToUserDevices(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()
	hub, srv := newServer(t, userA)

	kitchen := dial(t, srv, "?device_id=kitchen", nil)
	hall := dial(t, srv, "?device_id=hall", nil)
	other := dial(t, srv, "", http.Header{"X-User-Id": []string{userB.String()}})

	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(dto.WSEvent{Type: dto.WSTimelineEvent, UserID: userA, Data: map[string]string{"kind": "task_added"}})

	ev := readEvent(t, kitchen)
	assert.Equal(t, dto.WSTimelineEvent, ev.Type)
	assert.Equal(t, userA, ev.UserID)
	assert.Equal(t, dto.WSTimelineEvent, readEvent(t, hall).Type)
	expectSilence(t, other)
}

func TestHub_DeviceScopedMessage(t *testing.T) {
	user := uuid.New()
	hub, srv := newServer(t, user)

	kitchen := dial(t, srv, "?device_id=kitchen", nil)
	hall := dial(t, srv, "?device_id=hall", nil)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(dto.WSEvent{Type: dto.WSRecognition, UserID: user, DeviceID: "hall"})

	ev := readEvent(t, hall)
	assert.Equal(t, dto.WSRecognition, ev.Type)
	assert.Equal(t, "hall", ev.DeviceID)
	expectSilence(t, kitchen)
}

func TestHub_Disconnect(t *testing.T) {
	hub, srv := newServer(t, uuid.New())

	conn := dial(t, srv, "", nil)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
