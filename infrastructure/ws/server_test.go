package ws

import (
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"cipher-relay/crypto"
	"cipher-relay/runtime"
	"cipher-relay/services"
)

type wireEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func newGatewayServer(t *testing.T) *httptest.Server {
	t.Helper()
	key, err := crypto.RandomRootKey()
	require.NoError(t, err)
	engine, err := crypto.NewEngine(key, 0)
	require.NoError(t, err)
	dispatcher := runtime.NewDispatcher(slog.Default(), engine, runtime.NewRegistry())
	server := NewServer(slog.Default(), services.NewRelayService(dispatcher), 16, time.Second)

	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt wireEvent
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func TestServer_RegisterFlow(t *testing.T) {
	req := require.New(t)
	ts := newGatewayServer(t)
	conn := dial(t, ts)

	// When the client registers
	req.NoError(conn.WriteJSON(map[string]any{
		"type": "register_user",
		"data": map[string]any{"username": "Alice"},
	}))

	// Then it gets an acknowledgment status
	evt := readEvent(t, conn)
	req.Equal("status_update", evt.Type)
	req.Contains(evt.Data["msg"], "Alice")
}

func TestServer_UnknownEventType(t *testing.T) {
	req := require.New(t)
	ts := newGatewayServer(t)
	conn := dial(t, ts)

	req.NoError(conn.WriteJSON(map[string]any{"type": "make_coffee", "data": map[string]any{}}))

	evt := readEvent(t, conn)
	req.Equal("status_update", evt.Type)
	req.Contains(evt.Data["msg"], "unknown event type")
}

func TestServer_MalformedJSON(t *testing.T) {
	req := require.New(t)
	ts := newGatewayServer(t)
	conn := dial(t, ts)

	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("not json at all")))

	evt := readEvent(t, conn)
	req.Equal("status_update", evt.Type)
	req.Contains(evt.Data["msg"], "malformed payload")
}

func TestServer_SendPayloadValidation(t *testing.T) {
	req := require.New(t)
	ts := newGatewayServer(t)
	conn := dial(t, ts)

	req.NoError(conn.WriteJSON(map[string]any{
		"type": "register_user",
		"data": map[string]any{"username": "Alice"},
	}))
	_ = readEvent(t, conn) // ack

	// When a send_message frame misses its recipient field
	req.NoError(conn.WriteJSON(map[string]any{
		"type": "send_message",
		"data": map[string]any{"sender": "Alice", "message": "hello"},
	}))

	evt := readEvent(t, conn)
	req.Equal("status_update", evt.Type)
	req.Contains(evt.Data["msg"], "invalid send_message payload")
}
