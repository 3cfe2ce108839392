package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Karion/internal/domain/models"
)

func dial(t *testing.T, h *Hub, hello interface{}) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, hello)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &env))
	return env
}

func TestHubSendsHelloAndBroadcasts(t *testing.T) {
	h := NewHub(nil)
	conn := dial(t, h, map[string]string{"regime": "Mixed"})

	hello := readEnvelope(t, conn)
	assert.Equal(t, "overview", hello["type"])

	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 10*time.Millisecond)

	err := h.PublishOverview(context.Background(), &models.MarketOverview{Regime: models.RegimeRiskOff, LastUpdate: "13:00"})
	require.NoError(t, err)

	env := readEnvelope(t, conn)
	data, ok := env["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "13:00", data["last_update"])
}

func TestHubForgetsClosedClients(t *testing.T) {
	h := NewHub(nil)
	conn := dial(t, h, nil)
	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastWithoutClients(t *testing.T) {
	n, err := NewHub(nil).Broadcast("overview", map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Zero(t, n)
}
