package ws

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"junketops-service/internal/domain/event"
	"junketops-service/internal/pkg/jwt"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// dialTestClient runs a hub-handled websocket endpoint and returns a
// connected peer for the given auth.
func dialTestClient(t *testing.T, hub *Hub, auth *ClientAuth) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		client := NewClient(hub, conn, auth)
		hub.Register <- client
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) *event.Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := event.ParseMessage(data)
	require.NoError(t, err)
	return msg
}

func sendEvent(t *testing.T, conn *websocket.Conn, msg *event.Message) {
	t.Helper()

	data, err := msg.ToJSON()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestHubBroadcastReportRefreshed(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialTestClient(t, hub, &ClientAuth{IdentityID: 7, Roles: []string{"admin"}})

	connected := readEvent(t, conn)
	assert.Equal(t, event.TypeConnected, connected.Type)

	sendEvent(t, conn, event.NewMessage(event.TypeSubscribe, event.SubscribeRequest{
		Channels: []event.Channel{event.ChannelDashboard},
	}))
	ack := readEvent(t, conn)
	assert.Equal(t, event.TypeSubscribe, ack.Type)

	hub.BroadcastReportRefreshed(event.RefreshedData{GeneratedAt: time.Now(), Warnings: 2})

	got := readEvent(t, conn)
	assert.Equal(t, event.TypeReportRefreshed, got.Type)
}

func TestHubUnsubscribedClientsStaySilent(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialTestClient(t, hub, &ClientAuth{IdentityID: 7})
	readEvent(t, conn) // connected

	hub.BroadcastTripUpdated("trip-1")

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "no frame expected without a subscription")
}

func TestHubPingPong(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialTestClient(t, hub, &ClientAuth{IdentityID: 1})
	readEvent(t, conn) // connected

	sendEvent(t, conn, event.NewMessage(event.TypePing, nil))

	got := readEvent(t, conn)
	assert.Equal(t, event.TypePong, got.Type)
}

func TestClientSubscribePermissions(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())

	t.Run("system channel is admin only", func(t *testing.T) {
		agent := NewClient(hub, nil, &ClientAuth{IdentityID: 2, Roles: []string{"agent"}, AgentID: "agent-1"})
		assert.False(t, agent.Subscribe(event.ChannelSystem))
		assert.True(t, agent.Subscribe(event.ChannelDashboard))

		admin := NewClient(hub, nil, &ClientAuth{IdentityID: 1, Roles: []string{"admin"}})
		assert.True(t, admin.Subscribe(event.ChannelSystem))
	})

	t.Run("unsubscribe removes the channel", func(t *testing.T) {
		c := NewClient(hub, nil, &ClientAuth{IdentityID: 3})
		c.Subscribe(event.ChannelTrips)
		require.True(t, c.IsSubscribed(event.ChannelTrips))

		c.Unsubscribe(event.ChannelTrips)
		assert.False(t, c.IsSubscribed(event.ChannelTrips))
	})
}

func TestHubAuthenticateClient(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	gen := jwt.NewGenerator(key, "junketops", "junketops-dashboard", "test-key", time.Hour)
	verifier := jwt.NewVerifier(&key.PublicKey, "junketops", "junketops-dashboard")
	hub := NewHub(verifier, zap.NewNop())

	t.Run("valid token", func(t *testing.T) {
		token, _, err := gen.GenerateAgentToken(42, "agent-9", "web")
		require.NoError(t, err)

		auth, err := hub.AuthenticateClient(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), auth.IdentityID)
		assert.Equal(t, "agent-9", auth.AgentID)
		assert.Contains(t, auth.Roles, "agent")
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := hub.AuthenticateClient("not-a-token")
		assert.Error(t, err)
	})
}
