package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safepath/internal/auth"
	"safepath/pkg/models"
)

func newServer(t *testing.T, hub *Hub, tokens auth.TokenService) string {
	return newServerWithOrigins(t, hub, tokens, []string{"http://app.test"})
}

func newServerWithOrigins(t *testing.T, hub *Hub, tokens auth.TokenService, origins []string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(hub, tokens, origins, nil).RegisterRoutes(r.Group("/api/events"))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events/ws"
}

func dial(t *testing.T, url, token string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "welcome")
	return ws
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Stats().WSClients == n }, time.Second, 10*time.Millisecond)
}

func TestPublishReachesOwningNGOOnly(t *testing.T) {
	tokens := auth.TokenService{Secret: []byte("s"), Duration: time.Hour}
	hub := NewHub()
	url := newServer(t, hub, tokens)

	tokA, _, err := tokens.Sign(models.NGOIdentity{ID: "ngo-a"})
	require.NoError(t, err)
	tokB, _, err := tokens.Sign(models.NGOIdentity{ID: "ngo-b"})
	require.NoError(t, err)

	a := dial(t, url, tokA)
	b := dial(t, url, tokB)
	waitClients(t, hub, 2)

	hub.Publish(Event{Type: StoryPublished, NGOID: "ngo-a", StoryID: "s1"})

	_, msg, err := a.ReadMessage()
	require.NoError(t, err)
	var got Event
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, StoryPublished, got.Type)
	assert.Equal(t, "s1", got.StoryID)
	assert.False(t, got.At.IsZero())

	_ = b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = b.ReadMessage()
	assert.Error(t, err)

	_ = a.Close()
	waitClients(t, hub, 1)
}

func TestUpgradeRejections(t *testing.T) {
	tokens := auth.TokenService{Secret: []byte("s"), Duration: time.Hour}
	url := newServer(t, NewHub(), tokens)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, _, err := tokens.Sign(models.NGOIdentity{ID: "ngo-a"})
	require.NoError(t, err)
	hdr := http.Header{"Origin": {"http://evil.test"}}
	_, resp, err = websocket.DefaultDialer.Dial(url+"?token="+tok, hdr)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestNilHubIsSafe(t *testing.T) {
	var hub *Hub
	hub.Publish(Event{Type: StoryCreated})
	assert.Equal(t, Stats{}, hub.Stats())
}

func TestEmptyAllowListAdmitsOnlyOriginless(t *testing.T) {
	tokens := auth.TokenService{Secret: []byte("s"), Duration: time.Hour}
	hub := NewHub()
	url := newServerWithOrigins(t, hub, tokens, nil)

	tok, _, err := tokens.Sign(models.NGOIdentity{ID: "ngo-a"})
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token="+tok, http.Header{"Origin": {"http://app.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	dial(t, url, tok)
	waitClients(t, hub, 1)
}

func TestPublishDropsStalledClientWithoutBlocking(t *testing.T) {
	tokens := auth.TokenService{Secret: []byte("s"), Duration: time.Hour}
	tok, _, err := tokens.Sign(models.NGOIdentity{ID: "ngo-a"})
	require.NoError(t, err)
	ws := dial(t, newServer(t, NewHub(), tokens), tok)

	// a client with no writer and no queue space stands in for a stuck socket
	hub := NewHub()
	hub.clients[ws] = &client{ws: ws, ngoID: "ngo-a", send: make(chan []byte)}

	done := make(chan struct{})
	go func() {
		hub.Publish(Event{Type: StoryCreated, NGOID: "ngo-a", StoryID: "s1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(writeWait / 2):
		t.Fatal("Publish blocked on a stalled client")
	}
	assert.Equal(t, 0, hub.Stats().WSClients)

	// removing an already dropped client is a no-op
	hub.Remove(ws)
}
