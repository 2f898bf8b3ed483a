package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"surveillance/internal/auth"
	"surveillance/internal/events"
	"surveillance/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startServer(t *testing.T) (*Hub, *auth.TokenManager, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenManager([]byte("ws-secret"), time.Hour)
	hub := NewHub(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, tokens) })
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, tokens, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func token(t *testing.T, tokens *auth.TokenManager, role string) string {
	t.Helper()
	s, _, err := tokens.IssueAccess(auth.Identity{UserID: uuid.New(), Username: "u", Roles: []string{role}})
	require.NoError(t, err)
	return s
}

func TestServeWsRejects(t *testing.T) {
	_, tokens, url := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token="+token(t, tokens, model.RoleASHA), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub, tokens, url := startServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token(t, tokens, model.RoleDistrictAdmin), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	alertID := uuid.New()
	hub.HandleEvent(context.Background(), events.New(events.AlertCreated, alertID, nil, map[string]string{"title": "High Severity Case Reported in Renigunta"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got events.Event
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, events.AlertCreated, got.Type)
	assert.Equal(t, alertID, got.EntityID)
}

func TestHubDistrictFilter(t *testing.T) {
	hub, tokens, url := startServer(t)
	tirupati := uuid.New()
	nellore := uuid.New()

	conn, _, err := websocket.DefaultDialer.Dial(url+"?district_id="+tirupati.String()+"&token="+token(t, tokens, model.RoleDoctor), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.HandleEvent(context.Background(), events.New(events.AlertCreated, uuid.New(), &nellore, nil))
	wanted := uuid.New()
	hub.HandleEvent(context.Background(), events.New(events.AlertCreated, wanted, &tirupati, nil))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got events.Event
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, wanted, got.EntityID)
}

func TestHubShutdownReleasesClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenManager([]byte("ws-secret"), time.Hour)
	hub := NewHub(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	r := gin.New()
	served := make(chan struct{}, 4)
	r.GET("/ws", func(c *gin.Context) {
		ServeWs(hub, c, tokens)
		served <- struct{}{}
	})
	srv := httptest.NewServer(r)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token(t, tokens, model.RoleDoctor)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	<-served

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)

	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer late.Close()
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("connection after shutdown was never released")
	}
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Zero(t, hub.ClientCount())
}
