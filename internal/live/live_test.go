package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldtrack/internal/models"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHubBroadcastsToWatchers(t *testing.T) {
	hub := NewHub()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(42, conn)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server handler a beat to register the connection.
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.watchers) == 1
	}, time.Second, 10*time.Millisecond)

	hub.PublishLocation(7, models.LocationSample{
		UserID:    7,
		Latitude:  -1.28,
		Longitude: 36.81,
		Activity:  models.ActivityDriving,
		Timestamp: time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env struct {
		Type string         `json:"type"`
		Data LocationUpdate `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, TypeLocationUpdate, env.Type)
	assert.Equal(t, uint(7), env.Data.UserID)
	assert.Equal(t, -1.28, env.Data.Latitude)
	assert.Equal(t, models.ActivityDriving, env.Data.Activity)
}

func TestHubGeofenceAlertEnvelope(t *testing.T) {
	hub := NewHub()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(1, conn)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.watchers) == 1
	}, time.Second, 10*time.Millisecond)

	hub.PublishGeofenceAlert(7, 3, "Warehouse District", models.EventEnter)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env struct {
		Type string        `json:"type"`
		Data GeofenceAlert `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, TypeGeofenceAlert, env.Type)
	assert.Equal(t, uint(3), env.Data.ZoneID)
	assert.Equal(t, "Warehouse District", env.Data.ZoneName)
	assert.Equal(t, models.EventEnter, env.Data.EventType)
}

func TestHubUnregisterRemovesEmptyWatcher(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		testUpgrader.Upgrade(w, r, nil)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	hub.Register(5, conn)
	hub.Unregister(5, conn)

	hub.mu.Lock()
	defer hub.mu.Unlock()
	assert.Empty(t, hub.watchers)
}

func TestHubSurvivesStalledWatcher(t *testing.T) {
	hub := NewHub()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		if r.URL.Query().Get("watcher") == "2" {
			hub.Register(2, conn)
		} else {
			hub.Register(1, conn)
		}
	}))
	defer srv.Close()

	// Watcher 1 never reads; its queue must absorb or drop the burst
	// without a concurrent write bringing the hub down.
	stalled, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer stalled.Close()

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.watchers) == 1
	}, time.Second, 10*time.Millisecond)

	big := strings.Repeat("sensor degraded; ", 512)
	for i := 0; i < 50; i++ {
		hub.PublishTrackingError(7, big)
	}

	// A healthy watcher registered afterwards still gets broadcasts.
	healthy, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?watcher=2", nil)
	require.NoError(t, err)
	defer healthy.Close()

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.watchers) == 2
	}, time.Second, 10*time.Millisecond)

	hub.PublishLocation(7, models.LocationSample{UserID: 7, Latitude: -1.28, Longitude: 36.81})

	healthy.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var env Envelope
		require.NoError(t, healthy.ReadJSON(&env))
		if env.Type == TypeLocationUpdate {
			return
		}
	}
}

func TestClientRegistersAndStreams(t *testing.T) {
	received := make(chan Envelope, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			received <- env
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(wsURL(srv), 7)
	done := make(chan struct{})
	go func() {
		client.Run(ctx)
		close(done)
	}()

	select {
	case env := <-received:
		assert.Equal(t, TypeRegister, env.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no register envelope received")
	}

	client.PublishLocation(7, models.LocationSample{UserID: 7, Latitude: -1.28, Longitude: 36.81})

	select {
	case env := <-received:
		assert.Equal(t, TypeLocationUpdate, env.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no location envelope received")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop on context cancellation")
	}
}

func TestClientReconnectsAfterDialFailure(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(wsURL(srv), 7)
	client.reconnectWait = 10 * time.Millisecond
	go client.Run(ctx)

	assert.Eventually(t, func() bool {
		return attempts.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond, "client should redial after a failed attempt")
}
