package feedclient

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"trading-simulator/src/logger"
	"trading-simulator/src/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testLogger() *logger.Logger {
	return logger.NewLogger(nil, "test")
}

// -----------------------------------------------------------------------------

func TestReconnectsAfterEveryClosure(t *testing.T) {
	var connects atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connects.Add(1)
		// Drop the transport straight away to force a reconnect.
		conn.Close()
	}))
	defer srv.Close()

	delay := 30 * time.Millisecond
	client := NewClient(wsURL(srv), RetryPolicy{Delay: delay}, testLogger())
	start := time.Now()
	go client.Run()

	// 1 initial connect + 3 reconnects, one per closure.
	require.Eventually(t, func() bool {
		return connects.Load() >= 4
	}, 5*time.Second, 5*time.Millisecond)

	// Each of the 3 reconnects was preceded by the configured delay.
	assert.GreaterOrEqual(t, time.Since(start), 3*delay)

	client.Close()
	settled := connects.Load()
	time.Sleep(5 * delay)
	assert.Equal(t, settled, connects.Load(), "no reconnect may fire after explicit close")
	assert.Equal(t, StateDisconnected, client.State())
}

// -----------------------------------------------------------------------------

func TestLatestTickOverwrites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteJSON(models.MTick{Symbol: "AAPL", Price: 100.1, Timestamp: 1})
		conn.WriteJSON(models.MTick{Symbol: "AAPL", Price: 100.7, Timestamp: 2})

		// Keep the connection open until the client leaves.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	client := NewClient(wsURL(srv), RetryPolicy{Delay: 20 * time.Millisecond}, testLogger())
	go client.Run()
	defer client.Close()

	require.Eventually(t, func() bool {
		tick, ok := client.Latest()
		return ok && tick.Timestamp == 2
	}, 5*time.Second, 5*time.Millisecond)

	tick, ok := client.Latest()
	require.True(t, ok)
	assert.Equal(t, 100.7, tick.Price)
}

// -----------------------------------------------------------------------------

func TestSendWhileDisconnectedIsNoop(t *testing.T) {
	client := NewClient("ws://127.0.0.1:1/ws", RetryPolicy{Delay: 10 * time.Millisecond}, testLogger())

	// Never connected, never run: must not panic or error.
	client.Send(models.MControlMessage{Type: "change_symbol", Symbol: "TSLA"})
	assert.Equal(t, StateDisconnected, client.State())
	client.Close()
}

// -----------------------------------------------------------------------------

func TestSendReachesServerWhenConnected(t *testing.T) {
	received := make(chan models.MControlMessage, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var msg models.MControlMessage
		if err := conn.ReadJSON(&msg); err == nil {
			received <- msg
		}
	}))
	defer srv.Close()

	client := NewClient(wsURL(srv), RetryPolicy{Delay: 20 * time.Millisecond}, testLogger())
	go client.Run()
	defer client.Close()

	require.Eventually(t, func() bool {
		return client.State() == StateConnected
	}, 5*time.Second, 5*time.Millisecond)

	client.Send(models.MControlMessage{Type: "change_symbol", Symbol: "TSLA"})

	select {
	case msg := <-received:
		assert.Equal(t, "change_symbol", msg.Type)
		assert.Equal(t, "TSLA", msg.Symbol)
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the control message")
	}
}

// -----------------------------------------------------------------------------

func TestRetryCapStopsAttempts(t *testing.T) {
	// A port with nothing listening: every dial fails.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	client := NewClient("ws://"+addr+"/ws", RetryPolicy{Delay: 10 * time.Millisecond, MaxAttempts: 3}, testLogger())

	done := make(chan struct{})
	go func() {
		client.Run()
		close(done)
	}()

	select {
	case <-done:
		// Run exhausted its attempts and returned.
	case <-time.After(5 * time.Second):
		t.Fatal("client kept retrying past its cap")
	}
	assert.Equal(t, StateDisconnected, client.State())
}

// -----------------------------------------------------------------------------

func TestCloseInterruptsDelayWait(t *testing.T) {
	var connects atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connects.Add(1)
		conn.Close()
	}))
	defer srv.Close()

	// Long delay so Close lands inside the wait.
	client := NewClient(wsURL(srv), RetryPolicy{Delay: 10 * time.Second}, testLogger())
	go client.Run()

	require.Eventually(t, func() bool {
		return connects.Load() >= 1
	}, 5*time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		client.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("close did not interrupt the reconnect delay")
	}
}
