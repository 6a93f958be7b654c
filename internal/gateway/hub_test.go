package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// Coalesced frames separate envelopes with newlines; buffer the remainder of
// each frame so successive reads see every envelope.
var pendingEnvelopes = make(map[*websocket.Conn][]string)

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	if len(pendingEnvelopes[conn]) == 0 {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		pendingEnvelopes[conn] = strings.Split(string(msg), "\n")
	}
	first := pendingEnvelopes[conn][0]
	pendingEnvelopes[conn] = pendingEnvelopes[conn][1:]
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(first), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", first, err)
	}
	return m
}

func TestHubSendsWelcomeOnConnect(t *testing.T) {
	h := NewHub(8)
	conn := dialTestHub(t, h)

	m := readEnvelope(t, conn)
	if m["type"] != "welcome" {
		t.Fatalf("want welcome envelope, got %v", m["type"])
	}
	if m["source"] != "TradingSystem" {
		t.Fatalf("want TradingSystem source, got %v", m["source"])
	}
}

func TestHubBroadcastReachesClient(t *testing.T) {
	h := NewHub(8)
	conn := dialTestHub(t, h)
	readEnvelope(t, conn) // welcome

	h.Broadcast([]byte(`{"type":"notification","message":"hi","source":"TradingSystem"}`))
	m := readEnvelope(t, conn)
	if m["message"] != "hi" {
		t.Fatalf("want broadcast message, got %v", m)
	}
}

func TestHubReplaysBacklogToNewClient(t *testing.T) {
	h := NewHub(8)
	h.Broadcast([]byte(`{"type":"notification","message":"earlier","source":"TradingSystem"}`))

	conn := dialTestHub(t, h)
	readEnvelope(t, conn) // welcome
	m := readEnvelope(t, conn)
	if m["message"] != "earlier" {
		t.Fatalf("want backlog replay, got %v", m)
	}
}

func TestHubClientCountTracksDisconnect(t *testing.T) {
	h := NewHub(0)
	conn := dialTestHub(t, h)

	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()
	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
