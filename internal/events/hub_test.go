package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		channels := strings.Split(r.URL.Query().Get("channels"), ",")
		sub := Subscription{Username: "jdoe", Channels: AllowedChannels(channels, "jdoe", false)}
		if err := hub.ServeWS(w, r, sub); err != nil {
			t.Logf("serve ws: %v", err)
		}
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, channels string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?channels=" + channels
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_DeliversOnlySubscribedChannels(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv, "user-notification-jdoe,user-notification-other")
	waitForClients(t, hub, 1)

	ctx := context.Background()
	// Filtered out: another user's channel.
	if err := hub.Publish(ctx, UserNotification{Username: "other", CallInfo: CallInfo{CallSid: "CA0"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := hub.Publish(ctx, UserNotification{Username: "jdoe", CallInfo: CallInfo{CallSid: "CA1", From: "+1555"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Channel != "user-notification-jdoe" {
		t.Fatalf("unexpected channel %q", env.Channel)
	}
	var msg UserNotification
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if msg.CallSid != "CA1" || msg.From != "+1555" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv, "incoming-call")
	waitForClients(t, hub, 1)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	waitForClients(t, hub, 0)
}
