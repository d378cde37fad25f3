package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub keeps the connected websocket clients and fans envelopes out to the
// clients subscribed to their channel. It also implements Bus, for
// single-process deployments without Redis.
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan Envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex
	logger *slog.Logger

	upgrader websocket.Upgrader
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser agents connect from the console origin; auth is by token.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run is the hub's main loop. It returns when ctx is done, closing every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", "client_id", c.id, "username", c.username, "total_clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Info("client disconnected", "client_id", c.id, "total_clients", len(h.clients))
			}
			h.mu.Unlock()

		case env := <-h.broadcast:
			h.fanOut(env)
		}
	}
}

// Publish implements Bus.
func (h *Hub) Publish(ctx context.Context, m Message) error {
	env, err := Encode(m)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return errors.New("events: hub stopped")
	}
}

// Deliver queues an already-encoded envelope, dropping it when the hub is
// saturated.
func (h *Hub) Deliver(env Envelope) {
	select {
	case h.broadcast <- env:
	default:
		h.logger.Warn("hub broadcast buffer full, dropping message", "channel", env.Channel)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) fanOut(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("failed to marshal envelope", "channel", env.Channel, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.subscribed(env.Channel) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Slow consumer.
			delete(h.clients, c)
			close(c.send)
			h.logger.Warn("client send buffer full, closing connection", "client_id", c.id)
		}
	}
}

// Subscription describes what a connecting client may receive.
type Subscription struct {
	Username   string
	Privileged bool
	Channels   []string
}

// ServeWS upgrades the request and attaches a client for sub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sub Subscription) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := newClient(h, conn, sub)
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return errors.New("events: hub stopped")
	}
	c.start()
	return nil
}

// AllowedChannels filters requested channels down to what the user may read:
// per-user channels only for the user's own username unless privileged.
func AllowedChannels(requested []string, username string, privileged bool) []string {
	seen := map[string]bool{}
	var out []string
	for _, ch := range requested {
		ch = strings.TrimSpace(ch)
		if ch == "" || seen[ch] {
			continue
		}
		if !privileged && isUserChannel(ch) &&
			ch != UserNotificationChannel(username) && ch != UserCallStatusChannel(username) {
			continue
		}
		seen[ch] = true
		out = append(out, ch)
	}
	return out
}

func isUserChannel(ch string) bool {
	return strings.HasPrefix(ch, userNotificationPrefix) || strings.HasPrefix(ch, userCallStatusPrefix)
}
