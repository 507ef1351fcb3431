// Package observer streams allocation reports to websocket clients.
package observer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nstehr/vimy/vimy-defense/defense"
)

const (
	clientBuffer = 32
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
)

// Frame is one message on the observer stream. Allocation frames carry the
// per-territory decisions; event frames carry one territory event.
type Frame struct {
	Type      string             `json:"type"`
	Tick      int                `json:"tick"`
	Decisions []defense.Decision `json:"decisions,omitempty"`
	Event     string             `json:"event,omitempty"`
	Territory string             `json:"territory,omitempty"`
	Detail    string             `json:"detail,omitempty"`
}

// Hub fans frames out to every connected client. A client whose buffer is
// full misses frames rather than stalling the tick.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[uint64]chan []byte
	latest  []byte
	nextID  atomic.Uint64
	dropped atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return isLoopbackRemote(r.RemoteAddr) },
		},
		clients: make(map[uint64]chan []byte),
	}
}

// Publish sends a report as an allocation frame. The last one is replayed to
// clients that connect later.
func (h *Hub) Publish(r defense.Report) {
	b, err := json.Marshal(Frame{Type: "allocation", Tick: r.Tick, Decisions: r.Decisions})
	if err != nil {
		slog.Error("observer: marshal report", "error", err)
		return
	}
	h.mu.Lock()
	h.latest = b
	h.mu.Unlock()
	h.broadcast(b)
}

func (h *Hub) Announce(tick int, event, territory, detail string) {
	b, err := json.Marshal(Frame{Type: "event", Tick: tick, Event: event, Territory: territory, Detail: detail})
	if err != nil {
		slog.Error("observer: marshal event", "error", err)
		return
	}
	h.broadcast(b)
}

func (h *Hub) broadcast(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, out := range h.clients {
		select {
		case out <- b:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

func (h *Hub) register() (uint64, chan []byte) {
	id := h.nextID.Add(1)
	out := make(chan []byte, clientBuffer)
	h.mu.Lock()
	if h.latest != nil {
		out <- h.latest
	}
	h.clients[id] = out
	h.mu.Unlock()
	return id, out
}

func (h *Hub) unregister(id uint64) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

// Handler upgrades loopback requests and streams frames until the client goes away.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out := h.register()
		defer h.unregister(id)
		slog.Debug("observer: client connected", "id", id, "remote", r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Clients never send anything useful; reading only notices the close.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		slog.Debug("observer: client gone", "id", id)
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
