// Package dashboard implements the observability HTTP+WS surface
// (SPEC_FULL.md §5): a chi.Router exposing store/governor status and a
// gorilla/websocket hub pushing BFS/retrograde Progress events, the
// same client/hub/heartbeat shape as the teacher's hub.go,
// analitics_ws.go and ws_heartbeat.go generalized from one game's
// board state to one solve's progress events.
package dashboard

import (
	"encoding/json"
	"sync"
	"time"
)

const wsIdlePingInterval = 30 * time.Second

// wsMessage is the envelope every push uses, mirroring the teacher's
// {type, payload} shape.
type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub fans progress events out to every connected dashboard client.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	events  chan wsMessage
}

// Client is one websocket connection registered with a Hub.
type Client struct {
	hub  *Hub
	send chan []byte
}

// NewHub returns an empty Hub. Call Run in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		events:  make(chan wsMessage, 64),
	}
}

// Run fans out events until done is closed.
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-h.events:
			h.mu.Lock()
			for client := range h.clients {
				client.sendJSON(msg)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) publish(kind string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case h.events <- wsMessage{Type: kind, Payload: data}:
	default:
	}
}

// PublishBFSProgress pushes one BFS depth-completion event.
func (h *Hub) PublishBFSProgress(p bfsProgressDTO) {
	h.publish("bfs_progress", p)
}

// PublishRetrogradeProgress pushes one retrograde fixpoint-pass event.
func (h *Hub) PublishRetrogradeProgress(p retrogradeProgressDTO) {
	h.publish("retrograde_progress", p)
}

// PublishGovernorLevel pushes a memory-pressure level change.
func (h *Hub) PublishGovernorLevel(level string) {
	h.publish("governor_level", governorLevelDTO{Level: level})
}

// Register adds a client to the fan-out set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// HasClients reports whether any dashboard client is connected.
func (h *Hub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (c *Client) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
