package ws

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Message is pushed to a signed-in visitor's open tabs.
type Message struct {
	Type      string          `json:"type"` // "saved_search_match", "tour_update"
	Title     string          `json:"title,omitempty"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type userNotification struct {
	userID  string
	payload []byte
}

// Hub fans messages out to every connection a user has open.
type Hub struct {
	register   chan *client
	unregister chan *client
	notify     chan userNotification
	clients    map[string]map[*client]struct{}
	done       chan struct{}
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		notify:     make(chan userNotification, 256),
		clients:    make(map[string]map[*client]struct{}),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run owns the client registry until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = map[string]map[*client]struct{}{}
			return
		case c := <-h.register:
			set, ok := h.clients[c.userID]
			if !ok {
				set = map[*client]struct{}{}
				h.clients[c.userID] = set
			}
			set[c] = struct{}{}
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.notify:
			for c := range h.clients[msg.userID] {
				select {
				case c.send <- msg.payload:
				default:
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) attach(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// Notify queues msg for userID. It never blocks; when the queue is full the message is dropped.
func (h *Hub) Notify(userID string, msg Message) {
	if h == nil {
		return
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Warn("ws: failed to marshal message", zap.Error(err))
		return
	}
	select {
	case h.notify <- userNotification{userID: userID, payload: data}:
	default:
		h.log.Warn("ws: notify queue full, dropping message", zap.String("user_id", userID))
	}
}
