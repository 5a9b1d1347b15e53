package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message notifies a user's open sessions that an entity changed.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub tracks connected clients per user and fans messages out to the
// clients of a single user.
type Hub struct {
	mu     sync.RWMutex
	users  map[int64]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		users:  make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.users[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.users[c.userID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes a client and closes its send channel. It is safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.users, c.userID)
	}
}

// Broadcast sends msg to every client of userID. Slow clients with a full
// buffer miss the message.
func (h *Hub) Broadcast(userID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.users[userID] {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("dropping message for slow client", "user_id", userID, "type", msg.Type)
		}
	}
}

// ClientCount returns the number of connected clients across all users.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.users {
		n += len(set)
	}
	return n
}

// UserClientCount returns the number of connected clients of userID.
func (h *Hub) UserClientCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
