package ws

import (
	"context"
	"sync"

	"invest_platform/internal/domain"
	"invest_platform/internal/logger"
)

// Hub tracks connected clients per user and pushes status events to them.
// Admin connections also receive every event.
type Hub struct {
	mu     sync.RWMutex
	users  map[int64]map[*Client]struct{}
	admins map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		users:  make(map[int64]map[*Client]struct{}),
		admins: make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.users[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.users[c.UserID] = set
	}
	set[c] = struct{}{}
	if c.IsAdmin {
		h.admins[c] = struct{}{}
	}
	logger.Debug("ws client registered", "user_id", c.UserID, "admin", c.IsAdmin, "connections", len(set))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.users[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.UserID)
		}
	}
	delete(h.admins, c)
	logger.Debug("ws client unregistered", "user_id", c.UserID)
}

// Online reports how many distinct users are connected.
func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}

// Notify pushes ev to the owner's connections and to connected admins.
func (h *Hub) Notify(ctx context.Context, ev domain.StatusEvent) {
	msg, err := encode(MsgRecordStatus, RecordStatusPayload{ev})
	if err != nil {
		logger.Error("ws encode status event failed", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.users[ev.UserID])+len(h.admins))
	for c := range h.users[ev.UserID] {
		targets = append(targets, c)
	}
	for c := range h.admins {
		if c.UserID != ev.UserID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(msg)
	}
}
