// Package ws streams room state changes (seat joins, leaves, mute and lock
// flips) to websocket subscribers. It carries no audio or video signaling.
package ws

import (
	"encoding/json"
	"sync"

	"voicehub/internal/domain"
	"voicehub/internal/logger"
)

// Hub fans room events out to per-room subscriber sets.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Subscribe attaches a client to a room's event stream.
func (h *Hub) Subscribe(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[roomID]
	if !ok {
		set = make(map[*Client]struct{})
		h.rooms[roomID] = set
	}
	set[c] = struct{}{}
}

// Unsubscribe detaches a client; empty rooms are dropped.
func (h *Hub) Unsubscribe(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.rooms, roomID)
	}
}

// Publish delivers an event to every subscriber of its room. Slow clients
// are skipped rather than blocking the publisher.
func (h *Hub) Publish(ev domain.RoomEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("ws: marshal event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[ev.RoomID] {
		select {
		case c.Send <- payload:
		default:
			logger.Warn("ws: dropping event for slow client", "room", ev.RoomID, "user", c.UserID)
		}
	}
}

// Subscribers reports the current subscriber count for a room.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
