// Package realtime pushes favorites events to the websocket clients of an
// identity partition.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
)

// EventVersion is the schema version stamped on every published event.
const EventVersion = 1

// Event types.
const (
	FavoriteAdded   = "favorite_added"
	FavoriteRemoved = "favorite_removed"
)

// Event is the JSON message pushed to subscribers.
type Event struct {
	Type           string `json:"type"`
	UserID         string `json:"userId"`
	PokemonID      int    `json:"pokemonId"`
	TotalFavorites int    `json:"totalFavorites"`
	Version        int    `json:"version"`
}

// Client represents a single websocket client connection.
// The network conn itself is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub maintains active connections per user and broadcasts events to them.
type Hub struct {
	mu              sync.RWMutex
	userIDToClients map[string]map[Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{userIDToClients: make(map[string]map[Client]struct{})}
}

// Register adds a client under a user ID.
func (h *Hub) Register(userID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.userIDToClients[userID]; !ok {
		h.userIDToClients[userID] = make(map[Client]struct{})
	}
	h.userIDToClients[userID][client] = struct{}{}
}

// Unregister removes a client; if the user has no more clients, cleans up map.
func (h *Hub) Unregister(userID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.userIDToClients[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userIDToClients, userID)
		}
	}
}

// Subscribers returns the number of clients registered for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userIDToClients[userID])
}

// Broadcast sends a message to all clients of a user and returns how many
// accepted it. Failed clients are left for their handler to clean up.
func (h *Hub) Broadcast(userID string, message []byte) int {
	h.mu.RLock()
	clients := make([]Client, 0, len(h.userIDToClients[userID]))
	for c := range h.userIDToClients[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range clients {
		if c.Send(message) {
			delivered++
		}
	}
	return delivered
}

// Publish stamps the event version and broadcasts it to ev.UserID.
func (h *Hub) Publish(ev Event) (int, error) {
	ev.Version = EventVersion
	msg, err := json.Marshal(ev)
	if err != nil {
		return 0, errors.Wrap(err, "encoding event")
	}
	return h.Broadcast(ev.UserID, msg), nil
}
