package realtime

import (
	"context"

	"github.com/rs/zerolog"
)

// Hub manages WebSocket clients and routes messages by userID. A delivery
// addressed to user 0 goes to every connected client.
type Hub struct {
	logger zerolog.Logger

	// Registered clients
	clients map[*Client]bool

	// userID -> connections of that user (one per open tab or device)
	users map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery

	// closed when Run returns
	done chan struct{}
}

type delivery struct {
	userID  uint
	payload []byte
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]bool),
		users:      make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

// SendToUser queues payload for every connection of userID. It returns
// without queueing once the hub has stopped.
func (h *Hub) SendToUser(userID uint, payload []byte) {
	h.enqueue(delivery{userID: userID, payload: payload})
}

// SendToAll queues payload for every connected client.
func (h *Hub) SendToAll(payload []byte) {
	h.enqueue(delivery{payload: payload})
}

func (h *Hub) enqueue(msg delivery) {
	select {
	case h.deliver <- msg:
	case <-h.done:
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			if _, ok := h.users[client.userID]; !ok {
				h.users[client.userID] = make(map[*Client]bool)
			}
			h.users[client.userID][client] = true
			h.logger.Debug().Uint("userId", client.userID).Int("total", len(h.clients)).Msg("client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Debug().Uint("userId", client.userID).Int("total", len(h.clients)).Msg("client unregistered")
			}

		case msg := <-h.deliver:
			if msg.userID == 0 {
				for client := range h.clients {
					h.push(client, msg.payload)
				}
				continue
			}
			for client := range h.users[msg.userID] {
				h.push(client, msg.payload)
			}
		}
	}
}

func (h *Hub) push(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		// Client buffer full, remove it
		h.logger.Warn().Uint("userId", client.userID).Msg("client too slow, dropping connection")
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	if conns, ok := h.users[client.userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.users, client.userID)
		}
	}
}
