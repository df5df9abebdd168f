package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/viznest/viznest-backend/internal/app/service"
	"github.com/viznest/viznest-backend/pkg/logger"
)

// Client is one live websocket session of a signed-in user
type Client struct {
	hub    *Hub
	conn   *Conn
	UserID uint
	send   chan []byte
}

// userMessage is a payload addressed to every session of one user
type userMessage struct {
	userID uint
	data   []byte
}

// Hub tracks live sessions per user and fans order events out to them.
// A user may hold several sessions (tabs, devices).
type Hub struct {
	clients    map[uint]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	direct     chan userMessage

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		direct:     make(chan userMessage, 1024),
	}
}

// Run serves registrations and deliveries until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			sessions, ok := h.clients[client.UserID]
			if !ok {
				sessions = make(map[*Client]bool)
				h.clients[client.UserID] = sessions
			}
			sessions[client] = true
			count := len(sessions)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": count,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.direct:
			h.deliver(msg)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.clients[client.UserID]
	if !ok || !sessions[client] {
		return
	}
	delete(sessions, client)
	if len(sessions) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(sessions),
	})
}

func (h *Hub) deliver(msg userMessage) {
	h.mu.RLock()
	var slow []*Client
	for client := range h.clients[msg.userID] {
		select {
		case client.send <- msg.data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	// a full send buffer means the peer stopped reading
	for _, client := range slow {
		logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
			"user_id": client.UserID,
		})
		h.remove(client)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, sessions := range h.clients {
		for client := range sessions {
			close(client.send)
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToUser queues a JSON message for every session of the user. Messages
// are dropped when the hub is saturated.
func (h *Hub) SendToUser(userID uint, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	select {
	case h.direct <- userMessage{userID: userID, data: data}:
	default:
		logger.Warn("Hub queue full, message dropped", map[string]interface{}{
			"user_id": userID,
		})
	}
	return nil
}

// PublishOrderEvent implements service.OrderNotifier
func (h *Hub) PublishOrderEvent(userID uint, event service.OrderEvent) {
	if !h.IsUserOnline(userID) {
		return
	}
	_ = h.SendToUser(userID, event)
}

func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// SessionCount is the number of live sessions of a user
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
