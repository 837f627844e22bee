package handler

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/threadbox/backend/internal/domain"
	"github.com/threadbox/backend/internal/dto"
)

// Client represents a connected WebSocket client
type Client struct {
	Conn     *websocket.Conn
	UserID   uuid.UUID
	Username string
	Send     chan []byte
}

// Hub maintains the set of active clients and delivers notification events
// to them. One connection per user; a new connection replaces the old one.
type Hub struct {
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage carries an event to one recipient.
type BroadcastMessage struct {
	UserID uuid.UUID
	Event  dto.WSEvent
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if existing, ok := h.clients[client.UserID]; ok {
				close(existing.Send)
			}
			h.clients[client.UserID] = client
			h.mu.Unlock()
			log.Printf("[WS] User %s connected", client.Username)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.UserID]; ok && current == client {
				delete(h.clients, client.UserID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("[WS] User %s disconnected", client.Username)

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Event)
			if err != nil {
				log.Printf("[WS] Error marshaling event: %v", err)
				continue
			}

			h.mu.RLock()
			if client, ok := h.clients[msg.UserID]; ok {
				select {
				case client.Send <- data:
				default:
					// Buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Push implements service.NotificationPusher. Delivery is best effort: a
// disconnected recipient simply misses the live event and reads the stored
// notification later.
func (h *Hub) Push(userID uuid.UUID, notification *domain.Notification) {
	h.broadcast <- &BroadcastMessage{
		UserID: userID,
		Event: dto.WSEvent{
			Type:    dto.WSEventNotification,
			Payload: notification,
		},
	}
}

// IsUserOnline checks if a user is currently connected
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

type WebSocketHandler struct {
	Hub *Hub
}

func NewWebSocketHandler() *WebSocketHandler {
	hub := NewHub()
	go hub.Run()

	return &WebSocketHandler{Hub: hub}
}

// HandleWebSocket handles an upgraded connection. The auth middleware has
// already put the user identity in locals before the upgrade.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}
	username, _ := c.Locals("username").(string)

	client := &Client{
		Conn:     c,
		UserID:   userID,
		Username: username,
		Send:     make(chan []byte, 256),
	}

	h.Hub.register <- client

	go h.writePump(client)
	h.readPump(client)
}

// readPump drains the connection; clients only send pings.
func (h *WebSocketHandler) readPump(client *Client) {
	defer func() {
		h.Hub.unregister <- client
		client.Conn.Close()
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Error reading message: %v", err)
			}
			break
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == "ping" {
			pong := dto.WSEvent{Type: "pong"}
			data, _ := json.Marshal(pong)
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// writePump pumps hub events to the connection
func (h *WebSocketHandler) writePump(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
