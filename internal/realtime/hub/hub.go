package hub

import (
	"encoding/json"
	"log"
	"sync"
)

// Client is one connected socket. UserID comes from the authenticated
// session; events are only delivered after the client joins its room.
type Client struct {
	ID     string
	UserID string
	Send   chan []byte
	Joined bool
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

type JoinMessage struct {
	Action string `json:"action"`
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) SetJoined(client *Client, joined bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.Joined = joined
}

// Broadcast delivers a payload to every joined client of one user. Slow
// clients drop the message rather than blocking the poll loop.
func (h *Hub) Broadcast(payload []byte, userID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !client.Joined || client.UserID != userID {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			log.Printf("drop message for client %s", client.ID)
		}
	}
}

// ParseJoin recognizes room membership messages. Anything else is
// ignored by the session loop.
func ParseJoin(data []byte) (JoinMessage, bool) {
	var msg JoinMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return JoinMessage{}, false
	}
	if msg.Action != "join_user_room" && msg.Action != "leave_user_room" {
		return JoinMessage{}, false
	}
	return msg, true
}
