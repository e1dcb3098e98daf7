package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Client is one websocket connection scoped to a team
type Client struct {
	Conn   *websocket.Conn
	TeamID uuid.UUID
}

// Message is delivered to every client of TeamID
type Message struct {
	TeamID  uuid.UUID
	Payload []byte
}

type Hub struct {
	Clients    map[*websocket.Conn]uuid.UUID
	Register   chan *Client
	Unregister chan *websocket.Conn
	Broadcast  chan Message
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]uuid.UUID),
		Register:   make(chan *Client),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan Message, 64),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.Clients[client.Conn] = client.TeamID
			h.mutex.Unlock()
			log.Println("New WS Client Connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn, teamID := range h.Clients {
				if teamID != message.TeamID {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, message.Payload); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish marshals payload and queues it for the team without blocking the caller
func (h *Hub) Publish(teamID uuid.UUID, payload interface{}) {
	if h == nil {
		return
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: failed to encode payload: %v", err)
		return
	}
	go func() {
		h.Broadcast <- Message{TeamID: teamID, Payload: msg}
	}()
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}
