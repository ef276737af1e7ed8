package wsfeed

import (
	"encoding/json"
	"sync"
	"time"

	"citywatch/models"

	"github.com/apex/log"
)

// Message is the envelope pushed to dashboard clients.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans newly created reports out to connected dashboard clients. Slow
// clients are dropped rather than allowed to back up the broadcast channel.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}

	mu               sync.RWMutex
	connectedClients int
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run drives the hub loop. Call in its own goroutine; returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.connectedClients = 0
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mu.Unlock()
			log.Infof("Dashboard client connected, total %d", h.connectedClients)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
			}
			h.mu.Unlock()
			log.Infof("Dashboard client disconnected, total %d", h.connectedClients)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.connectedClients = len(h.clients)
			h.mu.Unlock()
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	close(h.stop)
}

// BroadcastReport pushes a created report to every connected client.
func (h *Hub) BroadcastReport(report *models.Report) {
	data, err := json.Marshal(Message{
		Type:      "report",
		Data:      report,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.Errorf("Failed to marshal feed message: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Warnf("Feed broadcast channel full, dropping report %s", report.ID)
	}
}

// ConnectedClients returns the current client count.
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connectedClients
}
