// Package broadcast pushes active-queue snapshots to waiting-room displays
// over WebSockets. It is a hub-and-spoke fan-out: the queue engine hands the
// hub a snapshot after every mutation, and every connected display converges
// without polling. Slow clients are dropped rather than ever blocking the
// engine.
package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/MediTrack-HMS/visit-queue-service/internal/queue"
)

// Event is a message sent to display clients.
type Event struct {
	Type       string         `json:"type"`
	Department string         `json:"department,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Tickets    []queue.Ticket `json:"tickets"`
}

// EventQueueSnapshot is the only event type displays receive today.
const EventQueueSnapshot = "queue.snapshot"

// clientMessage is an inbound message from a display client.
type clientMessage struct {
	Action      string   `json:"action"`
	Departments []string `json:"departments"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Client is a single connected display.
type Client struct {
	ID          string
	Departments []string // empty means "all departments"
	Send        chan []byte
	hub         *Hub
	conn        *websocket.Conn
}

// Hub tracks connected displays and their department filters. All operations
// are safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Send)
}

// SetDepartments replaces a client's department filter.
func (h *Hub) SetDepartments(c *Client, departments []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Departments = departments
}

// ClientCount returns the number of connected displays.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// QueueChanged implements the queue engine's Notifier contract: each client
// receives the snapshot filtered to its departments. Clients whose send
// buffer is full are skipped; they will catch up on the next snapshot or
// fall back to polling.
func (h *Hub) QueueChanged(ctx context.Context, tickets []queue.Ticket) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now().UTC()
	for c := range h.clients {
		event := Event{
			Type:      EventQueueSnapshot,
			Timestamp: now,
			Tickets:   filterTickets(tickets, c.Departments),
		}
		if len(c.Departments) == 1 {
			event.Department = c.Departments[0]
		}

		payload, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal queue snapshot")
			return
		}

		select {
		case c.Send <- payload:
		default:
			log.Warn().Str("client_id", c.ID).Msg("display client too slow, dropping snapshot")
		}
	}
}

func filterTickets(tickets []queue.Ticket, departments []string) []queue.Ticket {
	if len(departments) == 0 {
		if tickets == nil {
			return []queue.Ticket{}
		}
		return tickets
	}

	allowed := make(map[string]struct{}, len(departments))
	for _, d := range departments {
		allowed[d] = struct{}{}
	}

	filtered := make([]queue.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if _, ok := allowed[t.Department]; ok {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Displays hang on hallway machines and kiosks; origin policy is handled
	// by the CORS layer for the REST API and is not meaningful here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades GET /ws/queue connections. The optional ?department=
// query parameter pre-filters the feed; clients can also send
// {"action":"subscribe","departments":[...]} later.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		ID:   uuid.NewString(),
		Send: make(chan []byte, sendBufferSize),
		hub:  h,
		conn: conn,
	}
	if dept := r.URL.Query().Get("department"); dept != "" {
		client.Departments = []string{dept}
	}

	h.Register(client)
	log.Info().Str("client_id", client.ID).Strs("departments", client.Departments).Msg("display client connected")

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		log.Info().Str("client_id", c.ID).Msg("display client disconnected")
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Action == "subscribe" {
			c.hub.SetDepartments(c, msg.Departments)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Ensure the hub satisfies the engine's notifier port.
var _ queue.Notifier = (*Hub)(nil)
