package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Message is the frame sent to every subscriber of an event room.
type Message struct {
	Type    string      `json:"type"`    // submission_created, winners_updated, ...
	Event   string      `json:"event"`   // имя хакатона (комната)
	Payload interface{} `json:"payload"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
	broadcastQueue = 256
)

type roomMessage struct {
	room string
	data []byte
}

// Hub keeps one room of websocket clients per hackathon. The rooms map is
// owned by the Run goroutine; everything else talks to it over channels.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage
	done       chan struct{}
	rooms      map[string]map[*Client]bool
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, broadcastQueue),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
			}
			h.rooms = make(map[string]map[*Client]bool)
			return

		case client := <-h.register:
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.logger.Debug("Feed client registered", slog.String("event", client.room), slog.Int("clients", len(h.rooms[client.room])))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			for client := range h.rooms[msg.room] {
				select {
				case client.send <- msg.data:
				default:
					// Клиент не успевает читать, отключаем.
					h.logger.Warn("Feed client too slow, dropping", slog.String("event", msg.room))
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
}

// Notify broadcasts a message to the event's room. The payload is encoded
// immediately, so callers may keep mutating it afterwards. When the queue
// is full the message is dropped.
func (h *Hub) Notify(event, messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("Failed to encode feed message", slog.String("type", messageType), slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- roomMessage{room: event, data: data}:
	default:
		h.logger.Warn("Feed broadcast queue full, message dropped", slog.String("event", event), slog.String("type", messageType))
	}
}

// Subscribe attaches conn to the event's room and starts its pumps. It
// returns immediately; the pumps end when the connection closes.
func (h *Hub) Subscribe(ctx context.Context, conn *websocket.Conn, event string) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), room: event}
	select {
	case h.register <- client:
	case <-ctx.Done():
		conn.Close()
		return
	case <-h.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

// Client is one websocket subscriber.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string
}

// readPump discards inbound frames; it exists to process control frames and
// notice disconnects.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Feed client closed unexpectedly", slog.String("event", c.room), slog.Any("error", err))
			}
			return
		}
	}
}

// writePump sends one JSON message per websocket frame and pings idle
// connections.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
