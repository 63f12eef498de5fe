package notifications

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Event — сообщение, рассылаемое подписчикам сервера при смене статуса заявки.
type Event struct {
	Type     string      `json:"type"`
	ServerID int         `json:"server_id"`
	Payload  interface{} `json:"payload"`
}

// Client — одно websocket-подключение, подписанное на события одного сервера.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	serverID int

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, serverID int) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 16),
		serverID: serverID,
	}
}

// Hub держит подписчиков, сгруппированных по серверу. Комнаты создаются
// при первом подписчике и удаляются, когда пустеют.
type Hub struct {
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	rooms  map[int]map[*Client]bool
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[int]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Register(c *Client)   { h.register <- c }
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.serverID]; !ok {
				h.rooms[client.serverID] = make(map[*Client]bool)
			}
			h.rooms[client.serverID][client] = true
			h.logger.Debug("websocket client registered",
				slog.Int("server_id", client.serverID),
				slog.Int("room_size", len(h.rooms[client.serverID])))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.serverID]; ok {
				if _, okClient := room[client]; okClient {
					client.markClosed()
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, client.serverID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// PublishServerEvent отправляет событие всем подписчикам сервера.
// Реализует services.EventPublisher.
func (h *Hub) PublishServerEvent(serverID int, eventType string, payload interface{}) {
	data, err := json.Marshal(Event{Type: eventType, ServerID: serverID, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal websocket event",
			slog.String("type", eventType), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[serverID] {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- data:
		default:
			// Медленный клиент: пропускаем, его добьёт ping/pong.
		}
		client.mu.Unlock()
	}
}

func (c *Client) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// ReadPump читает подключение до разрыва. Входящие сообщения игнорируются,
// канал односторонний.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error",
					slog.Int("server_id", c.serverID), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
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
