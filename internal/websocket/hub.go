package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/git-756/discord-switchbot-lock/domain"
	"github.com/git-756/discord-switchbot-lock/domain/repositories"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024

	sendBufferSize = 64
)

// ErrHubStopped is returned when a connection arrives after Run has returned
var ErrHubStopped = errors.New("websocket hub stopped")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Console connections are authenticated by token, not by origin
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of connected console clients and delivers replies
// to them. Each connection is its own chat channel.
type Hub struct {
	// Registered clients, keyed by channel ID.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed once Run returns.
	done chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	handler   repositories.MessageHandler
	validator *MessageValidator

	logger *zap.Logger
}

// Ensure Hub implements the ChatSender interface
var _ domain.ChatSender = (*Hub)(nil)

// NewHub creates a new WebSocket hub that passes chat lines to handler
func NewHub(handler repositories.MessageHandler, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		handler:    handler,
		validator:  NewMessageValidator(),
		logger:     logger,
	}
}

// Run starts the hub's main loop and returns once ctx is done, closing
// every connected client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.channelID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered",
				zap.String("channelID", client.channelID),
				zap.String("clientID", client.clientID))

			// Pumps start only once the client can receive replies
			go client.writePump()
			go client.readPump()

			client.sendJSON(CreateWelcomeMessage(client.channelID, client.name))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.channelID]; ok {
				delete(h.clients, client.channelID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("channelID", client.channelID))

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket hub stopped")
			return
		}
	}
}

// SendReply delivers text to the console connection behind channelID.
// Replies to connections that have gone away are dropped.
func (h *Hub) SendReply(ctx context.Context, channelID, text string) {
	payload, err := json.Marshal(CreateReplyMessage(text))
	if err != nil {
		h.logger.Error("Failed to marshal reply", zap.Error(err))
		return
	}

	// Holding the read lock keeps unregister from closing send underneath us
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[channelID]
	if !ok {
		h.logger.Warn("Reply for unknown channel dropped", zap.String("channelID", channelID))
		return
	}

	select {
	case client.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		h.logger.Warn("Client send buffer full, reply dropped", zap.String("channelID", channelID))
	}
}

// ActiveChannels returns the channel IDs of connected clients
func (h *Hub) ActiveChannels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	channels := make([]string, 0, len(h.clients))
	for id := range h.clients {
		channels = append(channels, id)
	}
	return channels
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// channelID identifies this connection as a chat channel
	channelID string

	// clientID and name come from the console token
	clientID string
	name     string

	logger *zap.Logger
}

// HandleWebSocketWithAuth upgrades an authenticated console request and
// registers the connection with the hub
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, clientID, name string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	channelID := uuid.NewString()
	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, sendBufferSize),
		channelID: channelID,
		clientID:  clientID,
		name:      name,
		logger:    logger.With(zap.String("channelID", channelID)),
	}

	select {
	case hub.register <- client:
		return nil
	case <-hub.done:
		conn.Close()
		return ErrHubStopped
	}
}

// readPump pumps messages from the websocket connection to the hub.
// Messages of one connection are handled in order.
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
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		default:
			c.logger.Warn("Received unsupported message type", zap.Int("type", messageType))
			c.sendJSON(CreateErrorMessage("UNSUPPORTED_FRAME", "only text frames are accepted", ""))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
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

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
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

// processMessage processes one JSON frame from the console
func (c *Client) processMessage(message []byte) {
	parsed, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Invalid message", zap.Error(err))
		c.sendJSON(CreateErrorMessage("INVALID_MESSAGE", "message rejected", err.Error()))
		return
	}

	switch msg := parsed.(type) {
	case *PingMessage:
		c.sendJSON(CreatePongMessage(msg.Data))

	case *ChatMessage:
		handled := c.hub.handler.Handle(context.Background(), domain.ChatMessage{
			ChannelID:  c.channelID,
			AuthorID:   c.clientID,
			AuthorName: c.name,
			Content:    msg.Content,
			Replier:    c.hub,
		})
		c.logger.Debug("Chat message processed", zap.Bool("handled", handled))
	}
}

// sendJSON queues a control frame for this client through the hub so it
// never races with unregister
func (c *Client) sendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()

	if _, ok := c.hub.clients[c.channelID]; !ok {
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Client send buffer full, frame dropped")
	}
}
