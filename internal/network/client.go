// Package network - client.go
// One Client per WebSocket connection, bound to a player at upgrade
// time. The read pump routes actions into the engine; the write pump
// drains the hub's pushes.
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avelia-studio/lunatap-server/internal/engine"
	"github.com/avelia-studio/lunatap-server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
	// Engine calls triggered by a socket frame get this long.
	actionTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// PlayerAction represents an incoming command from the client.
// The player identity comes from the connection, never from the frame.
type PlayerAction struct {
	Type    string          `json:"type"` // "TAP", "STATS"
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client holds one WebSocket connection and its tap-rate window.
// Frames reach the socket through trySend only; once close marks the
// client dead, late frames are dropped instead of hitting a closed
// channel.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	playerID string
	send     chan []byte

	mu     sync.Mutex
	closed bool

	windowStart time.Time
	windowTaps  int
}

// NewClient creates a new WebSocket client bound to a player.
func NewClient(hub *Hub, conn *websocket.Conn, playerID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		playerID: playerID,
		send:     make(chan []byte, hub.tuning.ClientSendBuffer),
	}
}

// ServeWS upgrades an HTTP request to a WebSocket session.
// GET /ws?player_id=XXX
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		http.Error(w, "missing player_id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade failed: " + err.Error())
		metrics.Get().RecordWSError()
		return
	}

	client := NewClient(hub, conn, playerID)
	hub.register <- client

	go client.WritePump()
	go client.ReadPump()

	// Greet with a reconciled snapshot so the client renders real
	// balances before its first action.
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	snap, err := hub.engine.Player(ctx, playerID)
	if err != nil {
		client.sendError(err)
		return
	}
	client.sendMessage(MsgTypeWelcome, snap)
}

// ReadPump pumps messages from the websocket connection into the engine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket read error for " + c.playerID + ": " + err.Error())
				metrics.Get().RecordWSError()
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Warn("Failed to parse action from " + c.playerID + ": " + err.Error())
			continue
		}

		c.handleAction(action)
	}
}

func (c *Client) handleAction(action PlayerAction) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch action.Type {
	case "TAP":
		if !c.allowTap() {
			c.hub.logger.Warn("Tap rate limit exceeded for " + c.playerID)
			c.sendMessage(MsgTypeError, map[string]string{
				"code":  "RATE_LIMITED",
				"error": "tap rate limit exceeded",
			})
			return
		}
		res, err := c.hub.engine.Tap(ctx, c.playerID)
		if err != nil {
			c.sendError(err)
			return
		}
		c.sendMessage(MsgTypeTap, res)
	case "STATS":
		snap, err := c.hub.engine.Player(ctx, c.playerID)
		if err != nil {
			c.sendError(err)
			return
		}
		c.sendMessage(MsgTypePlayer, snap)
	default:
		c.hub.logger.Warn("Unknown action type from " + c.playerID + ": " + action.Type)
	}
}

// allowTap enforces the per-connection tap budget over a one second
// window. The engine's energy cost is the real throttle; this only
// shields it from floods.
func (c *Client) allowTap() bool {
	now := time.Now()
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowTaps = 0
	}
	c.windowTaps++
	return c.windowTaps <= c.hub.tuning.MaxTapsPerSecond
}

func (c *Client) sendMessage(msgType string, payload interface{}) {
	data, err := json.Marshal(Message{
		Type:      msgType,
		Timestamp: time.Now().Unix(),
		Payload:   payload,
	})
	if err != nil {
		c.hub.logger.Error("Failed to serialize " + msgType + " for " + c.playerID + ": " + err.Error())
		return
	}
	if c.trySend(data) {
		metrics.Get().RecordWSMessage(false)
	} else {
		metrics.Get().RecordWSError()
	}
}

func (c *Client) sendError(err error) {
	c.sendMessage(MsgTypeError, map[string]string{
		"code":  engine.Code(err),
		"error": err.Error(),
	})
}

// refuse closes a connection that was never admitted to the hub. The
// send channel stays open, so late sends drop into the buffer and the
// pumps exit once the conn is gone.
func (c *Client) refuse() {
	deadline := time.Now().Add(writeWait)
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server at capacity"), deadline)
	c.conn.Close()
}

// close releases the send channel exactly once. Only the hub calls this,
// after removing the client from its indexes.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// trySend queues a frame unless the client is closed or its buffer is
// full. Reports whether the frame was queued.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// WritePump pumps messages from the hub to the websocket connection.
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
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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
