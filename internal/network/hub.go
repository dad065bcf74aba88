// Package network - hub.go
// WebSocket hub: tracks live connections per player and fans out
// targeted state pushes. The hub never mutates game state itself; it
// relays client actions to the engine and engine results back out.
package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/engine"
	"github.com/avelia-studio/lunatap-server/internal/events"
	"github.com/avelia-studio/lunatap-server/internal/platform/logger"
	"github.com/avelia-studio/lunatap-server/internal/platform/metrics"
	"github.com/avelia-studio/lunatap-server/internal/platform/optimization"
)

// Message is the envelope for every frame the server pushes.
type Message struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Message types pushed to clients.
const (
	MsgTypeWelcome = "WELCOME"
	MsgTypeTap     = "TAP_RESULT"
	MsgTypePlayer  = "PLAYER_UPDATE"
	MsgTypeLedger  = "LEDGER_EVENT"
	MsgTypeCatalog = "CATALOG_UPDATED"
	MsgTypeError   = "ERROR"
)

// Hub maintains the set of active clients and routes pushes to them.
// Most traffic is targeted at a single player's connections; only
// catalog changes go to everyone.
type Hub struct {
	clients    map[*Client]bool
	byPlayer   map[string]map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	engine     *engine.Engine
	logger     *logger.Logger
	tuning     *optimization.Config
}

// NewHub initializes a new WebSocket Hub.
func NewHub(eng *engine.Engine, log *logger.Logger, tuning *optimization.Config) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byPlayer:   make(map[string]map[*Client]bool),
		broadcast:  make(chan []byte, tuning.BroadcastChannelBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		engine:     eng,
		logger:     log,
		tuning:     tuning,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= h.tuning.MaxClientsPerNode {
				h.mu.Unlock()
				h.logger.Warn("Connection limit reached, refusing client for " + client.playerID)
				client.refuse()
				continue
			}
			h.clients[client] = true
			if h.byPlayer[client.playerID] == nil {
				h.byPlayer[client.playerID] = make(map[*Client]bool)
			}
			h.byPlayer[client.playerID][client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("WebSocket client connected for " + client.playerID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.detach(client)
				client.close()
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected for " + client.playerID)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.trySend(message) {
					metrics.Get().RecordWSMessage(false)
					continue
				}
				delete(h.clients, client)
				h.detach(client)
				client.close()
				metrics.Get().RecordWSConnection(-1)
			}
			h.mu.Unlock()
		}
	}
}

// detach removes a client from the per-player index. Caller holds h.mu.
func (h *Hub) detach(client *Client) {
	if set, ok := h.byPlayer[client.playerID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.byPlayer, client.playerID)
		}
	}
}

// Broadcast serializes a message and sends it to every connected client.
func (h *Hub) Broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to serialize broadcast message: " + err.Error())
		return
	}
	h.broadcast <- payload
}

// SendToPlayer pushes a message to every connection the player has open.
// Slow consumers are skipped, not disconnected; the next poll catches
// them up.
func (h *Hub) SendToPlayer(playerID string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to serialize message for " + playerID + ": " + err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.byPlayer[playerID] {
		if client.trySend(payload) {
			metrics.Get().RecordWSMessage(false)
		} else {
			metrics.Get().RecordWSError()
		}
	}
}

// OnlineCount returns the number of active connections.
func (h *Hub) OnlineCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// StartLedgerPoller spawns a goroutine that tails the economy ledger and
// pushes new entries to the affected player's connections. This keeps the
// Hub independent from the engine's write path while every commit still
// reaches the client that caused it.
func (h *Hub) StartLedgerPoller(ctx context.Context, ledger *events.Ledger) {
	go func() {
		pollInterval := time.NewTicker(100 * time.Millisecond)
		defer pollInterval.Stop()

		lastProcessed := ledger.Len()

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				all := ledger.Replay()
				if len(all) <= lastProcessed {
					continue
				}

				for _, entry := range all[lastProcessed:] {
					if entry.Type == events.EntryCatalogUpdated {
						h.Broadcast(Message{
							Type:      MsgTypeCatalog,
							Timestamp: entry.Timestamp.Unix(),
							Payload:   entry,
						})
						continue
					}
					h.SendToPlayer(entry.PlayerID, Message{
						Type:      MsgTypeLedger,
						Timestamp: entry.Timestamp.Unix(),
						Payload:   entry,
					})
				}
				lastProcessed = len(all)
			}
		}
	}()
}
