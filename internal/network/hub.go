// Package network connects players to the world over websockets and exposes
// the HTTP API of the server.
package network

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/domain/item"
	"github.com/MRamiBalles/babyturt/internal/domain/player"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
	"github.com/MRamiBalles/babyturt/internal/platform/metrics"
	"github.com/MRamiBalles/babyturt/internal/world"
)

// Outbound message types.
const (
	MsgTypeChat     = "CHAT"
	MsgTypeSound    = "SOUND"
	MsgTypeParticle = "PARTICLE"
)

// ServerMessage is pushed to clients.
type ServerMessage struct {
	Type      string       `json:"type"`
	Text      string       `json:"text,omitempty"`
	Dimension string       `json:"dimension,omitempty"`
	Sound     string       `json:"sound,omitempty"`
	Particle  string       `json:"particle,omitempty"`
	Location  *entity.Vec3 `json:"location,omitempty"`
	Pitch     float64      `json:"pitch,omitempty"`
}

// World is the part of the simulation that clients drive.
type World interface {
	SpawnPlayer(p *player.Player) error
	RemovePlayer(id string)
	MovePlayer(id string, at, view entity.Vec3) error
	SetHeldItem(id string, stack *item.Stack) error
	InteractWithEntity(playerID string, target entity.ID) error
	UseItem(playerID string) error
}

// Executor runs closures on the world's tick thread.
type Executor interface {
	Submit(fn func())
}

// HubOptions tunes buffering and client limits.
type HubOptions struct {
	BroadcastBuffer     int
	ClientSendBuffer    int
	MaxActionsPerSecond int
}

// Hub maintains the set of active clients and broadcasts messages to them.
// It is the world's audiovisual sink.
type Hub struct {
	clients    map[*Client]bool
	owners     map[string]*Client // player ID -> newest connection
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex

	world   World
	exec    Executor
	opts    HubOptions
	logger  *logger.Logger
	metrics *metrics.Collector
}

var _ world.Sink = (*Hub)(nil)

// NewHub initializes a new WebSocket Hub.
func NewHub(w World, exec Executor, opts HubOptions, log *logger.Logger, m *metrics.Collector) *Hub {
	if opts.BroadcastBuffer <= 0 {
		opts.BroadcastBuffer = 256
	}
	if opts.ClientSendBuffer <= 0 {
		opts.ClientSendBuffer = 64
	}
	if opts.MaxActionsPerSecond <= 0 {
		opts.MaxActionsPerSecond = 20
	}
	return &Hub{
		broadcast:  make(chan []byte, opts.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		owners:     make(map[string]*Client),
		world:      w,
		exec:       exec,
		opts:       opts,
		logger:     log,
		metrics:    m,
	}
}

// claim makes c the connection that owns its player ID, replacing any older one.
func (h *Hub) claim(c *Client) {
	h.mu.Lock()
	h.owners[c.playerID] = c
	h.mu.Unlock()
}

// release gives up c's ownership and reports whether c still owned the player.
func (h *Hub) release(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.owners[c.playerID] != c {
		return false
	}
	delete(h.owners, c.playerID)
	return true
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.metrics.WSConnections.Set(0)
			h.logger.Info("websocket hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.WSConnections.Set(float64(n))
			h.logger.Info("websocket client connected", "player", client.playerID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("websocket client disconnected", "player", client.playerID)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.WSConnections.Set(float64(n))
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					// Slow consumer.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast serializes a message and queues it for every client. It never
// blocks the tick thread: when the queue is full the message is dropped.
func (h *Hub) Broadcast(msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to serialize server message", "type", msg.Type, "err", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("broadcast queue full, dropping message", "type", msg.Type)
	}
}

// PlaySound implements world.Sink.
func (h *Hub) PlaySound(dimension, sound string, at entity.Vec3, pitch float64) {
	h.Broadcast(ServerMessage{Type: MsgTypeSound, Dimension: dimension, Sound: sound, Location: &at, Pitch: pitch})
}

// SpawnParticle implements world.Sink.
func (h *Hub) SpawnParticle(dimension, particle string, at entity.Vec3) {
	h.Broadcast(ServerMessage{Type: MsgTypeParticle, Dimension: dimension, Particle: particle, Location: &at})
}

// SendMessage implements world.Sink.
func (h *Hub) SendMessage(text string) {
	h.Broadcast(ServerMessage{Type: MsgTypeChat, Text: text})
}
