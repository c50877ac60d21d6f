package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/domain/item"
	"github.com/MRamiBalles/babyturt/internal/domain/player"
	"github.com/MRamiBalles/babyturt/internal/world"
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
)

// Inbound action types.
const (
	ActionSpawn    = "SPAWN"
	ActionLook     = "LOOK"
	ActionHold     = "HOLD"
	ActionInteract = "INTERACT"
	ActionUseItem  = "USE_ITEM"
)

var (
	errMissingTarget = errors.New("missing target_id")
	errBadAmount     = errors.New("item amount must be positive")
	errUnknownAction = errors.New("unknown action")
	errOutOfBounds   = errors.New("location outside the world border")
)

// PlayerAction represents an incoming command from a client.
type PlayerAction struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SpawnPayload accompanies SPAWN.
type SpawnPayload struct {
	GameMode player.GameMode `json:"game_mode"`
	Location entity.Vec3     `json:"location"`
	View     entity.Vec3     `json:"view"`
}

// LookPayload accompanies LOOK.
type LookPayload struct {
	Location entity.Vec3 `json:"location"`
	View     entity.Vec3 `json:"view"`
}

// HoldPayload accompanies HOLD. A nil item empties the hand.
type HoldPayload struct {
	Item *item.Stack `json:"item"`
}

// InteractPayload accompanies INTERACT.
type InteractPayload struct {
	TargetID entity.ID `json:"target_id"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Client is one connected player.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	name     string

	windowStart time.Time
	actions     int
}

// ServeWS upgrades GET /ws?player_id=&name= to a player connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		http.Error(w, "missing player_id", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = playerID
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, h.opts.ClientSendBuffer),
		playerID: playerID,
		name:     name,
	}
	h.claim(c)
	select {
	case h.register <- c:
	case <-h.done:
		h.release(c)
		conn.Close()
		return
	}
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump pumps actions from the websocket connection to the world.
func (c *Client) ReadPump() {
	defer func() {
		// A newer connection for the same player keeps the player in the world.
		if c.hub.release(c) {
			id := c.playerID
			c.hub.exec.Submit(func() { c.hub.world.RemovePlayer(id) })
		}
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
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", "player", c.playerID, "err", err)
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Warn("failed to parse player action", "player", c.playerID, "err", err)
			continue
		}
		if !c.allow(time.Now()) {
			c.hub.logger.Warn("rate limit exceeded", "player", c.playerID, "action", action.Type)
			continue
		}
		if err := c.handlePlayerAction(action); err != nil {
			c.hub.logger.Warn("rejected player action", "player", c.playerID, "action", action.Type, "err", err)
		}
	}
}

// allow enforces MaxActionsPerSecond over fixed one-second windows.
func (c *Client) allow(now time.Time) bool {
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.actions = 0
	}
	c.actions++
	return c.actions <= c.hub.opts.MaxActionsPerSecond
}

// handlePlayerAction validates an action on the connection goroutine and
// hands it to the tick thread.
func (c *Client) handlePlayerAction(action PlayerAction) error {
	w, id := c.hub.world, c.playerID

	switch action.Type {
	case ActionSpawn:
		var p SpawnPayload
		if err := decode(action.Payload, &p); err != nil {
			return err
		}
		pl := player.NewPlayer(id, c.name)
		if p.GameMode != "" {
			pl.GameMode = p.GameMode
		}
		if !pl.GameMode.Valid() {
			return errors.New("invalid game_mode")
		}
		if !world.InBounds(p.Location) || !p.View.IsFinite() {
			return errOutOfBounds
		}
		pl.Location = p.Location
		if p.View != (entity.Vec3{}) {
			pl.ViewDirection = p.View
		}
		c.submit(action.Type, func() error { return w.SpawnPlayer(pl) })

	case ActionLook:
		var p LookPayload
		if err := decode(action.Payload, &p); err != nil {
			return err
		}
		if !world.InBounds(p.Location) || !p.View.IsFinite() {
			return errOutOfBounds
		}
		c.submit(action.Type, func() error { return w.MovePlayer(id, p.Location, p.View) })

	case ActionHold:
		var p HoldPayload
		if err := decode(action.Payload, &p); err != nil {
			return err
		}
		if p.Item != nil && p.Item.Amount <= 0 {
			return errBadAmount
		}
		c.submit(action.Type, func() error { return w.SetHeldItem(id, p.Item) })

	case ActionInteract:
		var p InteractPayload
		if err := decode(action.Payload, &p); err != nil {
			return err
		}
		if p.TargetID == "" {
			return errMissingTarget
		}
		c.submit(action.Type, func() error { return w.InteractWithEntity(id, p.TargetID) })

	case ActionUseItem:
		c.submit(action.Type, func() error { return w.UseItem(id) })

	default:
		return errUnknownAction
	}
	return nil
}

func (c *Client) submit(actionType string, fn func() error) {
	log, id := c.hub.logger, c.playerID
	c.hub.exec.Submit(func() {
		if err := fn(); err != nil {
			log.Debug("player action failed", "player", id, "action", actionType, "err", err)
		}
	})
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
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
