package network

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/PauMirall/Lumenfall/server/internal/engine"
	"github.com/PauMirall/Lumenfall/server/internal/platform/metrics"
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
	// Minimum gap between skip requests from one connection.
	skipCooldown = 2 * time.Second
)

// ClientAction represents an incoming command from a game client.
type ClientAction struct {
	Type    string          `json:"type"`    // "join", "move", "beam_hit", "caught", "skip_wait", "leave"
	Payload json.RawMessage `json:"payload"` // Action-specific data
}

// Client holds one bearer's connection. The bearer id is minted here,
// at the edge; the wire never chooses its own identity.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	bearerID string
	joined   bool
	lastSkip time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		bearerID: uuid.NewString(),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// SendWelcome tells the client the bearer id this connection owns.
func (c *Client) SendWelcome() {
	msg := Message{
		Type:      MsgTypeWelcome,
		Timestamp: time.Now().Unix(),
		Payload:   map[string]string{"bearerId": c.bearerID},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// ReadPump pumps messages from the websocket connection into the engine.
func (c *Client) ReadPump() {
	defer func() {
		if c.joined {
			c.hub.engine.Submit(engine.Command{Type: engine.CommandLeave, BearerID: c.bearerID})
		}
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
				metrics.Get().RecordWSError()
				c.hub.logger.Warn("WebSocket read error: " + err.Error())
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var action ClientAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Error("Failed to parse ClientAction from WebSocket: " + err.Error())
			continue
		}

		c.handleAction(action)
	}
}

func (c *Client) handleAction(action ClientAction) {
	switch action.Type {
	case "join":
		c.handleJoin(action.Payload)
	case "move":
		c.handleMove(action.Payload)
	case "beam_hit":
		c.handleShadeReport(engine.CommandBeamHit, action.Payload)
	case "caught":
		c.handleShadeReport(engine.CommandCaught, action.Payload)
	case "skip_wait":
		c.handleSkipWait()
	case "leave":
		if c.joined {
			c.joined = false
			c.hub.engine.Submit(engine.Command{Type: engine.CommandLeave, BearerID: c.bearerID})
		}
	default:
		c.hub.logger.Warn("Unknown ClientAction type: " + action.Type)
	}
}

func (c *Client) handleJoin(rawPayload []byte) {
	var parsed struct {
		Name string `json:"name"`
	}
	if len(rawPayload) > 0 {
		if err := json.Unmarshal(rawPayload, &parsed); err != nil {
			c.hub.logger.Warn("Failed to parse join payload for " + c.bearerID)
			return
		}
	}
	if parsed.Name == "" {
		parsed.Name = "Bearer"
	}

	c.joined = true
	c.hub.engine.Submit(engine.Command{
		Type:     engine.CommandJoin,
		BearerID: c.bearerID,
		Name:     parsed.Name,
	})
	c.hub.logger.Event("CLIENT_JOIN", c.bearerID, parsed.Name+" asked to enter the ring")
}

func (c *Client) handleMove(rawPayload []byte) {
	if !c.joined {
		return
	}
	var parsed struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	}
	if err := json.Unmarshal(rawPayload, &parsed); err != nil {
		return
	}
	c.hub.engine.Submit(engine.Command{
		Type:     engine.CommandMove,
		BearerID: c.bearerID,
		X:        parsed.X,
		Y:        parsed.Y,
		Z:        parsed.Z,
	})
}

// handleShadeReport covers the two client-authoritative collision
// reports: a beam touching a shade and a shade reaching the bearer.
func (c *Client) handleShadeReport(cmdType engine.CommandType, rawPayload []byte) {
	if !c.joined {
		return
	}
	var parsed struct {
		ShadeID string `json:"shadeId"`
	}
	if err := json.Unmarshal(rawPayload, &parsed); err != nil || parsed.ShadeID == "" {
		c.hub.logger.Warn("Shade report without a shade id from " + c.bearerID)
		return
	}
	c.hub.engine.Submit(engine.Command{
		Type:     cmdType,
		BearerID: c.bearerID,
		ShadeID:  parsed.ShadeID,
	})
}

func (c *Client) handleSkipWait() {
	if !c.joined {
		return
	}
	if time.Since(c.lastSkip) < skipCooldown {
		c.hub.logger.Warn("Skip spam from " + c.bearerID)
		return
	}
	c.lastSkip = time.Now()
	c.hub.engine.Submit(engine.Command{Type: engine.CommandSkipWait, BearerID: c.bearerID})
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
				metrics.Get().RecordWSError()
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
				metrics.Get().RecordWSError()
				return
			}
			metrics.Get().RecordWSMessage(false)
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
