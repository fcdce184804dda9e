package live

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"folio/internal/app/chat"
	"folio/internal/app/user"
	"folio/internal/pkg/errs"
	"folio/internal/pkg/logx"
	"folio/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 8192

	sendBuffer = 64
)

// identity is who the socket speaks for; zero value means anonymous.
type identity struct {
	user      *user.User
	sessionID string
}

// Client is one connected socket.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn

	mu    sync.RWMutex
	ident identity

	// written only by the hub goroutine, closed by it on unregister.
	send chan []byte

	logger zerolog.Logger
}

// NewClient wraps conn. u and sessionID may be empty for anonymous visitors.
func NewClient(hub *Hub, conn *websocket.Conn, u *user.User, sessionID string) *Client {
	id := randx.MessageID()

	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		ident:  identity{user: u, sessionID: sessionID},
		send:   make(chan []byte, sendBuffer),
		logger: logx.Logger().With().Str("socket_id", id).Logger(),
	}
}

func (c *Client) current() identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ident
}

func (c *Client) setIdentity(id identity) {
	c.mu.Lock()
	c.ident = id
	c.mu.Unlock()
}

// ReadPump reads frames until the connection fails, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("closing socket after read loop")
		}
	}()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("socket closed unexpectedly")
			}
			return
		}

		c.processInbound(data)
	}
}

func (c *Client) processInbound(data []byte) {
	var in inboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		c.hub.deliverError(c, in.ID, errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	switch in.Type {
	case TypeAuthBind:
		c.handleAuthBind(in)
	case TypeChatSend:
		c.handleChatSend(in)
	default:
		c.logger.Warn().Str("frame_type", string(in.Type)).Msg("Client sent unsupported frame type")
		c.hub.deliverError(c, in.ID, errs.NewError(errs.ErrInvalidParams))
	}
}

// handleAuthBind attaches (or with an empty token, detaches) a signed-in identity.
func (c *Client) handleAuthBind(in inboundFrame) {
	var p AuthBindPayload
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		c.hub.deliverError(c, in.ID, errs.NewError(errs.ErrInvalidParams))
		return
	}

	if p.Token == "" {
		c.setIdentity(identity{})
		c.hub.refresh(c)
		return
	}

	payload, err := c.hub.auth.Verify(c.hub.ctx, p.Token)
	if err != nil {
		c.logger.Debug().Err(err).Msg("auth.bind rejected")
		c.setIdentity(identity{})
		c.hub.deliverError(c, in.ID, errs.NewError(errs.ErrUnauthorized))
		c.hub.refresh(c)
		return
	}

	c.setIdentity(identity{
		user:      &user.User{ID: payload.UserID, Email: payload.Email, DisplayName: payload.DisplayName},
		sessionID: payload.SessionID,
	})
	c.hub.refresh(c)
}

func (c *Client) handleChatSend(in inboundFrame) {
	var p ChatSendPayload
	if err := json.Unmarshal(in.Payload, &p); err != nil || !utf8.ValidString(p.Message) {
		c.hub.deliverError(c, in.ID, errs.NewError(errs.ErrInvalidParams))
		return
	}

	id := c.current()
	if id.user == nil {
		c.hub.deliverError(c, in.ID, errs.NewError(errs.ErrUnauthorized))
		return
	}

	// blank messages are a silent no-op.
	message := strings.TrimSpace(p.Message)
	if message == "" {
		return
	}
	if !c.hub.chat.Enabled() {
		c.hub.deliverError(c, in.ID, chat.ErrDisabled)
		return
	}
	if utf8.RuneCountInString(message) > chat.MaxMessageLength {
		c.hub.deliverError(c, in.ID, chat.ErrTooLong)
		return
	}

	typing := newFrame(TypeChatTyping, nil)
	typing.ReplyTo = in.ID
	c.hub.deliver(c, typing)

	reply, err := c.hub.chat.Send(c.hub.ctx, id.sessionID, id.user, message)
	if err != nil {
		c.hub.deliverError(c, in.ID, err)
		return
	}

	frame := newFrame(TypeChatReply, reply)
	frame.ReplyTo = in.ID
	c.hub.deliver(c, frame)
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("closing socket after write loop")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage returns false when the write loop should stop.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
		if err := c.conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// enqueue is only called from the hub goroutine.
func (c *Client) enqueue(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		c.logger.Error().Err(err).Str("frame_type", string(f.Type)).Msg("Error marshaling frame")
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Str("frame_type", string(f.Type)).Msg("Client send queue full, dropping frame")
	}
}
