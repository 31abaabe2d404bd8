package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/store"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	server    *Server
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		server: server,
		logger: server.logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// ErrConnectionClosed is returned when sending on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// SendMessage queues a message for the client without blocking
func (c *Connection) SendMessage(msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
			err = ErrConnectionClosed
		}
	}()

	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// pongWait is how long a peer may stay silent, a little over one ping period.
func (c *Connection) pongWait() time.Duration {
	return c.server.pingInterval * 10 / 9
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
		return nil
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := c.server.clock.NewTicker(c.server.pingInterval, "conn", "ping")
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "request", msg.RequestID)
	m := c.server.match

	switch msg.Type {
	case MessageTypeGetSession:
		c.sendSession(nil, m.Snapshot(), msg.RequestID)

	case MessageTypeStartSession:
		var data StartRequest
		if !c.decode(msg, &data) {
			return
		}
		_, err := m.Start(data.Players, data.StartingScore)
		c.reply(msg, err)

	case MessageTypeSubmitTurn:
		var data TurnRequest
		if !c.decode(msg, &data) {
			return
		}
		_, err := c.server.submitTurn(data)
		c.reply(msg, err)

	case MessageTypeAddPenalty:
		var data PenaltyRequest
		if !c.decode(msg, &data) {
			return
		}
		_, err := c.server.addPenalty(data)
		c.reply(msg, err)

	case MessageTypeUndoPenalty:
		var data PlayerRequest
		if !c.decode(msg, &data) {
			return
		}
		if snap, applied := m.UndoPenalty(data.PlayerID); !applied {
			c.sendSession(nil, snap, msg.RequestID)
		}

	case MessageTypeUndo:
		if snap, applied := m.Undo(); !applied {
			c.sendSession(nil, snap, msg.RequestID)
		}

	case MessageTypeNewRound:
		rec, _, err := m.NextRound(c.ctx)
		c.replyRound(msg, rec, err)

	case MessageTypeEndSession:
		rec, _, err := m.End(c.ctx)
		c.replyRound(msg, rec, err)

	case MessageTypeReset:
		m.Reset()

	default:
		c.sendError(msg.RequestID, "unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) decode(msg *Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.sendError(msg.RequestID, "invalid_message", "Failed to parse "+msg.Type.String()+" data")
		return false
	}
	return true
}

// reply reports a failed command. Successful commands are answered by the
// broadcast of the resulting transition.
func (c *Connection) reply(msg *Message, err error) {
	if err == nil {
		return
	}
	_, code := errorStatus(err)
	c.sendError(msg.RequestID, code, err.Error())
}

func (c *Connection) replyRound(msg *Message, rec store.GameRecord, err error) {
	if err != nil {
		c.reply(msg, err)
		return
	}
	if rec.ID == "" {
		return
	}
	c.sendData(MessageTypeRoundRecorded, rec, msg.RequestID)
}

func (c *Connection) sendSession(event *game.Event, snap game.Snapshot, requestID string) {
	c.sendData(MessageTypeSession, SessionData{Event: event, Session: snap}, requestID)
}

// sendError sends an error message to the client
func (c *Connection) sendError(requestID, code, message string) {
	c.sendData(MessageTypeError, ErrorData{Code: code, Message: message}, requestID)
}

func (c *Connection) sendData(messageType MessageType, data any, requestID string) {
	msg, err := NewMessage(c.server.clock.Now(), messageType, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg)
}
