package server

import (
	"encoding/json"
	"time"

	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/store"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message stamped with now
func NewMessage(now time.Time, messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: now,
	}, nil
}

// Requests shared by the REST API and the websocket

// StartRequest seats a new session. A zero starting score uses the default.
type StartRequest struct {
	Players       []string `json:"players"`
	StartingScore int      `json:"startingScore,omitempty"`
}

// TurnRequest carries either individual darts or a turn total.
type TurnRequest struct {
	Darts []int `json:"darts,omitempty"`
	Total *int  `json:"total,omitempty"`
}

// PenaltyRequest charges a preset, or a custom amount with a reason.
type PenaltyRequest struct {
	PlayerID int     `json:"playerId"`
	Preset   string  `json:"preset,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// PlayerRequest names one seat.
type PlayerRequest struct {
	PlayerID int `json:"playerId"`
}

// Responses

// SessionData is broadcast after every transition. Event is absent when
// the message answers a request that changed nothing.
type SessionData struct {
	Event   *game.Event   `json:"event,omitempty"`
	Session game.Snapshot `json:"session"`
}

// ActionData reports whether an undo found something to take back.
type ActionData struct {
	Applied bool          `json:"applied"`
	Session game.Snapshot `json:"session"`
}

// RoundData is returned when a round is closed.
type RoundData struct {
	Record  *store.GameRecord `json:"record,omitempty"`
	Session game.Snapshot     `json:"session"`
}

// ErrorData describes a rejected request.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
