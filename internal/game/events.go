package game

import "time"

// EventType names a session transition.
type EventType string

const (
	EventTypeInitialized   EventType = "initialized"
	EventTypeTurn          EventType = "turn"
	EventTypeBust          EventType = "bust"
	EventTypeWin           EventType = "win"
	EventTypePenaltyAdded  EventType = "penalty_added"
	EventTypePenaltyUndone EventType = "penalty_undone"
	EventTypeUndo          EventType = "undo"
	EventTypeRoundStarted  EventType = "round_started"
	EventTypeEnded         EventType = "ended"
	EventTypeReset         EventType = "reset"
)

func (et EventType) String() string {
	return string(et)
}

// Event describes the transition that produced a snapshot. PlayerID is -1
// for session-wide transitions.
type Event struct {
	Type      EventType `json:"type"`
	PlayerID  int       `json:"playerId"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber receives every transition together with the resulting
// snapshot. It is called synchronously and must not call back into the
// session.
type Subscriber func(Event, Snapshot)
