package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeGetSession   MessageType = "get_session"
	MessageTypeStartSession MessageType = "start_session"
	MessageTypeSubmitTurn   MessageType = "submit_turn"
	MessageTypeAddPenalty   MessageType = "add_penalty"
	MessageTypeUndoPenalty  MessageType = "undo_penalty"
	MessageTypeUndo         MessageType = "undo"
	MessageTypeNewRound     MessageType = "new_round"
	MessageTypeEndSession   MessageType = "end_session"
	MessageTypeReset        MessageType = "reset"

	// Server to client messages
	MessageTypeSession       MessageType = "session"
	MessageTypeRoundRecorded MessageType = "round_recorded"
	MessageTypeError         MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
