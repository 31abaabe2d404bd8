package game

import "fmt"

// State is the lifecycle position of a session.
type State int

const (
	NotStarted State = iota
	InProgress
	RoundWon
	Ended
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case RoundWon:
		return "round_won"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Started reports whether players are seated.
func (s State) Started() bool {
	return s != NotStarted
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "not_started":
		*s = NotStarted
	case "in_progress":
		*s = InProgress
	case "round_won":
		*s = RoundWon
	case "ended":
		*s = Ended
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}
