package game

import "errors"

var (
	// ErrInvalidConfiguration is returned by Initialize when fewer than two
	// named players remain or the starting score is not positive.
	ErrInvalidConfiguration = errors.New("invalid game configuration")

	// ErrNotInProgress is returned when a turn is submitted outside of an
	// active round.
	ErrNotInProgress = errors.New("round is not in progress")

	// ErrInvalidTurn is returned for out of range throws or a new score that
	// does not follow from the throws.
	ErrInvalidTurn = errors.New("invalid turn")

	// ErrInvalidPenalty is returned for non-positive amounts or empty reasons.
	ErrInvalidPenalty = errors.New("invalid penalty")

	// ErrNoWinner is returned when a round is closed before anyone checked out.
	ErrNoWinner = errors.New("round has no winner")
)
