package game

import (
	"fmt"
	"time"
)

// TurnRecord is one scoring submission of a player within a round.
type TurnRecord struct {
	Darts         []int     `json:"darts"`
	PreviousScore int       `json:"previousScore"`
	NewScore      int       `json:"newScore"`
	Bust          bool      `json:"bust"`
	Timestamp     time.Time `json:"timestamp"`
}

// Total returns the sum of the throws.
func (t TurnRecord) Total() int {
	return SumDarts(t.Darts)
}

// Scored returns the points actually taken off the score, zero on a bust.
func (t TurnRecord) Scored() int {
	return t.PreviousScore - t.NewScore
}

func (t TurnRecord) clone() TurnRecord {
	t.Darts = append([]int(nil), t.Darts...)
	return t
}

// ScoreValidation is the outcome of checking a turn total against a score.
type ScoreValidation struct {
	NewScore int  `json:"newScore"`
	Bust     bool `json:"bust"`
	Win      bool `json:"win"`
}

// ValidateScore computes the result of subtracting turnScore from
// currentScore. A bust leaves the score unchanged: zero is only reachable by
// an exact checkout.
func ValidateScore(currentScore, turnScore int) ScoreValidation {
	candidate := currentScore - turnScore
	if candidate < 0 {
		return ScoreValidation{NewScore: currentScore, Bust: true}
	}
	return ScoreValidation{NewScore: candidate, Win: candidate == 0}
}

// SumDarts adds up individual throws.
func SumDarts(darts []int) int {
	total := 0
	for _, d := range darts {
		total += d
	}
	return total
}

// TurnLimits bounds what a single turn may contain.
type TurnLimits struct {
	DartsPerTurn int
	MaxDartScore int
	MaxTurnScore int
}

// DefaultTurnLimits are the limits of a standard board: three darts, a
// treble twenty per dart.
var DefaultTurnLimits = TurnLimits{
	DartsPerTurn: 3,
	MaxDartScore: 60,
	MaxTurnScore: 180,
}

// CheckTurn validates the shape of a submitted turn: at least one throw, no
// more than DartsPerTurn, no negative throw and a total within range. It
// accepts a single entry holding a whole-turn total.
func (l TurnLimits) CheckTurn(darts []int) error {
	if len(darts) == 0 {
		return fmt.Errorf("%w: no throws", ErrInvalidTurn)
	}
	if len(darts) > l.DartsPerTurn {
		return fmt.Errorf("%w: %d throws, at most %d allowed", ErrInvalidTurn, len(darts), l.DartsPerTurn)
	}
	for i, d := range darts {
		if d < 0 {
			return fmt.Errorf("%w: throw %d is negative", ErrInvalidTurn, i+1)
		}
	}
	return l.CheckTotal(SumDarts(darts))
}

// CheckDarts applies CheckTurn and additionally bounds every throw by
// MaxDartScore.
func (l TurnLimits) CheckDarts(darts []int) error {
	if err := l.CheckTurn(darts); err != nil {
		return err
	}
	for i, d := range darts {
		if d > l.MaxDartScore {
			return fmt.Errorf("%w: throw %d scores %d, maximum is %d", ErrInvalidTurn, i+1, d, l.MaxDartScore)
		}
	}
	return nil
}

// CheckTotal bounds a whole-turn total.
func (l TurnLimits) CheckTotal(total int) error {
	if total < 0 || total > l.MaxTurnScore {
		return fmt.Errorf("%w: total %d outside 0..%d", ErrInvalidTurn, total, l.MaxTurnScore)
	}
	return nil
}
