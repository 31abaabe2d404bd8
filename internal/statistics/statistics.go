package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/coindart/internal/game"
)

// TonThreshold is the smallest turn total counted as a ton.
const TonThreshold = 100

// TurnStats tracks scoring statistics over a sequence of turns
type TurnStats struct {
	Turns  int
	Sum    float64
	Sum2   float64   // Sum of squares for variance calculation
	Values []float64 // Store all values for median/percentile calculation

	Busts     int // Turns that left the score unchanged
	Checkouts int // Turns that reached exactly zero
	Tons      int // Scored turns of TonThreshold or more
	Maximums  int // Scored turns equal to the maximum turn score
	Darts     int

	Highest  int
	maxTurn  int
	scoredBy float64 // Points from non-bust turns, for the balance check
	bustedBy float64 // Points thrown on bust turns
}

// NewTurnStats returns an accumulator that counts turns of maxTurn as maximums.
func NewTurnStats(maxTurn int) *TurnStats {
	return &TurnStats{maxTurn: maxTurn}
}

// FromTurns builds statistics from a player's turn history
func FromTurns(turns []game.TurnRecord, limits game.TurnLimits) *TurnStats {
	s := NewTurnStats(limits.MaxTurnScore)
	for _, t := range turns {
		s.Add(t)
	}
	return s
}

// Add incorporates a turn. Busts count as zero points scored.
func (s *TurnStats) Add(turn game.TurnRecord) {
	thrown := turn.Total()
	scored := float64(turn.Scored())

	s.Turns++
	s.Darts += len(turn.Darts)
	s.Sum += scored
	s.Sum2 += scored * scored
	s.Values = append(s.Values, scored)

	if turn.Bust {
		s.Busts++
		s.bustedBy += float64(thrown)
		return
	}
	s.scoredBy += scored

	if turn.NewScore == 0 {
		s.Checkouts++
	}
	if thrown >= TonThreshold {
		s.Tons++
	}
	if s.maxTurn > 0 && thrown == s.maxTurn {
		s.Maximums++
	}
	if thrown > s.Highest {
		s.Highest = thrown
	}
}

// Mean returns the average points scored per turn
func (s *TurnStats) Mean() float64 {
	if s.Turns == 0 {
		return 0
	}
	return s.Sum / float64(s.Turns)
}

// PerDart returns the average points scored per dart thrown
func (s *TurnStats) PerDart() float64 {
	if s.Darts == 0 {
		return 0
	}
	return s.Sum / float64(s.Darts)
}

// Variance returns the sample variance of points per turn
func (s *TurnStats) Variance() float64 {
	if s.Turns < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.Sum2 - float64(s.Turns)*mean*mean) / float64(s.Turns-1)
}

// StdDev returns the sample standard deviation of points per turn
func (s *TurnStats) StdDev() float64 {
	return math.Sqrt(max(0, s.Variance()))
}

// BustRate returns the fraction of turns that bust
func (s *TurnStats) BustRate() float64 {
	if s.Turns == 0 {
		return 0
	}
	return float64(s.Busts) / float64(s.Turns)
}

// Median returns the median points per turn
func (s *TurnStats) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *TurnStats) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func (s *TurnStats) sorted() []float64 {
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)
	return sorted
}

// Validate checks the accumulator is internally consistent
func (s *TurnStats) Validate() error {
	if math.Abs(s.Sum-s.scoredBy) > 1e-6 {
		return fmt.Errorf("points mismatch: sum=%.2f scored=%.2f", s.Sum, s.scoredBy)
	}
	if len(s.Values) != s.Turns {
		return fmt.Errorf("values array length (%d) does not match turn count (%d)", len(s.Values), s.Turns)
	}
	if s.Busts+s.Checkouts > s.Turns {
		return fmt.Errorf("busts (%d) and checkouts (%d) exceed turns (%d)", s.Busts, s.Checkouts, s.Turns)
	}
	if s.maxTurn >= TonThreshold && s.Maximums > s.Tons {
		return fmt.Errorf("maximums (%d) exceed tons (%d)", s.Maximums, s.Tons)
	}
	return nil
}
