package statistics

import (
	"math"
	"testing"

	"github.com/lox/coindart/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(prev int, darts ...int) game.TurnRecord {
	v := game.ValidateScore(prev, game.SumDarts(darts))
	return game.TurnRecord{Darts: darts, PreviousScore: prev, NewScore: v.NewScore, Bust: v.Bust}
}

func TestTurnStatsEmpty(t *testing.T) {
	t.Parallel()

	s := NewTurnStats(180)
	assert.Zero(t, s.Mean())
	assert.Zero(t, s.PerDart())
	assert.Zero(t, s.Variance())
	assert.Zero(t, s.StdDev())
	assert.Zero(t, s.Median())
	assert.Zero(t, s.Percentile(0.5))
	assert.Zero(t, s.BustRate())
	require.NoError(t, s.Validate())
}

func TestTurnStatsSingleTurn(t *testing.T) {
	t.Parallel()

	s := NewTurnStats(180)
	s.Add(turn(501, 60, 60, 60))

	assert.Equal(t, 1, s.Turns)
	assert.Equal(t, 3, s.Darts)
	assert.Equal(t, 180.0, s.Mean())
	assert.Equal(t, 60.0, s.PerDart())
	assert.Zero(t, s.Variance())
	assert.Equal(t, 1, s.Tons)
	assert.Equal(t, 1, s.Maximums)
	assert.Equal(t, 180, s.Highest)
	require.NoError(t, s.Validate())
}

func TestTurnStatsFromTurns(t *testing.T) {
	t.Parallel()

	turns := []game.TurnRecord{
		turn(180, 20, 20, 20), // 120
		turn(120, 60, 40),     // 20
		turn(20, 19, 5),       // bust
		turn(20, 20),          // checkout
	}
	s := FromTurns(turns, game.DefaultTurnLimits)

	assert.Equal(t, 4, s.Turns)
	assert.Equal(t, 8, s.Darts)
	assert.Equal(t, 1, s.Busts)
	assert.Equal(t, 1, s.Checkouts)
	assert.Equal(t, 1, s.Tons)
	assert.Zero(t, s.Maximums)
	assert.Equal(t, 100, s.Highest)
	assert.Equal(t, []float64{60, 100, 0, 20}, s.Values)
	assert.Equal(t, 45.0, s.Mean())
	assert.Equal(t, 0.25, s.BustRate())
	assert.Equal(t, 40.0, s.Median())
	require.NoError(t, s.Validate())

	// values 0, 20, 60, 100: mean 45, squares sum 14000
	want := (14000.0 - 4*45*45) / 3
	assert.InDelta(t, want, s.Variance(), 1e-9)
	assert.InDelta(t, math.Sqrt(want), s.StdDev(), 1e-9)
}

func TestTurnStatsPercentile(t *testing.T) {
	t.Parallel()

	s := NewTurnStats(180)
	for _, total := range []int{10, 20, 30, 40, 50} {
		s.Add(turn(501, total))
	}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{0.25, 20},
		{0.5, 30},
		{0.9, 46},
		{1, 50},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, s.Percentile(tt.p), 1e-9, "p=%v", tt.p)
	}
}

func TestTurnStatsValidateDetectsCorruption(t *testing.T) {
	t.Parallel()

	s := NewTurnStats(180)
	s.Add(turn(100, 50))
	s.Values = append(s.Values, 1)
	require.Error(t, s.Validate())

	s = NewTurnStats(180)
	s.Add(turn(100, 50))
	s.Sum += 10
	require.Error(t, s.Validate())
}
