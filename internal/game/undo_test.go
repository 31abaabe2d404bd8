package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoWithEmptyHistory(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	assert.False(t, s.UndoLastAction())

	s, _ = startSession(t, 180, "A", "B")
	before := s.Snapshot()
	assert.False(t, s.CanUndo())
	assert.False(t, s.UndoLastAction())
	assert.Equal(t, before, s.Snapshot())
}

func TestUndoIsInverseOfTurn(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 301, "A", "B", "C")
	playTotals(t, s, 60, 45)
	before := s.Snapshot()

	v := ValidateScore(301, 100)
	require.NoError(t, s.UpdatePlayerScore(2, v.NewScore, []int{60, 20, 20}, false))
	require.True(t, s.UndoLastAction())

	after := s.Snapshot()
	assert.Equal(t, before.Players, after.Players)
	assert.Equal(t, before.History, after.History)
}

func TestUndoSelectsPreviousSeat(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 301, "A", "B", "C")

	playTotals(t, s, 20)
	require.True(t, s.UndoLastAction())
	assert.Equal(t, 2, s.Snapshot().CurrentPlayer, "seat 0 wraps to the last seat")

	playTotals(t, s, 20) // seat 2 plays
	require.True(t, s.UndoLastAction())
	assert.Equal(t, 1, s.Snapshot().CurrentPlayer)
}

func TestUndoRestoreActingSeat(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, WithUndoPolicy(UndoPolicy{RestoreActingSeat: true}))
	require.NoError(t, s.Initialize(Config{StartingScore: 301, PlayerNames: []string{"A", "B", "C"}}))

	playTotals(t, s, 20, 30)
	require.True(t, s.UndoLastAction())
	assert.Equal(t, 1, s.Snapshot().CurrentPlayer)
	require.True(t, s.UndoLastAction())
	assert.Equal(t, 0, s.Snapshot().CurrentPlayer)
}

func TestUndoKeepsBustPenalty(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 30, "A", "B")
	require.NoError(t, s.SubmitTotal(40))
	require.True(t, s.UndoLastAction())

	a := player(t, s, 0)
	assert.Equal(t, 30, a.Round.Score)
	assert.Empty(t, a.Round.Turns)
	assert.Equal(t, []int{30}, a.Round.ScoreHistory)
	require.Len(t, a.Ledger.Records, 1)
	assert.Equal(t, ReasonBust, a.Ledger.Records[0].Reason)
}

func TestUndoAfterWinKeepsConversionByDefault(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 100, "A", "B")
	playTotals(t, s, 40, 30) // A on 60, B on 70
	playTotals(t, s, 60)     // A wins, B owes 70

	require.True(t, s.UndoLastAction())

	snap := s.Snapshot()
	assert.Nil(t, snap.Winner)
	assert.Equal(t, InProgress, snap.State)
	assert.Equal(t, 60, snap.Players[0].Round.Score)
	require.Len(t, snap.Players[1].Ledger.Records, 1)
	assert.Equal(t, ReasonRemainingScore, snap.Players[1].Ledger.Records[0].Reason)
	assert.Equal(t, 70.0, snap.Players[1].Ledger.Total)
}

func TestUndoAfterWinRevertsConversion(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, WithUndoPolicy(UndoPolicy{RevertConversion: true}))
	require.NoError(t, s.Initialize(Config{StartingScore: 100, PlayerNames: []string{"A", "B", "C"}}))
	require.NoError(t, s.AddPenalty(1, 1, ReasonOuterBoard))
	playTotals(t, s, 100) // A wins, B owes 100, C owes 100
	require.NoError(t, s.AddPenalty(1, 10, ReasonMissedBoard))

	require.True(t, s.UndoLastAction())

	snap := s.Snapshot()
	assert.Nil(t, snap.Winner)
	assert.Equal(t, 100, snap.Players[0].Round.Score)

	b := snap.Players[1]
	require.Len(t, b.Ledger.Records, 2)
	assert.Equal(t, ReasonOuterBoard, b.Ledger.Records[0].Reason)
	assert.Equal(t, ReasonMissedBoard, b.Ledger.Records[1].Reason)
	assert.Equal(t, 11.0, b.Ledger.Total)

	c := snap.Players[2]
	assert.Empty(t, c.Ledger.Records)
	assert.Zero(t, c.Ledger.Total)
}

func TestUndoRoundTrip(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 301, "A", "B", "C")
	before := s.Snapshot()

	turns := [][]int{{60, 60, 60}, {20, 1, 5}, {0}, {57, 57, 57}, {19, 19, 19}}
	for _, darts := range turns {
		current, ok := s.CurrentPlayer()
		require.True(t, ok)
		v := ValidateScore(current.Round.Score, SumDarts(darts))
		require.NoError(t, s.UpdatePlayerScore(current.ID, v.NewScore, darts, v.Bust))
	}
	for range turns {
		require.True(t, s.UndoLastAction())
	}
	assert.False(t, s.UndoLastAction())

	after := s.Snapshot()
	assert.Equal(t, before.Players, after.Players)
	assert.Empty(t, after.History)
	assert.Nil(t, after.Winner)
}

func TestUndoAfterNewRoundIsNoop(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 50, "A", "B")
	playTotals(t, s, 50)
	require.NoError(t, s.StartNewRound())
	assert.False(t, s.UndoLastAction())
	assert.Equal(t, 50, player(t, s, 0).Round.Score)
}

func TestUndoAfterEndIsNoop(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 50, "A", "B")
	playTotals(t, s, 50)
	require.NoError(t, s.End())
	assert.False(t, s.UndoLastAction())
	assert.Equal(t, Ended, s.State())
}
