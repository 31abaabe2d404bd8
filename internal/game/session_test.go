package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	require.Equal(t, NotStarted, s.State())

	err := s.Initialize(Config{StartingScore: 180, PlayerNames: []string{" Alice ", "", "Bob", "   "}})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, InProgress, snap.State)
	assert.Equal(t, "session_test", snap.ID)
	assert.Equal(t, 180, snap.StartingScore)
	assert.Equal(t, 1, snap.CurrentRound)
	assert.Equal(t, 0, snap.CurrentPlayer)
	assert.Nil(t, snap.Winner)
	assert.Empty(t, snap.History)
	assert.Empty(t, snap.RoundResults)
	assert.Zero(t, snap.Stats.TotalRounds)
	assert.Equal(t, testEpoch, snap.StartedAt)

	require.Len(t, snap.Players, 2)
	for i, name := range []string{"Alice", "Bob"} {
		p := snap.Players[i]
		assert.Equal(t, i, p.ID)
		assert.Equal(t, name, p.Name)
		assert.Equal(t, 180, p.Round.Score)
		assert.Equal(t, []int{180}, p.Round.ScoreHistory)
		assert.Empty(t, p.Round.Turns)
		assert.Zero(t, p.Ledger.Total)
		assert.Empty(t, p.Ledger.Records)
	}
}

func TestInitializePlayerCountLimitsSeats(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	require.NoError(t, s.Initialize(Config{PlayerCount: 2, StartingScore: 101, PlayerNames: []string{"A", "B", "C"}}))
	assert.Len(t, s.Snapshot().Players, 2)
}

func TestInitializeRejectsInvalidConfiguration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "one player", cfg: Config{StartingScore: 180, PlayerNames: []string{"Alice"}}},
		{name: "blank names", cfg: Config{StartingScore: 180, PlayerNames: []string{"Alice", "  "}}},
		{name: "zero score", cfg: Config{StartingScore: 0, PlayerNames: []string{"A", "B"}}},
		{name: "negative score", cfg: Config{StartingScore: -5, PlayerNames: []string{"A", "B"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSession(t)
			err := s.Initialize(tt.cfg)
			require.ErrorIs(t, err, ErrInvalidConfiguration)
			assert.Equal(t, NotStarted, s.State())
			assert.Empty(t, s.Snapshot().Players)
		})
	}
}

func TestInitializeFailureKeepsRunningSession(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 180, "Alice", "Bob")
	playTotals(t, s, 60)

	require.ErrorIs(t, s.Initialize(Config{StartingScore: 180, PlayerNames: []string{"Solo"}}), ErrInvalidConfiguration)
	assert.Equal(t, 120, player(t, s, 0).Round.Score)
	assert.Equal(t, InProgress, s.State())
}

func TestUpdatePlayerScoreRecordsTurnAndRotates(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 180, "Alice", "Bob", "Carol")

	v := ValidateScore(180, 100)
	require.NoError(t, s.UpdatePlayerScore(0, v.NewScore, []int{60, 20, 20}, v.Bust))

	snap := s.Snapshot()
	alice := snap.Players[0]
	assert.Equal(t, 80, alice.Round.Score)
	assert.Equal(t, []int{180, 80}, alice.Round.ScoreHistory)
	require.Len(t, alice.Round.Turns, 1)
	assert.Equal(t, TurnRecord{
		Darts:         []int{60, 20, 20},
		PreviousScore: 180,
		NewScore:      80,
		Timestamp:     testEpoch,
	}, alice.Round.Turns[0])
	assert.Equal(t, 1, snap.CurrentPlayer)
	require.Len(t, snap.History, 1)
	assert.Equal(t, 0, snap.History[0].PlayerID)
	assert.Nil(t, snap.Winner)

	// Other players untouched.
	assert.Equal(t, []int{180}, snap.Players[1].Round.ScoreHistory)
	assert.Equal(t, []int{180}, snap.Players[2].Round.ScoreHistory)
}

func TestRotationWraps(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 501, "A", "B", "C")
	playTotals(t, s, 10, 10, 10)
	assert.Equal(t, 0, s.Snapshot().CurrentPlayer)
	playTotals(t, s, 10)
	assert.Equal(t, 1, s.Snapshot().CurrentPlayer)
}

func TestUpdatePlayerScoreRejectsInconsistentScore(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 180, "Alice", "Bob")

	require.ErrorIs(t, s.UpdatePlayerScore(0, 100, []int{60}, false), ErrInvalidTurn)
	require.ErrorIs(t, s.UpdatePlayerScore(0, 120, []int{60}, true), ErrInvalidTurn)
	require.ErrorIs(t, s.UpdatePlayerScore(0, 180, nil, false), ErrInvalidTurn)

	snap := s.Snapshot()
	assert.Empty(t, snap.History)
	assert.Equal(t, 180, snap.Players[0].Round.Score)
}

func TestUpdatePlayerScoreUnknownPlayerIsNoop(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 180, "Alice", "Bob")
	before := s.Snapshot()

	require.NoError(t, s.UpdatePlayerScore(7, 120, []int{60}, false))
	require.NoError(t, s.UpdatePlayerScore(-1, 120, []int{60}, false))

	assert.Equal(t, before, s.Snapshot())
}

func TestBustTwoStep(t *testing.T) {
	t.Parallel()

	// Alice sits on 50 after a 130, Bob throws a blank.
	s, _ := startSession(t, 180, "Alice", "Bob")
	playTotals(t, s, 130, 0)

	v := ValidateScore(50, 60)
	require.True(t, v.Bust)
	require.NoError(t, s.AddPenalty(0, 5, ReasonBust))
	require.NoError(t, s.UpdatePlayerScore(0, v.NewScore, []int{60}, true))

	alice := player(t, s, 0)
	assert.Equal(t, 50, alice.Round.Score)
	last := alice.Round.Turns[len(alice.Round.Turns)-1]
	assert.True(t, last.Bust)
	assert.Equal(t, 50, last.PreviousScore)
	assert.Equal(t, 50, last.NewScore)
	require.Len(t, alice.Ledger.Records, 1)
	assert.Equal(t, ReasonBust, alice.Ledger.Records[0].Reason)
	assert.Equal(t, 5.0, alice.Ledger.Total)
	assert.Equal(t, 1, s.Snapshot().CurrentPlayer)
}

func TestSubmitTurnBustChargesPenaltyOnce(t *testing.T) {
	t.Parallel()

	var events []EventType
	s, _ := newTestSession(t, WithSubscriber(func(e Event, _ Snapshot) { events = append(events, e.Type) }))
	require.NoError(t, s.Initialize(Config{StartingScore: 50, PlayerNames: []string{"Alice", "Bob"}}))

	require.NoError(t, s.SubmitTurn([]int{20, 20, 20}))

	snap := s.Snapshot()
	alice := snap.Players[0]
	assert.Equal(t, 50, alice.Round.Score)
	require.Len(t, alice.Round.Turns, 1)
	assert.True(t, alice.Round.Turns[0].Bust)
	require.Len(t, alice.Ledger.Records, 1)
	assert.Equal(t, PenaltyRecord{Seq: 1, Amount: DefaultBustPenalty, Reason: ReasonBust, Timestamp: testEpoch}, alice.Ledger.Records[0])
	assert.Equal(t, 1, snap.CurrentPlayer)
	assert.Equal(t, []EventType{EventTypeInitialized, EventTypeBust}, events)
}

func TestSubmitTurnCustomBustPenalty(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, WithBustPenalty(0))
	require.NoError(t, s.Initialize(Config{StartingScore: 10, PlayerNames: []string{"A", "B"}}))
	require.NoError(t, s.SubmitTurn([]int{20}))
	assert.Empty(t, player(t, s, 0).Ledger.Records)
}

func TestSubmitTurnValidatesDarts(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 180, "Alice", "Bob")
	require.ErrorIs(t, s.SubmitTurn([]int{61}), ErrInvalidTurn)
	require.ErrorIs(t, s.SubmitTurn([]int{20, 20, 20, 20}), ErrInvalidTurn)
	require.ErrorIs(t, s.SubmitTotal(181), ErrInvalidTurn)
	require.ErrorIs(t, s.SubmitTotal(-1), ErrInvalidTurn)
	assert.Empty(t, s.Snapshot().History)
}

func TestSubmitBeforeStart(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	require.ErrorIs(t, s.SubmitTurn([]int{20}), ErrNotInProgress)
	_, ok := s.CurrentPlayer()
	assert.False(t, ok)
}

func TestWinConvertsRemainingScores(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 180, "Alice", "Bob", "Carol")
	playTotals(t, s, 100, 40, 180) // Carol checks out at once
	// Carol started at 180 and threw 180.

	snap := s.Snapshot()
	require.NotNil(t, snap.Winner)
	assert.Equal(t, PlayerRef{ID: 2, Name: "Carol"}, *snap.Winner)
	assert.Equal(t, RoundWon, snap.State)
	assert.Equal(t, 2, snap.CurrentPlayer, "index stays on the winner")

	alice, bob, carol := snap.Players[0], snap.Players[1], snap.Players[2]
	require.Len(t, alice.Ledger.Records, 1)
	assert.Equal(t, ReasonRemainingScore, alice.Ledger.Records[0].Reason)
	assert.Equal(t, 80.0, alice.Ledger.Total)
	require.Len(t, bob.Ledger.Records, 1)
	assert.Equal(t, 140.0, bob.Ledger.Total)
	assert.Empty(t, carol.Ledger.Records)

	require.Len(t, snap.History, 3)
	assert.Equal(t, []Conversion{{PlayerID: 0, Seq: 1}, {PlayerID: 1, Seq: 2}}, snap.History[2].Conversions)
}

func TestOnlyExactZeroWins(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 40, "Alice", "Bob")
	playTotals(t, s, 39, 39) // both on 1, nobody wins by being lowest
	assert.Nil(t, s.Snapshot().Winner)
	playTotals(t, s, 2) // bust
	assert.Nil(t, s.Snapshot().Winner)
	playTotals(t, s, 1)

	snap := s.Snapshot()
	require.NotNil(t, snap.Winner)
	assert.Equal(t, 1, snap.Winner.ID)
	for _, p := range snap.Players {
		if p.Round.Score == 0 {
			assert.Equal(t, snap.Winner.ID, p.ID)
		}
	}
}

func TestNoTurnsAfterWin(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 60, "Alice", "Bob")
	playTotals(t, s, 60)
	require.ErrorIs(t, s.SubmitTotal(10), ErrNotInProgress)
	require.ErrorIs(t, s.UpdatePlayerScore(1, 50, []int{10}, false), ErrNotInProgress)
	assert.Len(t, s.Snapshot().History, 1)
}

func TestScenario180Checkout(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, 180, "A", "B")
	require.NoError(t, s.SubmitTotal(180))

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Players[0].Round.Score)
	require.NotNil(t, snap.Winner)
	assert.Equal(t, 0, snap.Winner.ID)
	require.Len(t, snap.Players[1].Ledger.Records, 1)
	assert.Equal(t, 180.0, snap.Players[1].Ledger.Records[0].Amount)
	assert.Equal(t, ReasonRemainingScore, snap.Players[1].Ledger.Records[0].Reason)

	require.NoError(t, s.StartNewRound())
	snap = s.Snapshot()
	assert.Equal(t, 180, snap.Players[0].Round.Score)
	assert.Equal(t, 180, snap.Players[1].Round.Score)
	assert.Equal(t, 1, snap.Stats.PlayerWins[0])
	assert.Equal(t, 180.0, snap.Players[1].Ledger.Total)
}

func TestTurnTimestampsFollowClock(t *testing.T) {
	t.Parallel()

	s, clock := startSession(t, 180, "A", "B")
	clock.Advance(90 * time.Second)
	playTotals(t, s, 45)

	turn := player(t, s, 0).Round.Turns[0]
	assert.Equal(t, testEpoch.Add(90*time.Second), turn.Timestamp)
}

func TestReset(t *testing.T) {
	t.Parallel()

	var last Event
	s, _ := newTestSession(t, WithSubscriber(func(e Event, _ Snapshot) { last = e }))
	require.NoError(t, s.Initialize(Config{StartingScore: 60, PlayerNames: []string{"A", "B"}}))
	playTotals(t, s, 60)
	require.NoError(t, s.StartNewRound())
	require.NoError(t, s.AddPenalty(1, 3, ReasonMissedBoard))

	s.Reset()

	snap := s.Snapshot()
	assert.Equal(t, NotStarted, snap.State)
	assert.Empty(t, snap.ID)
	assert.Empty(t, snap.Players)
	assert.Empty(t, snap.History)
	assert.Empty(t, snap.RoundResults)
	assert.Equal(t, 1, snap.CurrentRound)
	assert.Zero(t, snap.Stats.TotalRounds)
	assert.Empty(t, snap.Stats.PlayerWins)
	assert.Nil(t, snap.Winner)
	assert.Equal(t, EventTypeReset, last.Type)
}
