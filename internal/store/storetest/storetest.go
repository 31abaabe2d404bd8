// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Epoch is the mock clock start used by the suite.
var Epoch = time.Date(2025, time.March, 14, 19, 30, 0, 0, time.UTC)

// Factory opens an empty store. Each call must return an independent store.
type Factory func(t *testing.T, opts ...store.Option) store.Store

type fixture struct {
	store store.Store
	clock *quartz.Mock
	ids   int
	open  Factory
}

func newFixture(t *testing.T, open Factory) *fixture {
	t.Helper()
	f := &fixture{clock: quartz.NewMock(t), open: open}
	f.clock.Set(Epoch)
	f.store = f.reopen(t)
	return f
}

func (f *fixture) reopen(t *testing.T) store.Store {
	return f.open(t,
		store.WithClock(f.clock),
		store.WithIDGenerator(func() string {
			f.ids++
			return fmt.Sprintf("game_%04d", f.ids)
		}),
	)
}

// NewSession seats names on a session driven by clock.
func NewSession(t *testing.T, clock quartz.Clock, startingScore int, names ...string) *game.Session {
	t.Helper()
	s := game.NewSession(
		game.WithClock(clock),
		game.WithIDGenerator(func() string { return "session_1" }),
	)
	require.NoError(t, s.Initialize(game.Config{StartingScore: startingScore, PlayerNames: names}))
	return s
}

// Play submits whole-turn totals in seat order.
func Play(t *testing.T, s *game.Session, totals ...int) {
	t.Helper()
	for _, total := range totals {
		require.NoError(t, s.SubmitTotal(total))
	}
}

// Run exercises a backend.
func Run(t *testing.T, open Factory) {
	t.Run("RecordCompletedRound", func(t *testing.T) {
		t.Parallel()
		testRecord(t, open)
	})
	t.Run("RejectsUnfinishedRound", func(t *testing.T) {
		t.Parallel()
		testRejectsUnfinished(t, open)
	})
	t.Run("PlayerStatistics", func(t *testing.T) {
		t.Parallel()
		testPlayerStatistics(t, open)
	})
	t.Run("HistoryLimit", func(t *testing.T) {
		t.Parallel()
		testHistoryLimit(t, open)
	})
	t.Run("HistoryCap", func(t *testing.T) {
		t.Parallel()
		testHistoryCap(t, open)
	})
	t.Run("TrackEvent", func(t *testing.T) {
		t.Parallel()
		testTrackEvent(t, open)
	})
	t.Run("ExportImport", func(t *testing.T) {
		t.Parallel()
		testExportImport(t, open)
	})
	t.Run("Clear", func(t *testing.T) {
		t.Parallel()
		testClear(t, open)
	})
	t.Run("CancelledContext", func(t *testing.T) {
		t.Parallel()
		testCancelled(t, open)
	})
}

func testRecord(t *testing.T, open Factory) {
	ctx := context.Background()
	f := newFixture(t, open)

	s := NewSession(t, f.clock, 100, "Alice", "Bob", "Carol Ann")
	Play(t, s, 40, 120, 30) // Bob busts
	f.clock.Advance(2 * time.Minute)
	Play(t, s, 60) // Alice wins

	rec, err := f.store.RecordCompletedRound(ctx, s.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, store.GameRecord{
		ID:            "game_0001",
		RecordedAt:    Epoch.Add(2 * time.Minute),
		SessionID:     "session_1",
		Round:         1,
		StartingScore: 100,
		Winner:        "Alice",
		Duration:      2 * time.Minute,
		Players: []store.PlayerResult{
			{SeatID: 0, Key: "alice", Name: "Alice", FinalScore: 0, Score: 100, Penalties: 0, Turns: 2, Won: true},
			{SeatID: 1, Key: "bob", Name: "Bob", FinalScore: 100, Score: 0, Penalties: 105, Turns: 1},
			{SeatID: 2, Key: "carol_ann", Name: "Carol Ann", FinalScore: 70, Score: 30, Penalties: 70, Turns: 1},
		},
	}, rec)

	history, err := f.store.History(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, []store.GameRecord{rec}, history)

	profiles, err := f.store.Profiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "alice", profiles[0].Key)
	assert.Equal(t, 1, profiles[0].TotalWins)
	assert.Equal(t, "carol_ann", profiles[2].Key)
	assert.Equal(t, Epoch.Add(2*time.Minute), profiles[2].CreatedAt)

	analytics, err := f.store.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.TotalGames)
	assert.Equal(t, map[string]int{store.EventGameCompleted: 1}, analytics.Events)
	assert.Equal(t, Epoch.Add(2*time.Minute), analytics.LastActivity)
}

func testRejectsUnfinished(t *testing.T, open Factory) {
	ctx := context.Background()
	f := newFixture(t, open)

	s := NewSession(t, f.clock, 100, "A", "B")
	Play(t, s, 40)
	_, err := f.store.RecordCompletedRound(ctx, s.Snapshot())
	require.ErrorIs(t, err, game.ErrNoWinner)

	history, err := f.store.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func testPlayerStatistics(t *testing.T, open Factory) {
	ctx := context.Background()
	f := newFixture(t, open)

	_, err := f.store.ReadPlayerStatistics(ctx, "alice")
	require.ErrorIs(t, err, store.ErrNotFound)

	s := NewSession(t, f.clock, 100, "Alice", "Mary Jane")
	Play(t, s, 100) // Alice wins, Mary Jane scored 0
	_, err = f.store.RecordCompletedRound(ctx, s.Snapshot())
	require.NoError(t, err)
	require.NoError(t, s.StartNewRound())

	f.clock.Advance(time.Minute)
	Play(t, s, 40, 100) // Mary Jane wins, Alice scored 40
	_, err = f.store.RecordCompletedRound(ctx, s.Snapshot())
	require.NoError(t, err)

	stats, err := f.store.ReadPlayerStatistics(ctx, "Mary Jane")
	require.NoError(t, err)
	assert.Equal(t, "Mary Jane", stats.Name)
	assert.Equal(t, 2, stats.TotalGames)
	assert.Equal(t, 1, stats.TotalWins)
	assert.Equal(t, 100, stats.TotalScore)
	assert.Equal(t, 100, stats.BestGame)
	assert.Equal(t, 100.0, stats.TotalPenalties)
	assert.Equal(t, 50.0, stats.AverageScore)
	assert.Equal(t, 50.0, stats.WinRate)
	require.Len(t, stats.RecentGames, 2)
	assert.Equal(t, "game_0002", stats.RecentGames[0].GameID)
	assert.Equal(t, 100, stats.Improvement)
	assert.Equal(t, 2, stats.GamesThisMonth)

	stats, err = f.store.ReadPlayerStatistics(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 140, stats.TotalScore)
	assert.Equal(t, 60.0, stats.TotalPenalties)
	assert.Equal(t, -60, stats.Improvement)
	assert.Equal(t, 70.0, stats.RecentAverage)
}

func recordGames(t *testing.T, f *fixture, n int) []store.GameRecord {
	t.Helper()
	s := NewSession(t, f.clock, 20, "A", "B")
	Play(t, s, 20)
	snap := s.Snapshot()

	records := make([]store.GameRecord, n)
	for i := range records {
		f.clock.Advance(time.Second)
		rec, err := f.store.RecordCompletedRound(context.Background(), snap)
		require.NoError(t, err)
		records[i] = rec
	}
	return records
}

func testHistoryLimit(t *testing.T, open Factory) {
	f := newFixture(t, open)
	records := recordGames(t, f, 3)

	history, err := f.store.History(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, records[2].ID, history[0].ID)
	assert.Equal(t, records[1].ID, history[1].ID)
}

func testHistoryCap(t *testing.T, open Factory) {
	ctx := context.Background()
	f := newFixture(t, open)
	records := recordGames(t, f, store.HistoryLimit+5)

	history, err := f.store.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, store.HistoryLimit)
	assert.Equal(t, records[len(records)-1].ID, history[0].ID)
	assert.Equal(t, records[5].ID, history[len(history)-1].ID)

	stats, err := f.store.ReadPlayerStatistics(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, store.HistoryLimit+5, stats.TotalGames, "profiles outlive the history cap")

	analytics, err := f.store.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.HistoryLimit+5, analytics.TotalGames)
}

func testTrackEvent(t *testing.T, open Factory) {
	ctx := context.Background()
	f := newFixture(t, open)

	require.NoError(t, f.store.TrackEvent(ctx, "undo"))
	f.clock.Advance(time.Second)
	require.NoError(t, f.store.TrackEvent(ctx, "undo"))
	require.NoError(t, f.store.TrackEvent(ctx, "penalty_added"))
	require.Error(t, f.store.TrackEvent(ctx, "  "))

	analytics, err := f.store.Analytics(ctx)
	require.NoError(t, err)
	assert.Zero(t, analytics.TotalGames)
	assert.Equal(t, map[string]int{"undo": 2, "penalty_added": 1}, analytics.Events)
	assert.Equal(t, Epoch.Add(time.Second), analytics.LastActivity)
}

func testExportImport(t *testing.T, open Factory) {
	ctx := context.Background()
	f := newFixture(t, open)
	recordGames(t, f, 2)
	require.NoError(t, f.store.TrackEvent(ctx, "undo"))

	exported, err := f.store.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.ExportVersion, exported.Version)
	assert.Len(t, exported.History, 2)
	assert.Len(t, exported.Profiles, 2)

	other := f.reopen(t)
	require.NoError(t, other.Import(ctx, exported))

	reexported, err := other.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, exported, reexported)

	stats, err := other.ReadPlayerStatistics(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalWins)

	bad := exported
	bad.Version = "2.0"
	require.ErrorIs(t, other.Import(ctx, bad), store.ErrUnsupportedVersion)

	after, err := other.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, exported, after, "failed import leaves data alone")
}

func testClear(t *testing.T, open Factory) {
	ctx := context.Background()
	f := newFixture(t, open)
	recordGames(t, f, 2)

	require.NoError(t, f.store.Clear(ctx))

	history, err := f.store.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
	profiles, err := f.store.Profiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)
	analytics, err := f.store.Analytics(ctx)
	require.NoError(t, err)
	assert.Zero(t, analytics.TotalGames)
	assert.Empty(t, analytics.Events)
	_, err = f.store.ReadPlayerStatistics(ctx, "a")
	require.ErrorIs(t, err, store.ErrNotFound)

	recordGames(t, f, 1)
	history, err = f.store.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func testCancelled(t *testing.T, open Factory) {
	f := newFixture(t, open)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.store.History(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, f.store.TrackEvent(ctx, "undo"), context.Canceled)
	_, err = f.store.ReadPlayerStatistics(ctx, "a")
	require.ErrorIs(t, err, context.Canceled)
}
