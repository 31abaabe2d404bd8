package game

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2025, time.March, 14, 19, 30, 0, 0, time.UTC)

func newTestSession(t *testing.T, opts ...Option) (*Session, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(testEpoch)
	opts = append([]Option{
		WithClock(clock),
		WithIDGenerator(func() string { return "session_test" }),
	}, opts...)
	return NewSession(opts...), clock
}

func startSession(t *testing.T, startingScore int, names ...string) (*Session, *quartz.Mock) {
	t.Helper()
	s, clock := newTestSession(t)
	require.NoError(t, s.Initialize(Config{StartingScore: startingScore, PlayerNames: names}))
	return s, clock
}

// playTotals submits one whole-turn total per call, rotating seats.
func playTotals(t *testing.T, s *Session, totals ...int) {
	t.Helper()
	for _, total := range totals {
		require.NoError(t, s.SubmitTotal(total))
	}
}

func player(t *testing.T, s *Session, id int) Player {
	t.Helper()
	p, ok := s.Snapshot().Player(id)
	require.True(t, ok, "player %d missing", id)
	return p
}
