// Package match serialises access to one game session and persists every
// finished round before the board is cleared.
package match

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/statistics"
	"github.com/lox/coindart/internal/store"
)

var (
	// ErrStorageDisabled is returned by reads that need a store.
	ErrStorageDisabled = errors.New("storage is disabled")
	// ErrUnknownPreset is returned for a penalty preset key that is not configured.
	ErrUnknownPreset = errors.New("unknown penalty preset")
)

// Match owns a session for concurrent callers.
type Match struct {
	mu            sync.Mutex
	session       *game.Session
	store         store.Store
	presets       []game.PenaltyPreset
	startingScore int
	logger        *log.Logger
}

// Option configures a Match.
type Option func(*Match)

// WithStore persists finished rounds and usage events. Without one the
// match keeps nothing beyond the session.
func WithStore(s store.Store) Option {
	return func(m *Match) {
		m.store = s
	}
}

// WithPresets sets the penalty presets offered to players.
func WithPresets(presets []game.PenaltyPreset) Option {
	return func(m *Match) {
		m.presets = append([]game.PenaltyPreset(nil), presets...)
	}
}

// WithStartingScore sets the score used when Start is given none.
func WithStartingScore(score int) Option {
	return func(m *Match) {
		m.startingScore = score
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Match) {
		m.logger = logger
	}
}

// New wraps session.
func New(session *game.Session, opts ...Option) *Match {
	m := &Match{
		session:       session,
		presets:       game.DefaultPenaltyPresets,
		startingScore: game.DefaultStartingScore,
		logger:        log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithPrefix("match")
	if m.store != nil {
		session.Subscribe(m.track)
	}
	return m
}

// track counts every transition as a usage event.
func (m *Match) track(e game.Event, _ game.Snapshot) {
	if err := m.store.TrackEvent(context.Background(), e.Type.String()); err != nil {
		m.logger.Warn("Failed to track event", "event", e.Type, "error", err)
	}
}

// Subscribe registers a transition callback. It runs with the match locked
// and must not call back into the match.
func (m *Match) Subscribe(sub game.Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Subscribe(sub)
}

// Snapshot returns the current session state.
func (m *Match) Snapshot() game.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Snapshot()
}

// Presets returns the configured penalty presets.
func (m *Match) Presets() []game.PenaltyPreset {
	return append([]game.PenaltyPreset(nil), m.presets...)
}

// Limits returns the input ranges enforced on turns.
func (m *Match) Limits() game.TurnLimits {
	return m.session.Limits()
}

// Start seats players. A zero starting score uses the match default.
func (m *Match) Start(names []string, startingScore int) (game.Snapshot, error) {
	if startingScore == 0 {
		startingScore = m.startingScore
	}
	return m.apply(func() error {
		return m.session.Initialize(game.Config{StartingScore: startingScore, PlayerNames: names})
	})
}

// SubmitTurn scores the current player's darts.
func (m *Match) SubmitTurn(darts []int) (game.Snapshot, error) {
	return m.apply(func() error {
		return m.session.SubmitTurn(darts)
	})
}

// SubmitTotal scores the current player's turn total.
func (m *Match) SubmitTotal(total int) (game.Snapshot, error) {
	return m.apply(func() error {
		return m.session.SubmitTotal(total)
	})
}

// AddPenalty charges a custom amount.
func (m *Match) AddPenalty(playerID int, amount float64, reason string) (game.Snapshot, error) {
	return m.apply(func() error {
		return m.session.AddPenalty(playerID, amount, game.PenaltyReason(strings.TrimSpace(reason)))
	})
}

// AddPreset charges a configured preset.
func (m *Match) AddPreset(playerID int, key string) (game.Snapshot, error) {
	preset, ok := game.FindPreset(m.presets, key)
	if !ok {
		return game.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownPreset, key)
	}
	return m.apply(func() error {
		return m.session.AddPenalty(playerID, preset.Amount, preset.Reason)
	})
}

// UndoPenalty removes a player's latest penalty.
func (m *Match) UndoPenalty(playerID int) (game.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	applied := m.session.UndoPenalty(playerID)
	return m.session.Snapshot(), applied
}

// Undo takes back the latest turn.
func (m *Match) Undo() (game.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	applied := m.session.UndoLastAction()
	return m.session.Snapshot(), applied
}

// NextRound records the won round and deals the next one. Nothing changes
// when recording fails.
func (m *Match) NextRound(ctx context.Context) (store.GameRecord, game.Snapshot, error) {
	return m.finishRound(ctx, m.session.StartNewRound)
}

// End records the won round and closes the session.
func (m *Match) End(ctx context.Context) (store.GameRecord, game.Snapshot, error) {
	return m.finishRound(ctx, m.session.End)
}

// apply runs one transition and returns the state it produced, read before
// the lock is released so no other caller's change can interleave.
func (m *Match) apply(transition func() error) (game.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := transition(); err != nil {
		return game.Snapshot{}, err
	}
	return m.session.Snapshot(), nil
}

func (m *Match) finishRound(ctx context.Context, next func() error) (store.GameRecord, game.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.record(ctx)
	if err != nil {
		return store.GameRecord{}, game.Snapshot{}, err
	}
	if err := next(); err != nil {
		return store.GameRecord{}, game.Snapshot{}, err
	}
	return rec, m.session.Snapshot(), nil
}

func (m *Match) record(ctx context.Context) (store.GameRecord, error) {
	if state := m.session.State(); state != game.RoundWon {
		return store.GameRecord{}, fmt.Errorf("%w: state is %s", game.ErrNoWinner, state)
	}
	if m.store == nil {
		return store.GameRecord{}, nil
	}
	rec, err := m.store.RecordCompletedRound(ctx, m.session.Snapshot())
	if err != nil {
		m.logger.Error("Failed to record round", "error", err)
		return store.GameRecord{}, fmt.Errorf("record round: %w", err)
	}
	return rec, nil
}

// Reset discards the session. Unrecorded rounds are lost.
func (m *Match) Reset() game.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Reset()
	return m.session.Snapshot()
}

// Statistics reads a player's stored statistics.
func (m *Match) Statistics(ctx context.Context, key string) (statistics.PlayerStatistics, error) {
	if m.store == nil {
		return statistics.PlayerStatistics{}, ErrStorageDisabled
	}
	return m.store.ReadPlayerStatistics(ctx, key)
}

// History reads recorded games, newest first.
func (m *Match) History(ctx context.Context, limit int) ([]store.GameRecord, error) {
	if m.store == nil {
		return nil, ErrStorageDisabled
	}
	return m.store.History(ctx, limit)
}

// TurnStats summarises a player's turns in the current round.
func (m *Match) TurnStats(playerID int) (*statistics.TurnStats, bool) {
	snap := m.Snapshot()
	p, ok := snap.Player(playerID)
	if !ok {
		return nil, false
	}
	return statistics.FromTurns(p.Round.Turns, m.Limits()), true
}
