// Package sqlite provides a SQLite-backed store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/statistics"
	"github.com/lox/coindart/internal/store"
	"github.com/lox/coindart/internal/store/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists games, profiles and analytics in SQLite.
type Store struct {
	db     *sql.DB
	clock  quartz.Clock
	logger *log.Logger
	newID  func() string
}

var _ store.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string, opts ...store.Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	o := store.BuildOptions(opts...)

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	o.Logger.Debug("Opened sqlite store", "path", path)
	return &Store{db: db, clock: o.Clock, logger: o.Logger, newID: o.NewID}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordCompletedRound implements store.Store.
func (s *Store) RecordCompletedRound(ctx context.Context, snap game.Snapshot) (store.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return store.GameRecord{}, err
	}
	rec, err := store.BuildGameRecord(snap, s.newID(), s.clock.Now())
	if err != nil {
		return store.GameRecord{}, err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertGame(ctx, tx, rec); err != nil {
			return err
		}
		for _, result := range rec.Players {
			p, err := getProfile(ctx, tx, result.Key)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			p.Apply(rec, result)
			if err := putProfile(ctx, tx, p); err != nil {
				return err
			}
		}
		if err := trimHistory(ctx, tx); err != nil {
			return err
		}
		return trackEvent(ctx, tx, store.EventGameCompleted, rec.RecordedAt)
	})
	if err != nil {
		return store.GameRecord{}, err
	}
	s.logger.Info("Recorded game", "id", rec.ID, "round", rec.Round, "winner", rec.Winner)
	return rec, nil
}

// ReadPlayerStatistics implements store.Store.
func (s *Store) ReadPlayerStatistics(ctx context.Context, key string) (statistics.PlayerStatistics, error) {
	if err := ctx.Err(); err != nil {
		return statistics.PlayerStatistics{}, err
	}
	key = store.ProfileKey(key)
	p, err := getProfile(ctx, s.db, key)
	if err != nil {
		return statistics.PlayerStatistics{}, fmt.Errorf("player %q: %w", key, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.recorded_at, p.score, p.penalties, p.won
		   FROM game_players p
		   JOIN games g ON g.id = p.game_id
		  WHERE p.player_key = ?
		  ORDER BY g.recorded_at DESC, g.rowid DESC`,
		key,
	)
	if err != nil {
		return statistics.PlayerStatistics{}, fmt.Errorf("query player games: %w", err)
	}
	defer rows.Close()

	var outcomes []statistics.GameOutcome
	for rows.Next() {
		var (
			o          statistics.GameOutcome
			recordedAt int64
		)
		if err := rows.Scan(&o.GameID, &recordedAt, &o.Score, &o.Penalties, &o.Won); err != nil {
			return statistics.PlayerStatistics{}, fmt.Errorf("scan player game: %w", err)
		}
		o.RecordedAt = fromMillis(recordedAt)
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return statistics.PlayerStatistics{}, fmt.Errorf("iterate player games: %w", err)
	}
	return statistics.Summarize(p.Name, p.Totals, outcomes, s.clock.Now()), nil
}

// History implements store.Store.
func (s *Store) History(ctx context.Context, limit int) ([]store.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.recorded_at, g.session_id, g.round, g.starting_score, g.winner, g.duration_ms,
		        p.seat_id, p.player_key, p.name, p.final_score, p.score, p.penalties, p.turns, p.won
		   FROM (SELECT rowid AS seq, * FROM games ORDER BY recorded_at DESC, rowid DESC LIMIT ?) g
		   JOIN game_players p ON p.game_id = g.id
		  ORDER BY g.recorded_at DESC, g.seq DESC, p.seat_id`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	history := []store.GameRecord{}
	for rows.Next() {
		var (
			rec        store.GameRecord
			result     store.PlayerResult
			recordedAt int64
			durationMS int64
		)
		if err := rows.Scan(
			&rec.ID, &recordedAt, &rec.SessionID, &rec.Round, &rec.StartingScore, &rec.Winner, &durationMS,
			&result.SeatID, &result.Key, &result.Name, &result.FinalScore, &result.Score,
			&result.Penalties, &result.Turns, &result.Won,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if n := len(history); n == 0 || history[n-1].ID != rec.ID {
			rec.RecordedAt = fromMillis(recordedAt)
			rec.Duration = time.Duration(durationMS) * time.Millisecond
			history = append(history, rec)
		}
		last := &history[len(history)-1]
		last.Players = append(last.Players, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return history, nil
}

// Profiles implements store.Store.
func (s *Store) Profiles(ctx context.Context) ([]store.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []store.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

// TrackEvent implements store.Store.
func (s *Store) TrackEvent(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("event name is required")
	}
	now := s.clock.Now()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return trackEvent(ctx, tx, name, now)
	})
}

// Analytics implements store.Store.
func (s *Store) Analytics(ctx context.Context) (store.Analytics, error) {
	if err := ctx.Err(); err != nil {
		return store.Analytics{}, err
	}
	a := store.Analytics{Events: map[string]int{}}

	var lastActivity int64
	err := s.db.QueryRowContext(ctx, `SELECT total_games, last_activity FROM analytics WHERE id = 1`).
		Scan(&a.TotalGames, &lastActivity)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return a, nil
	case err != nil:
		return store.Analytics{}, fmt.Errorf("get analytics: %w", err)
	}
	a.LastActivity = fromMillis(lastActivity)

	rows, err := s.db.QueryContext(ctx, `SELECT name, count FROM analytics_events`)
	if err != nil {
		return store.Analytics{}, fmt.Errorf("query analytics events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return store.Analytics{}, fmt.Errorf("scan analytics event: %w", err)
		}
		a.Events[name] = count
	}
	if err := rows.Err(); err != nil {
		return store.Analytics{}, fmt.Errorf("iterate analytics events: %w", err)
	}
	return a, nil
}

// Export implements store.Store.
func (s *Store) Export(ctx context.Context) (store.Export, error) {
	profiles, err := s.Profiles(ctx)
	if err != nil {
		return store.Export{}, err
	}
	history, err := s.History(ctx, 0)
	if err != nil {
		return store.Export{}, err
	}
	analytics, err := s.Analytics(ctx)
	if err != nil {
		return store.Export{}, err
	}
	return store.Export{
		Version:    store.ExportVersion,
		ExportedAt: s.clock.Now(),
		Profiles:   profiles,
		History:    history,
		Analytics:  analytics,
	}, nil
}

// Import implements store.Store.
func (s *Store) Import(ctx context.Context, e store.Export) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := store.DatasetFromExport(e)
	if err != nil {
		return err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := clearAll(ctx, tx); err != nil {
			return err
		}
		for _, rec := range data.History {
			if err := insertGame(ctx, tx, rec); err != nil {
				return err
			}
		}
		for _, p := range data.SortedProfiles() {
			if err := putProfile(ctx, tx, p); err != nil {
				return err
			}
		}
		return putAnalytics(ctx, tx, data.Analytics)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Imported data", "games", len(data.History), "profiles", len(data.Profiles))
	return nil
}

// Clear implements store.Store.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.inTx(ctx, func(tx *sql.Tx) error { return clearAll(ctx, tx) }); err != nil {
		return err
	}
	s.logger.Info("Cleared all data")
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
