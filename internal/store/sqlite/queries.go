package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lox/coindart/internal/store"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

const profileColumns = `key, name, created_at, last_played,
	total_games, total_wins, total_score, total_penalties, best_game`

func scanProfile(row scanner) (store.Profile, error) {
	var (
		p                     store.Profile
		createdAt, lastPlayed int64
	)
	err := row.Scan(
		&p.Key, &p.Name, &createdAt, &lastPlayed,
		&p.TotalGames, &p.TotalWins, &p.TotalScore, &p.TotalPenalties, &p.BestGame,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Profile{}, store.ErrNotFound
		}
		return store.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	p.CreatedAt = fromMillis(createdAt)
	p.LastPlayed = fromMillis(lastPlayed)
	return p, nil
}

func getProfile(ctx context.Context, q querier, key string) (store.Profile, error) {
	return scanProfile(q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE key = ?`, key))
}

func putProfile(ctx context.Context, q querier, p store.Profile) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET
		   name = excluded.name,
		   created_at = excluded.created_at,
		   last_played = excluded.last_played,
		   total_games = excluded.total_games,
		   total_wins = excluded.total_wins,
		   total_score = excluded.total_score,
		   total_penalties = excluded.total_penalties,
		   best_game = excluded.best_game`,
		p.Key, p.Name, toMillis(p.CreatedAt), toMillis(p.LastPlayed),
		p.TotalGames, p.TotalWins, p.TotalScore, p.TotalPenalties, p.BestGame,
	)
	if err != nil {
		return fmt.Errorf("put profile %s: %w", p.Key, err)
	}
	return nil
}

func insertGame(ctx context.Context, q querier, rec store.GameRecord) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO games (id, recorded_at, session_id, round, starting_score, winner, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, toMillis(rec.RecordedAt), rec.SessionID, rec.Round, rec.StartingScore,
		rec.Winner, rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", rec.ID, err)
	}
	for _, p := range rec.Players {
		_, err := q.ExecContext(ctx,
			`INSERT INTO game_players (game_id, seat_id, player_key, name, final_score, score, penalties, turns, won)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, p.SeatID, p.Key, p.Name, p.FinalScore, p.Score, p.Penalties, p.Turns, p.Won,
		)
		if err != nil {
			return fmt.Errorf("insert game player %s/%d: %w", rec.ID, p.SeatID, err)
		}
	}
	return nil
}

// trimHistory drops everything past the newest store.HistoryLimit games.
func trimHistory(ctx context.Context, q querier) error {
	const keep = `SELECT id FROM games ORDER BY recorded_at DESC, rowid DESC LIMIT ?`
	if _, err := q.ExecContext(ctx,
		`DELETE FROM game_players WHERE game_id NOT IN (`+keep+`)`, store.HistoryLimit,
	); err != nil {
		return fmt.Errorf("trim game players: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`DELETE FROM games WHERE id NOT IN (`+keep+`)`, store.HistoryLimit,
	); err != nil {
		return fmt.Errorf("trim games: %w", err)
	}
	return nil
}

func trackEvent(ctx context.Context, q querier, name string, now time.Time) error {
	if _, err := q.ExecContext(ctx,
		`INSERT INTO analytics_events (name, count) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET count = count + 1`,
		name,
	); err != nil {
		return fmt.Errorf("track event %s: %w", name, err)
	}
	games := 0
	if name == store.EventGameCompleted {
		games = 1
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO analytics (id, total_games, last_activity) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   total_games = total_games + excluded.total_games,
		   last_activity = excluded.last_activity`,
		games, toMillis(now),
	); err != nil {
		return fmt.Errorf("update analytics: %w", err)
	}
	return nil
}

func putAnalytics(ctx context.Context, q querier, a store.Analytics) error {
	if _, err := q.ExecContext(ctx,
		`INSERT INTO analytics (id, total_games, last_activity) VALUES (1, ?, ?)`,
		a.TotalGames, toMillis(a.LastActivity),
	); err != nil {
		return fmt.Errorf("put analytics: %w", err)
	}
	for name, count := range a.Events {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO analytics_events (name, count) VALUES (?, ?)`, name, count,
		); err != nil {
			return fmt.Errorf("put analytics event %s: %w", name, err)
		}
	}
	return nil
}

func clearAll(ctx context.Context, q querier) error {
	for _, table := range []string{"game_players", "games", "profiles", "analytics_events", "analytics"} {
		if _, err := q.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
