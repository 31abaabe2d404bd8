package store

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/statistics"
)

// PlayerResult is one participant's line in a game record.
type PlayerResult struct {
	SeatID     int     `json:"seatId"`
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	FinalScore int     `json:"finalScore"`
	Score      int     `json:"score"`
	Penalties  float64 `json:"penalties"`
	Turns      int     `json:"turns"`
	Won        bool    `json:"won"`
}

// GameRecord is one completed round as stored in the history.
type GameRecord struct {
	ID            string         `json:"id"`
	RecordedAt    time.Time      `json:"recordedAt"`
	SessionID     string         `json:"sessionId"`
	Round         int            `json:"round"`
	StartingScore int            `json:"startingScore"`
	Winner        string         `json:"winner"`
	Players       []PlayerResult `json:"players"`
	Duration      time.Duration  `json:"duration"`
}

// Player returns the result for a profile key.
func (r GameRecord) Player(key string) (PlayerResult, bool) {
	for _, p := range r.Players {
		if p.Key == key {
			return p, true
		}
	}
	return PlayerResult{}, false
}

// Outcome returns the record as seen by one player.
func (r GameRecord) Outcome(key string) (statistics.GameOutcome, bool) {
	p, ok := r.Player(key)
	if !ok {
		return statistics.GameOutcome{}, false
	}
	return statistics.GameOutcome{
		GameID:     r.ID,
		RecordedAt: r.RecordedAt,
		Score:      p.Score,
		Penalties:  p.Penalties,
		Won:        p.Won,
	}, true
}

var whitespace = regexp.MustCompile(`\s+`)

// ProfileKey derives the profile key for a player name: lower case with
// whitespace runs replaced by underscores.
func ProfileKey(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// BuildGameRecord turns a snapshot holding a won round into a record.
// Duration runs from the previous round result, or from the session start
// for the first round. Penalties count only what was charged since the
// previous round; ledgers themselves span the session.
func BuildGameRecord(snap game.Snapshot, id string, now time.Time) (GameRecord, error) {
	if snap.Winner == nil {
		return GameRecord{}, fmt.Errorf("%w: state is %s", game.ErrNoWinner, snap.State)
	}

	round := snap.CurrentRound
	started := snap.StartedAt
	results := snap.RoundResults
	if snap.State == game.Ended && len(results) > 0 {
		// End already closed the round being recorded.
		results = results[:len(results)-1]
	}
	carried := map[int]float64{}
	if n := len(results); n > 0 {
		started = results[n-1].Timestamp
		for _, standing := range results[n-1].Players {
			carried[standing.ID] = standing.Penalties
		}
	}

	rec := GameRecord{
		ID:            id,
		RecordedAt:    now,
		SessionID:     snap.ID,
		Round:         round,
		StartingScore: snap.StartingScore,
		Winner:        snap.Winner.Name,
		Players:       make([]PlayerResult, len(snap.Players)),
	}
	if !started.IsZero() && now.After(started) {
		rec.Duration = now.Sub(started)
	}
	for i, p := range snap.Players {
		rec.Players[i] = PlayerResult{
			SeatID:     p.ID,
			Key:        ProfileKey(p.Name),
			Name:       p.Name,
			FinalScore: p.Round.Score,
			Score:      snap.StartingScore - p.Round.Score,
			Penalties:  max(0, p.Ledger.Total-carried[p.ID]),
			Turns:      len(p.Round.Turns),
			Won:        p.ID == snap.Winner.ID,
		}
	}
	return rec, nil
}
