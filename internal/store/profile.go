package store

import (
	"time"

	"github.com/lox/coindart/internal/statistics"
)

// Profile accumulates a player's results across sessions.
type Profile struct {
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	LastPlayed time.Time `json:"lastPlayed"`
	statistics.Totals
}

// Apply folds one game result into the profile.
func (p *Profile) Apply(rec GameRecord, result PlayerResult) {
	if p.Key == "" {
		p.Key = result.Key
		p.CreatedAt = rec.RecordedAt
	}
	p.Name = result.Name
	p.LastPlayed = rec.RecordedAt
	p.Totals.Add(statistics.GameOutcome{
		GameID:     rec.ID,
		RecordedAt: rec.RecordedAt,
		Score:      result.Score,
		Penalties:  result.Penalties,
		Won:        result.Won,
	})
}

// Analytics counts usage events.
type Analytics struct {
	TotalGames   int            `json:"totalGames"`
	Events       map[string]int `json:"events"`
	LastActivity time.Time      `json:"lastActivity"`
}

// Track counts one event. Completed games also bump TotalGames.
func (a *Analytics) Track(name string, now time.Time) {
	if a.Events == nil {
		a.Events = map[string]int{}
	}
	a.Events[name]++
	if name == EventGameCompleted {
		a.TotalGames++
	}
	a.LastActivity = now
}

// Clone returns a copy that shares no map with a.
func (a Analytics) Clone() Analytics {
	events := make(map[string]int, len(a.Events))
	for k, v := range a.Events {
		events[k] = v
	}
	a.Events = events
	return a
}

// Export is the portable form of a whole store.
type Export struct {
	Version    string       `json:"version"`
	ExportedAt time.Time    `json:"exportedAt"`
	Profiles   []Profile    `json:"profiles"`
	History    []GameRecord `json:"history"`
	Analytics  Analytics    `json:"analytics"`
}
