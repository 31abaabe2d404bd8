package game

import (
	"sort"
	"time"
)

// PlayerRef names a seat without carrying its state.
type PlayerRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Conversion points at a Remaining Score penalty created by a winning turn.
type Conversion struct {
	PlayerID int    `json:"playerId"`
	Seq      uint64 `json:"seq"`
}

// HistoryEntry is one turn on the session undo stack. It refers to the
// player by id; undo is applied to the live player record.
type HistoryEntry struct {
	PlayerID      int          `json:"playerId"`
	Darts         []int        `json:"darts"`
	PreviousScore int          `json:"previousScore"`
	NewScore      int          `json:"newScore"`
	Bust          bool         `json:"bust"`
	Timestamp     time.Time    `json:"timestamp"`
	Conversions   []Conversion `json:"conversions,omitempty"`
}

// RoundStanding is a player's line in a recorded round.
type RoundStanding struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	FinalScore int     `json:"finalScore"`
	Penalties  float64 `json:"penalties"`
	Turns      int     `json:"turns"`
}

// RoundResult is the immutable record of a finished round.
type RoundResult struct {
	Round     int             `json:"round"`
	Winner    PlayerRef       `json:"winner"`
	Players   []RoundStanding `json:"players"`
	Timestamp time.Time       `json:"timestamp"`
}

// SessionStats aggregates finished rounds.
type SessionStats struct {
	TotalRounds int         `json:"totalRounds"`
	PlayerWins  map[int]int `json:"playerWins"`
}

// Wins returns the number of rounds won by the given seat.
func (s SessionStats) Wins(playerID int) int {
	return s.PlayerWins[playerID]
}

// Snapshot is a deep copy of the session taken after a transition. Holding
// on to it never observes later changes.
type Snapshot struct {
	ID            string         `json:"id"`
	State         State          `json:"state"`
	StartingScore int            `json:"startingScore"`
	Players       []Player       `json:"players"`
	CurrentPlayer int            `json:"currentPlayer"`
	Winner        *PlayerRef     `json:"winner"`
	History       []HistoryEntry `json:"history"`
	CurrentRound  int            `json:"currentRound"`
	RoundResults  []RoundResult  `json:"roundResults"`
	Stats         SessionStats   `json:"stats"`
	StartedAt     time.Time      `json:"startedAt"`
	TakenAt       time.Time      `json:"takenAt"`
}

// Player returns the seat with the given id.
func (s Snapshot) Player(id int) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Current returns the player whose turn it is. There is none before the
// session starts.
func (s Snapshot) Current() (Player, bool) {
	if !s.State.Started() || s.CurrentPlayer < 0 || s.CurrentPlayer >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[s.CurrentPlayer], true
}

// CanUndo reports whether a turn can be taken back.
func (s Snapshot) CanUndo() bool {
	return len(s.History) > 0 && (s.State == InProgress || s.State == RoundWon)
}

// TotalPenalties sums every ledger.
func (s Snapshot) TotalPenalties() float64 {
	total := 0.0
	for _, p := range s.Players {
		total += p.Ledger.Total
	}
	return total
}

// PenaltyStandings orders players by ascending penalty total; the player
// owing least leads. Ties keep seat order.
func (s Snapshot) PenaltyStandings() []Player {
	standings := append([]Player(nil), s.Players...)
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Ledger.Total < standings[j].Ledger.Total
	})
	return standings
}

// SessionLeader returns the player with most round wins, ties going to the
// lower penalty total. There is no leader before the first round is won.
func (s Snapshot) SessionLeader() (PlayerRef, bool) {
	var (
		best  *Player
		bestW int
	)
	for i := range s.Players {
		p := &s.Players[i]
		w := s.Stats.Wins(p.ID)
		if w == 0 {
			continue
		}
		if best == nil || w > bestW || (w == bestW && p.Ledger.Total < best.Ledger.Total) {
			best, bestW = p, w
		}
	}
	if best == nil {
		return PlayerRef{}, false
	}
	return PlayerRef{ID: best.ID, Name: best.Name}, true
}
