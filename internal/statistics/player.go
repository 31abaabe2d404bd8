package statistics

import "time"

// RecentWindow is how many of a player's latest games feed the recent figures.
const RecentWindow = 10

// GameOutcome is one recorded game seen from a single player. Score is the
// number of points taken off the starting score.
type GameOutcome struct {
	GameID     string    `json:"gameId"`
	RecordedAt time.Time `json:"recordedAt"`
	Score      int       `json:"score"`
	Penalties  float64   `json:"penalties"`
	Won        bool      `json:"won"`
}

// Totals are the running aggregates kept on a player profile.
type Totals struct {
	TotalGames     int     `json:"totalGames"`
	TotalWins      int     `json:"totalWins"`
	TotalScore     int     `json:"totalScore"`
	TotalPenalties float64 `json:"totalPenalties"`
	BestGame       int     `json:"bestGame"`
}

// Add folds one game into the totals.
func (t *Totals) Add(o GameOutcome) {
	t.TotalGames++
	if o.Won {
		t.TotalWins++
	}
	t.TotalScore += o.Score
	t.TotalPenalties += o.Penalties
	t.BestGame = max(t.BestGame, o.Score)
}

// AverageScore is the mean score per game.
func (t Totals) AverageScore() float64 {
	if t.TotalGames == 0 {
		return 0
	}
	return float64(t.TotalScore) / float64(t.TotalGames)
}

// WinRate is the percentage of games won.
func (t Totals) WinRate() float64 {
	if t.TotalGames == 0 {
		return 0
	}
	return float64(t.TotalWins) / float64(t.TotalGames) * 100
}

// PlayerStatistics is the read model shown for one player.
type PlayerStatistics struct {
	Name string `json:"name"`
	Totals
	AverageScore   float64       `json:"averageScore"`
	WinRate        float64       `json:"winRate"`
	RecentGames    []GameOutcome `json:"recentGames"`
	RecentAverage  float64       `json:"recentAverage"`
	Improvement    int           `json:"improvement"`
	GamesThisMonth int           `json:"gamesThisMonth"`
}

// Summarize combines profile totals with the player's game history, newest
// first. Only the first RecentWindow games count as recent; games this
// month are counted in now's location.
func Summarize(name string, totals Totals, history []GameOutcome, now time.Time) PlayerStatistics {
	ps := PlayerStatistics{
		Name:         name,
		Totals:       totals,
		AverageScore: totals.AverageScore(),
		WinRate:      totals.WinRate(),
	}

	recent := history[:min(len(history), RecentWindow)]
	ps.RecentGames = append([]GameOutcome{}, recent...)
	if len(recent) > 0 {
		sum := 0
		for _, o := range recent {
			sum += o.Score
		}
		ps.RecentAverage = float64(sum) / float64(len(recent))
		ps.Improvement = recent[0].Score - recent[len(recent)-1].Score
	}

	year, month, _ := now.Date()
	for _, o := range history {
		y, m, _ := o.RecordedAt.In(now.Location()).Date()
		if y == year && m == month {
			ps.GamesThisMonth++
		}
	}
	return ps
}
