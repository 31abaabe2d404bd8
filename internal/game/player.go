package game

// RoundState holds everything about a player that a new round resets.
type RoundState struct {
	Score        int          `json:"score"`
	ScoreHistory []int        `json:"scoreHistory"`
	Turns        []TurnRecord `json:"turns"`
}

func newRoundState(startingScore int) RoundState {
	return RoundState{
		Score:        startingScore,
		ScoreHistory: []int{startingScore},
		Turns:        []TurnRecord{},
	}
}

func (r RoundState) clone() RoundState {
	turns := make([]TurnRecord, len(r.Turns))
	for i, t := range r.Turns {
		turns[i] = t.clone()
	}
	return RoundState{
		Score:        r.Score,
		ScoreHistory: append([]int(nil), r.ScoreHistory...),
		Turns:        turns,
	}
}

// Player is one seat at the board. Round is reset by StartNewRound, Ledger
// lives for the whole session.
type Player struct {
	ID     int        `json:"id"`
	Name   string     `json:"name"`
	Round  RoundState `json:"round"`
	Ledger Ledger     `json:"ledger"`
}

// Score returns the remaining score this round.
func (p *Player) Score() int {
	return p.Round.Score
}

// Penalties returns the session penalty total.
func (p *Player) Penalties() float64 {
	return p.Ledger.Total
}

func (p *Player) clone() Player {
	return Player{
		ID:     p.ID,
		Name:   p.Name,
		Round:  p.Round.clone(),
		Ledger: p.Ledger.clone(),
	}
}
