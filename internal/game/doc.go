// Package game implements the CoinDart session state machine.
//
// Every player counts down from a fixed starting score. A turn subtracts
// the total of up to three darts; overshooting zero is a bust, which leaves
// the score untouched and costs a penalty. Reaching exactly zero wins the
// round and turns every other player's remaining score into a penalty.
//
// # Basic Usage
//
//	s := game.NewSession(game.WithLogger(logger))
//	if err := s.Initialize(game.Config{
//	    StartingScore: 180,
//	    PlayerNames:   []string{"Alice", "Bob"},
//	}); err != nil {
//	    return err
//	}
//	_ = s.SubmitTurn([]int{60, 60, 60}) // Alice checks out
//	snap := s.Snapshot()                // snap.Winner is Alice
//	_ = s.StartNewRound()
//
// # Two-step turns
//
// Callers that drive validation themselves use ValidateScore followed by
// AddPenalty (on a bust) and UpdatePlayerScore. SubmitTurn does the same in
// one transition.
//
// # Histories
//
// Turns and penalties are kept apart. Each player's Round (score, score
// history, turns) resets with every new round; each player's Ledger
// (penalties) lasts the whole session. UndoLastAction walks the session turn
// stack and UndoPenalty walks a single ledger; neither touches the other
// unless UndoPolicy.RevertConversion is set.
//
// # Deterministic Testing
//
// Timestamps come from a quartz.Clock; pass quartz.NewMock(t) through
// WithClock to pin them.
package game
