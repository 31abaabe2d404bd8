package server

import (
	"fmt"

	"github.com/lox/coindart/internal/game"
)

// submitTurn applies a turn given as darts or as a single total.
func (s *Server) submitTurn(req TurnRequest) (game.Snapshot, error) {
	switch {
	case req.Total != nil && len(req.Darts) > 0:
		return game.Snapshot{}, fmt.Errorf("%w: send darts or a total, not both", game.ErrInvalidTurn)
	case req.Total != nil:
		return s.match.SubmitTotal(*req.Total)
	default:
		return s.match.SubmitTurn(req.Darts)
	}
}

// addPenalty charges a named preset, or a custom amount when no preset is given.
func (s *Server) addPenalty(req PenaltyRequest) (game.Snapshot, error) {
	if req.Preset != "" {
		if req.Amount != 0 {
			return game.Snapshot{}, fmt.Errorf("%w: send a preset or an amount, not both", game.ErrInvalidPenalty)
		}
		return s.match.AddPreset(req.PlayerID, req.Preset)
	}
	return s.match.AddPenalty(req.PlayerID, req.Amount, req.Reason)
}
