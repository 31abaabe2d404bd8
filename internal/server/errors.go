package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/match"
	"github.com/lox/coindart/internal/store"
)

// errorStatus maps domain errors to an HTTP status and a stable code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrInvalidConfiguration):
		return http.StatusBadRequest, "invalid_configuration"
	case errors.Is(err, game.ErrInvalidTurn):
		return http.StatusBadRequest, "invalid_turn"
	case errors.Is(err, game.ErrInvalidPenalty):
		return http.StatusBadRequest, "invalid_penalty"
	case errors.Is(err, match.ErrUnknownPreset):
		return http.StatusBadRequest, "unknown_preset"
	case errors.Is(err, game.ErrNotInProgress):
		return http.StatusConflict, "not_in_progress"
	case errors.Is(err, game.ErrNoWinner):
		return http.StatusConflict, "no_winner"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, match.ErrStorageDisabled):
		return http.StatusServiceUnavailable, "storage_disabled"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
