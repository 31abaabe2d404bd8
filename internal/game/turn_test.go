package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current int
		turn    int
		want    ScoreValidation
	}{
		{name: "regular", current: 180, turn: 60, want: ScoreValidation{NewScore: 120}},
		{name: "zero turn", current: 50, turn: 0, want: ScoreValidation{NewScore: 50}},
		{name: "exact checkout", current: 50, turn: 50, want: ScoreValidation{NewScore: 0, Win: true}},
		{name: "bust keeps score", current: 50, turn: 60, want: ScoreValidation{NewScore: 50, Bust: true}},
		{name: "bust by one", current: 1, turn: 2, want: ScoreValidation{NewScore: 1, Bust: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateScore(tt.current, tt.turn))
		})
	}
}

func TestValidateScoreNeverWinsAndBusts(t *testing.T) {
	t.Parallel()

	for current := 0; current <= 60; current++ {
		for turn := 0; turn <= 180; turn++ {
			v := ValidateScore(current, turn)
			assert.False(t, v.Bust && v.Win, "current=%d turn=%d", current, turn)
			assert.GreaterOrEqual(t, v.NewScore, 0)
			if v.Bust {
				assert.Equal(t, current, v.NewScore)
			} else {
				assert.Equal(t, current-turn, v.NewScore)
			}
		}
	}
}

func TestTurnLimits(t *testing.T) {
	t.Parallel()

	limits := DefaultTurnLimits
	tests := []struct {
		name      string
		darts     []int
		turnErr   bool
		strictErr bool
	}{
		{name: "three darts", darts: []int{60, 60, 60}},
		{name: "single dart", darts: []int{20}},
		{name: "whole turn total", darts: []int{140}, strictErr: true},
		{name: "empty", darts: nil, turnErr: true, strictErr: true},
		{name: "too many darts", darts: []int{1, 1, 1, 1}, turnErr: true, strictErr: true},
		{name: "negative", darts: []int{20, -1}, turnErr: true, strictErr: true},
		{name: "total over max", darts: []int{181}, turnErr: true, strictErr: true},
		{name: "dart over max", darts: []int{61, 0}, strictErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := limits.CheckTurn(tt.darts)
			assert.Equal(t, tt.turnErr, err != nil, "CheckTurn: %v", err)
			if err != nil {
				assert.True(t, errors.Is(err, ErrInvalidTurn))
			}
			err = limits.CheckDarts(tt.darts)
			assert.Equal(t, tt.strictErr, err != nil, "CheckDarts: %v", err)
		})
	}
}

func TestTurnRecordTotals(t *testing.T) {
	t.Parallel()

	turn := TurnRecord{Darts: []int{20, 5, 1}, PreviousScore: 100, NewScore: 74}
	assert.Equal(t, 26, turn.Total())
	assert.Equal(t, 26, turn.Scored())

	bust := TurnRecord{Darts: []int{60}, PreviousScore: 40, NewScore: 40, Bust: true}
	assert.Equal(t, 60, bust.Total())
	assert.Zero(t, bust.Scored())
}
