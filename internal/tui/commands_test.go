package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Command
	}{
		{"", Command{Kind: CommandNone}},
		{"   ", Command{Kind: CommandNone}},
		{"20 5 1", Command{Kind: CommandDarts, Darts: []int{20, 5, 1}}},
		{"60", Command{Kind: CommandDarts, Darts: []int{60}}},
		{"t 45", Command{Kind: CommandTotal, Total: 45}},
		{"T 0", Command{Kind: CommandTotal, Total: 0}},
		{"p 2 bust", Command{Kind: CommandPenalty, Seat: 1, Preset: "bust"}},
		{"p 1 1.5 spilled drink", Command{Kind: CommandPenalty, Seat: 0, Amount: 1.5, Reason: "spilled drink"}},
		{"p 3 2", Command{Kind: CommandPenalty, Seat: 2, Amount: 2, Reason: "custom"}},
		{"up 2", Command{Kind: CommandUndoPenalty, Seat: 1}},
		{"u", Command{Kind: CommandUndo}},
		{"n", Command{Kind: CommandNextRound}},
		{"end", Command{Kind: CommandEnd}},
		{"reset", Command{Kind: CommandReset}},
		{"start Alice Bob", Command{Kind: CommandStart, Names: []string{"Alice", "Bob"}}},
		{"stats Mary Jane", Command{Kind: CommandStats, Name: "Mary Jane"}},
		{"help", Command{Kind: CommandHelp}},
		{"q", Command{Kind: CommandQuit}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		"fold",
		"20 x",
		"t",
		"t ten",
		"up",
		"up 0",
		"p 1",
		"p zero bust",
		"p 1 bust extra",
		"stats",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCommand(input)
			assert.Error(t, err)
		})
	}
}
