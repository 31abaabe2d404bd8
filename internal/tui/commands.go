package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CommandKind identifies an input line's action.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandStart
	CommandDarts
	CommandTotal
	CommandPenalty
	CommandUndoPenalty
	CommandUndo
	CommandNextRound
	CommandEnd
	CommandReset
	CommandStats
	CommandHelp
	CommandQuit
)

// Command is a parsed input line. Seat is zero-based.
type Command struct {
	Kind   CommandKind
	Names  []string
	Darts  []int
	Total  int
	Seat   int
	Preset string
	Amount float64
	Reason string
	Name   string
}

var errUsage = errors.New("usage")

// Help lists the commands understood by ParseCommand.
const Help = `20 5 1           score darts for the current player
t 45             score a turn total
p 2 bust         charge seat 2 a preset penalty
p 2 1.5 spilled  charge seat 2 a custom amount with a reason
up 2             undo seat 2's last penalty
u                undo the last turn
n                record the round and start the next
end              record the round and end the session
start A B C      start a new session
reset            discard the session
stats NAME       show a player's recorded statistics
q                quit`

// ParseCommand parses one line of input. Seats are typed one-based.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Kind: CommandNone}, nil
	}

	switch verb := strings.ToLower(fields[0]); verb {
	case "q", "quit", "exit":
		return Command{Kind: CommandQuit}, nil
	case "h", "help", "?":
		return Command{Kind: CommandHelp}, nil
	case "u", "undo":
		return Command{Kind: CommandUndo}, nil
	case "n", "next":
		return Command{Kind: CommandNextRound}, nil
	case "end":
		return Command{Kind: CommandEnd}, nil
	case "reset":
		return Command{Kind: CommandReset}, nil
	case "start", "s":
		return Command{Kind: CommandStart, Names: fields[1:]}, nil
	case "stats":
		if len(fields) < 2 {
			return Command{}, fmt.Errorf("%w: stats NAME", errUsage)
		}
		return Command{Kind: CommandStats, Name: strings.Join(fields[1:], " ")}, nil
	case "t", "total":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: t TOTAL", errUsage)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Command{}, fmt.Errorf("total %q is not a number", fields[1])
		}
		return Command{Kind: CommandTotal, Total: n}, nil
	case "up":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: up SEAT", errUsage)
		}
		seat, err := parseSeat(fields[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CommandUndoPenalty, Seat: seat}, nil
	case "p", "penalty":
		return parsePenalty(fields[1:])
	default:
		return parseDarts(fields)
	}
}

func parsePenalty(args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, fmt.Errorf("%w: p SEAT PRESET|AMOUNT [REASON]", errUsage)
	}
	seat, err := parseSeat(args[0])
	if err != nil {
		return Command{}, err
	}
	cmd := Command{Kind: CommandPenalty, Seat: seat}
	if amount, err := strconv.ParseFloat(args[1], 64); err == nil {
		cmd.Amount = amount
		cmd.Reason = strings.Join(args[2:], " ")
		if cmd.Reason == "" {
			cmd.Reason = "custom"
		}
		return cmd, nil
	}
	if len(args) > 2 {
		return Command{}, fmt.Errorf("%w: a preset takes no reason", errUsage)
	}
	cmd.Preset = args[1]
	return cmd, nil
}

func parseDarts(fields []string) (Command, error) {
	darts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Command{}, fmt.Errorf("unknown command %q, type help", fields[0])
		}
		darts = append(darts, n)
	}
	return Command{Kind: CommandDarts, Darts: darts}, nil
}

func parseSeat(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("seat %q must be a positive number", s)
	}
	return n - 1, nil
}
