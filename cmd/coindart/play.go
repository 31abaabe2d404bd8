package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lox/coindart/cmd/coindart/shared"
	"github.com/lox/coindart/internal/tui"
)

// PlayCmd runs the terminal scoreboard
type PlayCmd struct {
	Players       []string `arg:"" optional:"" help:"Player names; at least two start a session immediately"`
	StartingScore int      `short:"s" help:"Starting score (overrides config)"`
	LogFile       string   `default:"coindart.log" help:"Log file path"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := shared.SetupLogger(logFile, cfg.Level())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	defer closeStore(st, logger)

	m := newMatch(cfg, st, logger)
	model := tui.NewModel(ctx, m, logger)

	players := c.Players
	if len(players) == 0 {
		players = cfg.Game.Players
	}
	if len(players) > 0 {
		if _, err := m.Start(players, c.StartingScore); err != nil {
			return err
		}
	}

	logger.Info("Starting scoreboard", "players", len(players), "storage", cfg.Storage.Backend)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
