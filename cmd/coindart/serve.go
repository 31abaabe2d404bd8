package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lox/coindart/cmd/coindart/shared"
	"github.com/lox/coindart/internal/server"
	"github.com/lox/coindart/internal/tui"
	"golang.org/x/sync/errgroup"
)

// ServeCmd serves a match over HTTP
type ServeCmd struct {
	Addr       string   `help:"Listen address (overrides config)"`
	Players    []string `help:"Start a session with these players"`
	Scoreboard bool     `help:"Also run the terminal scoreboard on the same match"`
	JSONLogs   bool     `name:"json-logs" help:"Log JSON lines"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	logOut := os.Stderr
	if c.Scoreboard {
		f, err := os.OpenFile("coindart.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		logOut = f
	}
	logger := shared.SetupLogger(logOut, cfg.Level())
	if c.JSONLogs {
		logger = shared.SetupStructuredLogger(logOut, cfg.Level())
	}

	ctx, cancel := shared.SetupSignalHandler(context.Background(), logger)
	defer cancel()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	defer closeStore(st, logger)

	m := newMatch(cfg, st, logger)
	players := c.Players
	if len(players) == 0 {
		players = cfg.Game.Players
	}
	if len(players) > 0 {
		if _, err := m.Start(players, 0); err != nil {
			return err
		}
	}

	addr := c.Addr
	if addr == "" {
		addr = cfg.Address()
	}
	srv := server.NewServer(addr, m,
		server.WithLogger(logger),
		server.WithPingInterval(cfg.PingInterval()),
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return srv.Run(ctx)
	})
	if c.Scoreboard {
		eg.Go(func() error {
			defer cancel()
			_, err := tea.NewProgram(tui.NewModel(ctx, m, logger), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if ctx.Err() != nil {
				return nil
			}
			return err
		})
	}
	return eg.Wait()
}
