package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/coindart/internal/config"
	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/match"
	"github.com/lox/coindart/internal/store"
	"github.com/lox/coindart/internal/store/filestore"
	"github.com/lox/coindart/internal/store/sqlite"
)

// Globals are flags shared by every command
type Globals struct {
	Config   string `short:"c" default:"coindart.hcl" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Storage  string `help:"Storage backend: file, sqlite or none (overrides config)"`
	Data     string `help:"Storage path (overrides config)"`
}

// load reads the configuration and applies flag overrides.
func (g *Globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.Config, nil)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	cfg.SetStorage(g.Storage, g.Data)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStore opens the configured backend. The none backend yields a nil store.
func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, error) {
	opts := []store.Option{store.WithLogger(logger)}
	switch cfg.Storage.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendSQLite:
		st, err := sqlite.Open(ctx, cfg.Storage.Path, opts...)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		st, err := filestore.Open(cfg.Storage.Path, opts...)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}

// requireStore opens the store for commands that only work on stored data.
func requireStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, error) {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store at %s: %w", cfg.Storage.Backend, cfg.Storage.Path, err)
	}
	if st == nil {
		return nil, match.ErrStorageDisabled
	}
	return st, nil
}

// newMatch builds a match from the configuration.
func newMatch(cfg *config.Config, st store.Store, logger *log.Logger) *match.Match {
	opts := []match.Option{
		match.WithPresets(cfg.Presets()),
		match.WithStartingScore(cfg.Game.StartingScore),
		match.WithLogger(logger),
	}
	if st != nil {
		opts = append(opts, match.WithStore(st))
	}
	sessionOpts := append(cfg.SessionOptions(), game.WithLogger(logger))
	return match.New(game.NewSession(sessionOpts...), opts...)
}

func closeStore(st store.Store, logger *log.Logger) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		logger.Warn("Failed to close store", "error", err)
	}
}
