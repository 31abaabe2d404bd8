// Package config loads coindart settings from an HCL file with
// COINDART_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/coindart/internal/game"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COINDART_"

// Config represents the complete configuration
type Config struct {
	LogLevel  string
	Game      GameSettings
	Penalties []PenaltyConfig
	Storage   StorageSettings
	Server    ServerSettings
}

// fileConfig mirrors Config with every block optional.
type fileConfig struct {
	LogLevel  string           `hcl:"log_level,optional"`
	Game      *GameSettings    `hcl:"game,block"`
	Penalties []PenaltyConfig  `hcl:"penalty,block"`
	Storage   *StorageSettings `hcl:"storage,block"`
	Server    *ServerSettings  `hcl:"server,block"`
}

// GameSettings configures new sessions
type GameSettings struct {
	StartingScore     int      `hcl:"starting_score,optional"`
	Players           []string `hcl:"players,optional"`
	BustPenalty       *float64 `hcl:"bust_penalty,optional"`
	DartsPerTurn      int      `hcl:"darts_per_turn,optional"`
	MaxDartScore      int      `hcl:"max_dart_score,optional"`
	MaxTurnScore      int      `hcl:"max_turn_score,optional"`
	RevertConversion  bool     `hcl:"revert_conversion_on_undo,optional"`
	RestoreActingSeat bool     `hcl:"restore_acting_seat_on_undo,optional"`
}

// PenaltyConfig defines a penalty preset offered by the interfaces
type PenaltyConfig struct {
	Key    string  `hcl:"key,label"`
	Amount float64 `hcl:"amount"`
	Reason string  `hcl:"reason,optional"`
}

// StorageSettings selects the persistence backend
type StorageSettings struct {
	Backend string `hcl:"backend,optional"`
	Path    string `hcl:"path,optional"`
}

// ServerSettings configures coindart serve
type ServerSettings struct {
	Address      string `hcl:"address,optional"`
	Port         int    `hcl:"port,optional"`
	PingInterval string `hcl:"ping_interval,optional"`
}

type envOverrides struct {
	LogLevel       string   `env:"LOG_LEVEL"`
	StartingScore  int      `env:"STARTING_SCORE"`
	Players        []string `env:"PLAYERS" envSeparator:","`
	BustPenalty    *float64 `env:"BUST_PENALTY"`
	StorageBackend string   `env:"STORAGE_BACKEND"`
	StoragePath    string   `env:"STORAGE_PATH"`
	ServerAddress  string   `env:"SERVER_ADDRESS"`
	ServerPort     int      `env:"SERVER_PORT"`
}

// Default returns the built-in configuration
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads filename, falling back to defaults when it does not exist, and
// applies overrides from environ. A nil environ reads the process
// environment.
func Load(filename string, environ map[string]string) (*Config, error) {
	config := &Config{}
	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			parser := hclparse.NewParser()
			file, diags := parser.ParseHCLFile(filename)
			if diags.HasErrors() {
				return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
			}
			var fc fileConfig
			if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
				return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
			}
			config.LogLevel = fc.LogLevel
			config.Penalties = fc.Penalties
			if fc.Game != nil {
				config.Game = *fc.Game
			}
			if fc.Storage != nil {
				config.Storage = *fc.Storage
			}
			if fc.Server != nil {
				config.Server = *fc.Server
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	if err := config.applyEnv(environ); err != nil {
		return nil, err
	}
	config.applyDefaults()
	return config, nil
}

func (c *Config) applyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	o, err := env.ParseAsWithOptions[envOverrides](opts)
	if err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.StartingScore != 0 {
		c.Game.StartingScore = o.StartingScore
	}
	if len(o.Players) > 0 {
		c.Game.Players = o.Players
	}
	if o.BustPenalty != nil {
		c.Game.BustPenalty = o.BustPenalty
	}
	if o.StorageBackend != "" {
		c.Storage.Backend = o.StorageBackend
	}
	if o.StoragePath != "" {
		c.Storage.Path = o.StoragePath
	}
	if o.ServerAddress != "" {
		c.Server.Address = o.ServerAddress
	}
	if o.ServerPort != 0 {
		c.Server.Port = o.ServerPort
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	limits := game.DefaultTurnLimits
	if c.Game.StartingScore == 0 {
		c.Game.StartingScore = game.DefaultStartingScore
	}
	if c.Game.BustPenalty == nil {
		penalty := game.DefaultBustPenalty
		c.Game.BustPenalty = &penalty
	}
	if c.Game.DartsPerTurn == 0 {
		c.Game.DartsPerTurn = limits.DartsPerTurn
	}
	if c.Game.MaxDartScore == 0 {
		c.Game.MaxDartScore = limits.MaxDartScore
	}
	if c.Game.MaxTurnScore == 0 {
		c.Game.MaxTurnScore = limits.MaxTurnScore
	}

	if len(c.Penalties) == 0 {
		for _, p := range game.DefaultPenaltyPresets {
			c.Penalties = append(c.Penalties, PenaltyConfig{Key: p.Key, Amount: p.Amount, Reason: string(p.Reason)})
		}
	}
	for i := range c.Penalties {
		if c.Penalties[i].Reason != "" {
			continue
		}
		if preset, ok := game.FindPreset(game.DefaultPenaltyPresets, c.Penalties[i].Key); ok {
			c.Penalties[i].Reason = string(preset.Reason)
		}
	}

	c.Storage.applyDefaults()

	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.PingInterval == "" {
		c.Server.PingInterval = "30s"
	}
}

func (s *StorageSettings) applyDefaults() {
	if s.Backend == "" {
		s.Backend = BackendFile
	}
	if s.Path == "" {
		switch s.Backend {
		case BackendFile:
			s.Path = "coindart-data"
		case BackendSQLite:
			s.Path = "coindart.db"
		}
	}
}

// SetStorage switches the storage backend. An empty path keeps the current
// one when the backend is unchanged and uses the backend default otherwise.
func (c *Config) SetStorage(backend, path string) {
	if backend != "" && backend != c.Storage.Backend {
		c.Storage.Backend = backend
		c.Storage.Path = ""
	}
	if path != "" {
		c.Storage.Path = path
	}
	c.Storage.applyDefaults()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}

	g := c.Game
	if g.StartingScore <= 0 {
		return fmt.Errorf("starting score must be positive, got %d", g.StartingScore)
	}
	if g.BustPenalty != nil && *g.BustPenalty < 0 {
		return fmt.Errorf("bust penalty must not be negative, got %v", *g.BustPenalty)
	}
	if g.DartsPerTurn <= 0 || g.MaxDartScore <= 0 || g.MaxTurnScore <= 0 {
		return fmt.Errorf("turn limits must be positive")
	}
	if g.MaxTurnScore > g.DartsPerTurn*g.MaxDartScore {
		return fmt.Errorf("max turn score %d is unreachable with %d darts of at most %d",
			g.MaxTurnScore, g.DartsPerTurn, g.MaxDartScore)
	}
	for _, name := range g.Players {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("player names must not be blank")
		}
	}

	seen := map[string]bool{}
	for _, p := range c.Penalties {
		key := strings.ToLower(p.Key)
		if seen[key] {
			return fmt.Errorf("penalty %s: defined twice", p.Key)
		}
		seen[key] = true
		if p.Amount <= 0 {
			return fmt.Errorf("penalty %s: amount must be positive", p.Key)
		}
		if strings.TrimSpace(p.Reason) == "" {
			return fmt.Errorf("penalty %s: reason is required", p.Key)
		}
	}

	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("storage path is required for the %s backend", c.Storage.Backend)
		}
	case BackendNone:
	default:
		return fmt.Errorf("invalid storage backend %q", c.Storage.Backend)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if d, err := time.ParseDuration(c.Server.PingInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid ping interval %q", c.Server.PingInterval)
	}
	return nil
}

// Address returns the full server listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// PingInterval returns the websocket keepalive period. Call Validate first.
func (c *Config) PingInterval() time.Duration {
	d, _ := time.ParseDuration(c.Server.PingInterval)
	return d
}

// TurnLimits returns the configured input ranges.
func (c *Config) TurnLimits() game.TurnLimits {
	return game.TurnLimits{
		DartsPerTurn: c.Game.DartsPerTurn,
		MaxDartScore: c.Game.MaxDartScore,
		MaxTurnScore: c.Game.MaxTurnScore,
	}
}

// Presets returns the penalty presets in file order.
func (c *Config) Presets() []game.PenaltyPreset {
	presets := make([]game.PenaltyPreset, len(c.Penalties))
	for i, p := range c.Penalties {
		presets[i] = game.PenaltyPreset{
			Key:    strings.ToLower(p.Key),
			Amount: p.Amount,
			Reason: game.PenaltyReason(p.Reason),
		}
	}
	return presets
}

// SessionOptions returns the session options implied by the game block.
func (c *Config) SessionOptions() []game.Option {
	opts := []game.Option{
		game.WithTurnLimits(c.TurnLimits()),
		game.WithUndoPolicy(game.UndoPolicy{
			RevertConversion:  c.Game.RevertConversion,
			RestoreActingSeat: c.Game.RestoreActingSeat,
		}),
	}
	if c.Game.BustPenalty != nil {
		opts = append(opts, game.WithBustPenalty(*c.Game.BustPenalty))
	}
	return opts
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
