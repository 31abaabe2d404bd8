// Package store persists finished rounds, player profiles and usage
// counters. Backends live in the filestore and sqlite subpackages.
package store

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/recordid"
	"github.com/lox/coindart/internal/statistics"
)

var (
	// ErrNotFound is returned when a profile does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedVersion is returned when importing an unknown export format.
	ErrUnsupportedVersion = errors.New("unsupported export version")
)

const (
	// ExportVersion is the version written to and required from exports.
	ExportVersion = "1.0"
	// HistoryLimit caps the number of game records kept.
	HistoryLimit = 100
	// EventGameCompleted is counted for every recorded game.
	EventGameCompleted = "game_completed"
)

// Store is the persistence contract shared by all backends.
type Store interface {
	// RecordCompletedRound stores the won round held by snap and updates
	// every participant's profile.
	RecordCompletedRound(ctx context.Context, snap game.Snapshot) (GameRecord, error)
	// ReadPlayerStatistics returns aggregates for a profile key or a player
	// name. It returns ErrNotFound for unknown players.
	ReadPlayerStatistics(ctx context.Context, key string) (statistics.PlayerStatistics, error)
	// History returns up to limit game records, newest first. A limit of
	// zero or less returns all of them.
	History(ctx context.Context, limit int) ([]GameRecord, error)
	Profiles(ctx context.Context) ([]Profile, error)
	TrackEvent(ctx context.Context, name string) error
	Analytics(ctx context.Context) (Analytics, error)
	Export(ctx context.Context) (Export, error)
	// Import replaces the stored data with the export.
	Import(ctx context.Context, data Export) error
	Clear(ctx context.Context) error
	Close() error
}

// Options are shared by the backends.
type Options struct {
	Clock  quartz.Clock
	Logger *log.Logger
	NewID  func() string
}

// Option configures a backend.
type Option func(*Options)

// WithClock sets the clock used for record timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(o *Options) {
		o.Clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithIDGenerator overrides game record id generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *Options) {
		o.NewID = newID
	}
}

// BuildOptions applies opts over the defaults.
func BuildOptions(opts ...Option) Options {
	o := Options{
		Clock:  quartz.NewReal(),
		Logger: log.New(io.Discard),
		NewID:  func() string { return recordid.New("game") },
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.Logger = o.Logger.WithPrefix("store")
	return o
}
