// Package filestore keeps the store as JSON files in one directory.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/statistics"
	"github.com/lox/coindart/internal/store"
)

const (
	historyFile   = "history.json"
	profilesFile  = "profiles.json"
	analyticsFile = "analytics.json"

	filePerm = 0o644
)

// Store persists a store.Dataset as one JSON file per collection.
type Store struct {
	dir    string
	clock  quartz.Clock
	logger *log.Logger
	newID  func() string

	mu   sync.Mutex
	data *store.Dataset
}

var _ store.Store = (*Store)(nil)

// Open loads the store in dir, creating the directory when needed.
func Open(dir string, opts ...store.Option) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	o := store.BuildOptions(opts...)

	data := store.NewDataset()
	if err := readJSON(filepath.Join(dir, historyFile), &data.History); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, profilesFile), &data.Profiles); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, analyticsFile), &data.Analytics); err != nil {
		return nil, err
	}
	if data.History == nil {
		data.History = []store.GameRecord{}
	}
	if data.Profiles == nil {
		data.Profiles = map[string]store.Profile{}
	}

	o.Logger.Debug("Opened file store", "dir", dir, "games", len(data.History), "profiles", len(data.Profiles))
	return &Store{
		dir:    dir,
		clock:  o.Clock,
		logger: o.Logger,
		newID:  o.NewID,
		data:   data,
	}, nil
}

// RecordCompletedRound implements store.Store.
func (s *Store) RecordCompletedRound(ctx context.Context, snap game.Snapshot) (store.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return store.GameRecord{}, err
	}
	rec, err := store.BuildGameRecord(snap, s.newID(), s.clock.Now())
	if err != nil {
		return store.GameRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.data.Clone()
	next.Record(rec)
	if err := s.flush(next); err != nil {
		return store.GameRecord{}, err
	}
	s.data = next
	s.logger.Info("Recorded game", "id", rec.ID, "round", rec.Round, "winner", rec.Winner)
	return rec, nil
}

// ReadPlayerStatistics implements store.Store.
func (s *Store) ReadPlayerStatistics(ctx context.Context, key string) (statistics.PlayerStatistics, error) {
	if err := ctx.Err(); err != nil {
		return statistics.PlayerStatistics{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.PlayerStatistics(key, s.clock.Now())
}

// History implements store.Store.
func (s *Store) History(ctx context.Context, limit int) ([]store.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Recent(limit), nil
}

// Profiles implements store.Store.
func (s *Store) Profiles(ctx context.Context) ([]store.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.SortedProfiles(), nil
}

// TrackEvent implements store.Store.
func (s *Store) TrackEvent(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("event name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	analytics := s.data.Analytics.Clone()
	analytics.Track(name, s.clock.Now())
	if err := writeJSON(filepath.Join(s.dir, analyticsFile), analytics); err != nil {
		return err
	}
	s.data.Analytics = analytics
	return nil
}

// Analytics implements store.Store.
func (s *Store) Analytics(ctx context.Context) (store.Analytics, error) {
	if err := ctx.Err(); err != nil {
		return store.Analytics{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Analytics.Clone(), nil
}

// Export implements store.Store.
func (s *Store) Export(ctx context.Context) (store.Export, error) {
	if err := ctx.Err(); err != nil {
		return store.Export{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Export(s.clock.Now()), nil
}

// Import implements store.Store.
func (s *Store) Import(ctx context.Context, e store.Export) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := store.DatasetFromExport(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flush(data); err != nil {
		return err
	}
	s.data = data
	s.logger.Info("Imported data", "games", len(data.History), "profiles", len(data.Profiles))
	return nil
}

// Clear implements store.Store.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range []string{historyFile, profilesFile, analyticsFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	s.data = store.NewDataset()
	s.logger.Info("Cleared all data", "dir", s.dir)
	return nil
}

// Close implements store.Store. Every write is flushed as it happens.
func (s *Store) Close() error {
	return nil
}

// flush writes data to disk. The caller installs data only on success.
func (s *Store) flush(data *store.Dataset) error {
	if err := writeJSON(filepath.Join(s.dir, historyFile), data.History); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(s.dir, profilesFile), data.Profiles); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.dir, analyticsFile), data.Analytics)
}
