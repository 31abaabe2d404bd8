package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/coder/quartz"
	"github.com/lox/coindart/internal/store"
	"github.com/lox/coindart/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T, opts ...store.Option) store.Store {
		s, err := Open(t.TempDir(), opts...)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	clock := quartz.NewMock(t)
	clock.Set(storetest.Epoch)

	s, err := Open(dir, store.WithClock(clock))
	require.NoError(t, err)

	session := storetest.NewSession(t, clock, 50, "Alice", "Bob")
	storetest.Play(t, session, 50)
	rec, err := s.RecordCompletedRound(ctx, session.Snapshot())
	require.NoError(t, err)
	require.NoError(t, s.TrackEvent(ctx, "undo"))
	require.NoError(t, s.Close())

	for _, name := range []string{historyFile, profilesFile, analyticsFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	reopened, err := Open(dir, store.WithClock(clock))
	require.NoError(t, err)

	history, err := reopened.History(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, []store.GameRecord{rec}, history)

	analytics, err := reopened.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{store.EventGameCompleted: 1, "undo": 1}, analytics.Events)

	stats, err := reopened.ReadPlayerStatistics(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 50.0, stats.TotalPenalties)
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, historyFile), []byte("{not json"), 0o644))

	_, err := Open(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), historyFile)
}

func TestClearRemovesFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.TrackEvent(ctx, "undo"))
	assert.FileExists(t, filepath.Join(dir, analyticsFile))

	require.NoError(t, s.Clear(ctx))
	assert.NoFileExists(t, filepath.Join(dir, analyticsFile))
}

func TestWriteJSONLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, writeJSON(path, map[string]int{"a": 1}))
	require.NoError(t, writeJSON(path, map[string]int{"a": 2}))

	var got map[string]int
	require.NoError(t, readJSON(path, &got))
	assert.Equal(t, map[string]int{"a": 2}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}

func TestWriteJSONMissingDirectory(t *testing.T) {
	t.Parallel()

	err := writeJSON(filepath.Join(t.TempDir(), "missing", "doc.json"), 1)
	require.Error(t, err)
}

func TestOpenRequiresDirectory(t *testing.T) {
	t.Parallel()

	_, err := Open("  ")
	require.Error(t, err)
}

func TestFailedWriteLeavesDataUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	clock := quartz.NewMock(t)
	clock.Set(storetest.Epoch)

	s, err := Open(dir, store.WithClock(clock))
	require.NoError(t, err)

	session := storetest.NewSession(t, clock, 50, "Alice", "Bob")
	storetest.Play(t, session, 50)

	// A plain file where the directory was makes every write fail.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o644))

	_, err = s.RecordCompletedRound(ctx, session.Snapshot())
	require.Error(t, err)
	require.Error(t, s.TrackEvent(ctx, "undo"))
	require.Error(t, s.Import(ctx, store.Export{
		Version:  store.ExportVersion,
		Profiles: []store.Profile{{Name: "Carol"}},
	}))

	history, err := s.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
	analytics, err := s.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, analytics.TotalGames)
	assert.Empty(t, analytics.Events)
	profiles, err := s.Profiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	// Retrying once the disk recovers counts the round exactly once.
	require.NoError(t, os.Remove(dir))
	require.NoError(t, os.MkdirAll(dir, 0o755))

	_, err = s.RecordCompletedRound(ctx, session.Snapshot())
	require.NoError(t, err)

	history, err = s.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	analytics, err = s.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.TotalGames)
	stats, err := s.ReadPlayerStatistics(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalGames)
}
