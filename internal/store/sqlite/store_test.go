package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/coder/quartz"
	"github.com/lox/coindart/internal/store"
	"github.com/lox/coindart/internal/store/sqlite/migrations"
	"github.com/lox/coindart/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, opts ...store.Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "coindart.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T, opts ...store.Option) store.Store {
		return openTestStore(t, opts...)
	})
}

func TestReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "coindart.db")
	clock := quartz.NewMock(t)
	clock.Set(storetest.Epoch)

	s, err := Open(ctx, path, store.WithClock(clock))
	require.NoError(t, err)
	session := storetest.NewSession(t, clock, 50, "Alice", "Bob")
	storetest.Play(t, session, 50)
	rec, err := s.RecordCompletedRound(ctx, session.Snapshot())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path, store.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	history, err := reopened.History(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, []store.GameRecord{rec}, history)
}

func TestMigrationsApplyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, applyMigrations(ctx, s.db, migrations.FS))

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+migrationTable).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUpMigration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no markers", "CREATE TABLE a (id INTEGER);", "CREATE TABLE a (id INTEGER);"},
		{"up only", "-- +migrate Up\nCREATE TABLE a (id INTEGER);", "\nCREATE TABLE a (id INTEGER);"},
		{"up and down", "-- +migrate Up\nCREATE TABLE a;\n-- +migrate Down\nDROP TABLE a;", "\nCREATE TABLE a;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, upMigration(tt.content))
		})
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "")
	require.Error(t, err)
}
