// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/watchlist/internal/db"
	"github.com/example/watchlist/internal/migrate"
	"github.com/stretchr/testify/require"
)

// New returns a migrated SQLite database in t.TempDir, closed on cleanup.
// A file is used instead of :memory: so every pooled connection sees the
// same schema.
func New(t *testing.T) *db.DB {
	t.Helper()
	d := Open(t)
	require.NoError(t, migrate.Up(context.Background(), d))
	return d
}

// Open is New without the migrations.
func Open(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}
