package db_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/example/watchlist/internal/db"
	"github.com/example/watchlist/internal/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		in      string
		dialect db.Dialect
		dsn     string
		wantErr bool
	}{
		{in: "postgres://u:p@localhost/watchlist", dialect: db.Postgres, dsn: "postgres://u:p@localhost/watchlist"},
		{in: "postgresql://localhost/watchlist", dialect: db.Postgres, dsn: "postgresql://localhost/watchlist"},
		{in: "sqlite://data.db", dialect: db.SQLite, dsn: "data.db"},
		{in: "sqlite:///var/lib/watchlist.db", dialect: db.SQLite, dsn: "/var/lib/watchlist.db"},
		{in: "  ./data.db ", dialect: db.SQLite, dsn: "./data.db"},
		{in: "file:data.db?mode=rwc", dialect: db.SQLite, dsn: "file:data.db?mode=rwc"},
		{in: "", wantErr: true},
		{in: "sqlite://", wantErr: true},
		{in: "mysql://localhost/watchlist", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, dsn, err := db.ParseURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, d)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestWrapNotFound(t *testing.T) {
	assert.NoError(t, db.WrapNotFound(nil))
	assert.ErrorIs(t, db.WrapNotFound(sql.ErrNoRows), db.ErrNotFound)

	boom := errors.New("boom")
	err := db.WrapNotFound(boom)
	assert.ErrorIs(t, err, boom)
	assert.False(t, db.IsNotFound(err))

	assert.True(t, db.IsNotFound(fmt.Errorf("get: %w", db.ErrNotFound)))
	assert.True(t, db.IsNotFound(sql.ErrNoRows))
}

func TestOpenSQLite(t *testing.T) {
	d := dbtest.Open(t)
	assert.Equal(t, db.SQLite, d.Dialect())
	assert.NoError(t, d.Ping(context.Background()))
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()
	require.NoError(t, d.Exec(ctx, `CREATE TABLE t (v TEXT NOT NULL)`))

	require.NoError(t, d.WithTx(ctx, func(tx *db.Tx) error {
		return tx.Exec(ctx, `INSERT INTO t(v) VALUES ($1)`, "kept")
	}))

	boom := errors.New("boom")
	err := d.WithTx(ctx, func(tx *db.Tx) error {
		require.NoError(t, tx.Exec(ctx, `INSERT INTO t(v) VALUES ($1)`, "dropped"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Panics(t, func() {
		_ = d.WithTx(ctx, func(tx *db.Tx) error {
			_ = tx.Exec(ctx, `INSERT INTO t(v) VALUES ($1)`, "panicked")
			panic("oops")
		})
	})

	rows, err := d.Query(ctx, `SELECT v FROM t`)
	require.NoError(t, err)
	defer rows.Close()
	var got []string
	for rows.Next() {
		var v string
		require.NoError(t, rows.Scan(&v))
		got = append(got, v)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"kept"}, got)
}

func TestExecAffected(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()
	require.NoError(t, d.Exec(ctx, `CREATE TABLE t (v TEXT NOT NULL)`))
	require.NoError(t, d.Exec(ctx, `INSERT INTO t(v) VALUES ('a'), ('b')`))

	n, err := d.ExecAffected(ctx, `DELETE FROM t WHERE v=$1`, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = d.ExecAffected(ctx, `DELETE FROM t WHERE v=$1`, "missing")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}
