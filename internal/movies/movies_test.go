package movies_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/watchlist/internal/db"
	"github.com/example/watchlist/internal/dbtest"
	"github.com/example/watchlist/internal/movies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Trims(t *testing.T) {
	m := movies.New("  Modern Times ", " 1936\n")
	assert.Equal(t, "Modern Times", m.Title)
	assert.Equal(t, "1936", m.Year)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       movies.Movie
		wantErr bool
	}{
		{name: "ok", m: movies.New("City Lights", "1931")},
		{name: "max lengths", m: movies.New(strings.Repeat("a", movies.MaxTitleLen), "2024")},
		{name: "multibyte title counts runes", m: movies.New(strings.Repeat("好", movies.MaxTitleLen), "1995")},
		{name: "empty title", m: movies.New("", "2004"), wantErr: true},
		{name: "blank title", m: movies.New("   ", "2004"), wantErr: true},
		{name: "empty year", m: movies.New("Zootopia", ""), wantErr: true},
		{name: "long title", m: movies.New(strings.Repeat("a", movies.MaxTitleLen+1), "2004"), wantErr: true},
		{name: "long year", m: movies.New("Zootopia", "20166"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, movies.ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRepo_CRUD(t *testing.T) {
	r := movies.NewRepo(dbtest.New(t))
	ctx := context.Background()

	id1, err := r.Create(ctx, movies.New("Les Choristes", "2004"))
	require.NoError(t, err)
	id2, err := r.Create(ctx, movies.New("Modern Times", "1936"))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Les Choristes", list[0].Title)
	assert.Equal(t, "Modern Times", list[1].Title)

	require.NoError(t, r.Update(ctx, movies.Movie{ID: id1, Title: "WALL-E", Year: "2008"}))
	got, err := r.Get(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, movies.Movie{ID: id1, Title: "WALL-E", Year: "2008"}, got)

	require.NoError(t, r.Delete(ctx, id2))
	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRepo_MissingIDs(t *testing.T) {
	r := movies.NewRepo(dbtest.New(t))
	ctx := context.Background()

	_, err := r.Get(ctx, 99)
	assert.True(t, db.IsNotFound(err))
	assert.ErrorIs(t, r.Update(ctx, movies.Movie{ID: 99, Title: "x", Year: "1"}), db.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, 99), db.ErrNotFound)

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateTx_RolledBack(t *testing.T) {
	d := dbtest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := d.WithTx(ctx, func(tx *db.Tx) error {
		require.NoError(t, movies.CreateTx(ctx, tx, movies.New("Zootopia", "2016")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := movies.NewRepo(d).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func newMockRepo(t *testing.T) (*movies.Repo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return movies.NewRepo(db.New(sqlDB, db.Postgres)), mock
}

func TestRepo_Create_DBError(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+movies\s*\(title,\s*year\)\s*VALUES\s*\(\$1,\$2\)\s*RETURNING\s+id$`).
		WithArgs("Zootopia", "2016").
		WillReturnError(errors.New("db down"))

	_, err := r.Create(context.Background(), movies.New("Zootopia", "2016"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.False(t, db.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_List_ScanError(t *testing.T) {
	r, mock := newMockRepo(t)
	rows := sqlmock.NewRows([]string{"id", "title", "year"}).AddRow("not-a-number", "Zootopia", "2016")
	mock.ExpectQuery(`SELECT id, title, year FROM movies ORDER BY id ASC`).WillReturnRows(rows)

	_, err := r.List(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Update_ExecError(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectExec(`UPDATE movies SET title=\$2, year=\$3 WHERE id=\$1`).
		WithArgs(int64(7), "Zootopia", "2016").
		WillReturnError(errors.New("conn reset"))

	err := r.Update(context.Background(), movies.Movie{ID: 7, Title: "Zootopia", Year: "2016"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update movie 7")
	assert.NoError(t, mock.ExpectationsWereMet())
}
