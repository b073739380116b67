package movies

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/watchlist/internal/db"
)

const (
	MaxTitleLen = 60
	MaxYearLen  = 4
)

var ErrInvalid = errors.New("invalid movie")

type Movie struct {
	ID    int64
	Title string
	Year  string
}

// New builds a Movie from raw form or flag input.
func New(title, year string) Movie {
	return Movie{Title: strings.TrimSpace(title), Year: strings.TrimSpace(year)}
}

func (m Movie) Validate() error {
	switch {
	case m.Title == "":
		return fmt.Errorf("%w: title required", ErrInvalid)
	case m.Year == "":
		return fmt.Errorf("%w: year required", ErrInvalid)
	case utf8.RuneCountInString(m.Title) > MaxTitleLen:
		return fmt.Errorf("%w: title longer than %d characters", ErrInvalid, MaxTitleLen)
	case utf8.RuneCountInString(m.Year) > MaxYearLen:
		return fmt.Errorf("%w: year longer than %d characters", ErrInvalid, MaxYearLen)
	}
	return nil
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Create(ctx context.Context, m Movie) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO movies(title, year) VALUES ($1,$2) RETURNING id`, m.Title, m.Year).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create movie: %w", err)
	}
	return id, nil
}

// List returns every movie in insertion order.
func (r *Repo) List(ctx context.Context) ([]Movie, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title, year FROM movies ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var out []Movie
	for rows.Next() {
		var m Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Year); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (Movie, error) {
	var m Movie
	err := r.db.QueryRow(ctx, `SELECT id, title, year FROM movies WHERE id=$1`, id).Scan(&m.ID, &m.Title, &m.Year)
	if err != nil {
		return Movie{}, db.WrapNotFound(err)
	}
	return m, nil
}

func (r *Repo) Update(ctx context.Context, m Movie) error {
	n, err := r.db.ExecAffected(ctx, `UPDATE movies SET title=$2, year=$3 WHERE id=$1`, m.ID, m.Title, m.Year)
	if err != nil {
		return fmt.Errorf("update movie %d: %w", m.ID, err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	n, err := r.db.ExecAffected(ctx, `DELETE FROM movies WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}

// CreateTx inserts m as part of a larger transaction.
func CreateTx(ctx context.Context, tx *db.Tx, m Movie) error {
	return tx.Exec(ctx, `INSERT INTO movies(title, year) VALUES ($1,$2)`, m.Title, m.Year)
}
