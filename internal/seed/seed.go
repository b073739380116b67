// Package seed fills an empty database with sample data for local development.
package seed

import (
	"context"
	"fmt"

	"github.com/example/watchlist/internal/db"
	"github.com/example/watchlist/internal/movies"
	"github.com/example/watchlist/internal/users"
)

const SampleName = "Grey Li"

var SampleMovies = []movies.Movie{
	{Title: "Les Choristes", Year: "2004"},
	{Title: "Modern Times", Year: "1936"},
	{Title: "City Lights", Year: "1931"},
	{Title: "Zootopia", Year: "2016"},
	{Title: "A Chinese Odyssey Part Two", Year: "1995"},
}

type Result struct {
	UserCreated bool
	Movies      int
}

// Forge inserts the sample movies and, if no user exists yet, a sample user
// without login credentials. Everything happens in one transaction.
func Forge(ctx context.Context, d *db.DB) (Result, error) {
	var res Result
	err := d.WithTx(ctx, func(tx *db.Tx) error {
		var n int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			if err := users.CreateTx(ctx, tx, SampleName); err != nil {
				return fmt.Errorf("sample user: %w", err)
			}
			res.UserCreated = true
		}
		for _, m := range SampleMovies {
			if err := movies.CreateTx(ctx, tx, m); err != nil {
				return fmt.Errorf("sample movie %q: %w", m.Title, err)
			}
			res.Movies++
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("forge: %w", err)
	}
	return res, nil
}
