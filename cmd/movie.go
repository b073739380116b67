package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/example/watchlist/internal/movies"
	"github.com/spf13/cobra"
)

func newMovieCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "movie",
		Short: "Manage watchlist entries",
	}
	c.AddCommand(newMovieAddCmd())
	c.AddCommand(newMovieListCmd())
	return c
}

func newMovieAddCmd() *cobra.Command {
	var title, year string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a movie",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := movies.New(title, year)
			if err := m.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			d, _, err := openMigrated(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			id, err := movies.NewRepo(d).Create(ctx, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created movie %d\n", id)
			return nil
		},
	}

	c.Flags().StringVar(&title, "title", "", "movie title")
	c.Flags().StringVar(&year, "year", "", "release year")
	_ = c.MarkFlagRequired("title")
	_ = c.MarkFlagRequired("year")
	return c
}

func newMovieListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List movies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, _, err := openMigrated(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			ms, err := movies.NewRepo(d).List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tYEAR")
			for _, m := range ms {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", m.ID, m.Title, m.Year)
			}
			return tw.Flush()
		},
	}
}
