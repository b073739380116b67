package cmd

import (
	"context"
	"fmt"

	"github.com/example/watchlist/internal/migrate"
	"github.com/spf13/cobra"
)

func newInitDBCmd() *cobra.Command {
	var drop bool

	c := &cobra.Command{
		Use:   "initdb",
		Short: "Create the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, _, err := openMigrated(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			if drop {
				if err := migrate.Reset(ctx, d); err != nil {
					return err
				}
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Initialized database.")
			return nil
		},
	}

	c.Flags().BoolVar(&drop, "drop", false, "drop all tables before creating them")
	return c
}
