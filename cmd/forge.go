package cmd

import (
	"context"
	"fmt"

	"github.com/example/watchlist/internal/seed"
	"github.com/spf13/cobra"
)

func newForgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forge",
		Short: "Fill the database with sample movies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, _, err := openMigrated(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			res, err := seed.Forge(ctx, d)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.UserCreated {
				fmt.Fprintf(out, "added user %q (run `watchlist admin` to set login credentials)\n", seed.SampleName)
			}
			fmt.Fprintf(out, "added %d movies\n", res.Movies)
			fmt.Fprintln(out, "Created sample data.")
			return nil
		},
	}
}
