package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/example/watchlist/internal/config"
	"github.com/example/watchlist/internal/db"
	"github.com/example/watchlist/internal/migrate"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "watchlist",
		Short: "Single-user movie watchlist with a server-rendered web UI",
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newServerCmd())
	root.AddCommand(newInitDBCmd())
	root.AddCommand(newForgeCmd())
	root.AddCommand(newAdminCmd())
	root.AddCommand(newMovieCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openMigrated opens the configured database and brings its schema up to date.
func openMigrated(ctx context.Context) (*db.DB, config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, config.Config{}, err
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, config.Config{}, err
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, config.Config{}, err
	}
	return d, cfg, nil
}
