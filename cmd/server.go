package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/watchlist/internal/auth"
	"github.com/example/watchlist/internal/config"
	"github.com/example/watchlist/internal/db"
	"github.com/example/watchlist/internal/logging"
	"github.com/example/watchlist/internal/migrate"
	"github.com/example/watchlist/internal/movies"
	"github.com/example/watchlist/internal/session"
	"github.com/example/watchlist/internal/users"
	"github.com/example/watchlist/internal/web"
	"github.com/spf13/cobra"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}
			logger.Info("database ready", "dialect", d.Dialect())

			if cfg.EphemeralKeys {
				logger.Warn("COOKIE_HASH_KEY/COOKIE_BLOCK_KEY not set, using random keys; sessions will not survive a restart")
			}

			var store session.Store
			if cfg.RedisURL != "" {
				rdb, err := session.OpenRedis(ctx, cfg.RedisURL)
				if err != nil {
					return err
				}
				defer rdb.Close()
				rs := session.NewRedisStore(rdb, cfg.CookieHashKey, cfg.CookieBlockKey, cfg.SessionTTL)
				rs.SetSecure(cfg.SecureCookies())
				store = rs
				logger.Info("sessions stored in redis")
			} else {
				cs := session.NewCookieStore(cfg.CookieHashKey, cfg.CookieBlockKey, cfg.SessionTTL)
				cs.SetSecure(cfg.SecureCookies())
				store = cs
			}
			logger.Info("session cookies", "base_url", cfg.BaseURL, "secure", cfg.SecureCookies())

			userRepo := users.NewRepo(d)
			ws := &web.Server{
				DB:       d,
				Auth:     auth.New(userRepo, store, logger),
				Sessions: store,
				Movies:   movies.NewRepo(d),
				Users:    userRepo,
				Log:      logger,
			}
			return web.Start(ctx, logger, cfg.ListenAddr, ws.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
