package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"parish_feeds/internal/db"
	"parish_feeds/internal/feeds"
	"parish_feeds/internal/fetcher"
	"parish_feeds/internal/logger"
	"parish_feeds/internal/metrics"
	"parish_feeds/internal/poller"
	"parish_feeds/internal/server"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Serve feeds over HTTP, optionally polling and archiving them",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return errors.Wrap(err, "load config")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			defer logger.Log.Info("Application stopped")

			m := metrics.New()
			opts := append(fetcherOptions(cfg), fetcher.WithMetrics(m))

			var archive server.Archive
			if cfg.Database.URL != "" {
				database, err := db.NewDB(ctx, cfg.Database.URL)
				if err != nil {
					return errors.Wrap(err, "connect database")
				}
				defer database.Close()

				if err := database.Migrate(ctx); err != nil {
					return errors.Wrap(err, "migrate database")
				}
				opts = append(opts, fetcher.WithRecorder(database))
				archive = database
			}

			client := feeds.NewClient(fetcher.New(opts...), cfg.Endpoints)

			if cfg.PollInterval > 0 {
				go poller.StartPolling(ctx, client, time.Duration(cfg.PollInterval)*time.Second)
			}

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           server.NewServer(client, m, archive),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Log.Infof("Starting HTTP server on %s", cfg.Server.Addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return errors.Wrap(err, "http server")
				}
			case <-ctx.Done():
			}

			logger.Log.Info("Shutting down...")
			ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()

			return srv.Shutdown(ctxShutdown)
		},
	}
}
