package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Kavirubc/gitscout/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the poller and the control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			apiServer := api.NewServer(a.engine, api.Options{
				TriggerPerMinute: a.cfg.Server.TriggerPerMinute,
				TriggerBurst:     a.cfg.Server.TriggerBurst,
			}, a.logger.With("component", "api"))

			httpServer := &http.Server{
				Addr:              a.cfg.Server.Listen,
				Handler:           apiServer.Handler(),
				ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
			}

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return a.engine.Run(gctx)
			})

			g.Go(func() error {
				a.logger.Info("control API listening", "addr", httpServer.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("control API: %w", err)
				}
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				a.logger.Error("gitscout stopped", "err", err)
				return err
			}
			a.logger.Info("gitscout stopped")
			return nil
		},
	}
}
