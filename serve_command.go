package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"qbank/handlers"
	"qbank/logging"
	"qbank/resolver"
	"qbank/routes"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the slug heal queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := openApp(signalCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(context.Background()); err != nil {
					logger.Warn("close backends", "error", err)
				}
			}()

			queue := resolver.NewHealQueue(a.guard, resolver.HealQueueOptions{
				Size:         cfg.HealQueueSize,
				Workers:      cfg.HealWorkers,
				DrainTimeout: cfg.HealDrainTimeout,
			}, logger)
			service := a.newService(queue)

			if logging.ParseLevel(cfg.LogLevel) > slog.LevelDebug {
				gin.SetMode(gin.ReleaseMode)
			}
			router := gin.New()
			router.Use(gin.Recovery())
			routes.SetupRoutes(router, handlers.NewQuestionHandler(service, logger), logger)

			srv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// The queue outlives the listener so heals from in-flight
			// requests are still applied during shutdown.
			queueCtx, stopQueue := context.WithCancel(context.WithoutCancel(signalCtx))
			defer stopQueue()

			g, gctx := errgroup.WithContext(signalCtx)
			g.Go(func() error {
				return queue.Run(queueCtx)
			})
			g.Go(func() error {
				logger.Info("server starting", "event_type", "server_start", "addr", srv.Addr,
					"store", cfg.StoreBackend, "cache", cfg.CacheBackend)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				defer stopQueue()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				logger.Info("server stopping", "event_type", "server_stop")
				return srv.Shutdown(shutdownCtx)
			})

			err = g.Wait()
			applied, failed, dropped := queue.Stats()
			logger.Info("heal queue stopped", "event_type", "heal_queue_stopped",
				"applied", applied, "failed", failed, "dropped", dropped)
			return err
		},
	}
}
