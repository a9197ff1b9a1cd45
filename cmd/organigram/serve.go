package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"organigram/internal/handler"
	"organigram/internal/hub"
	"organigram/internal/metrics"
	"organigram/internal/service"
	"organigram/internal/watcher"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart over HTTP and rebuild it when the snapshot changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg := a.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				cfg.Server.Watch = watch
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eventBus := service.NewEventBus()
			reg := metrics.NewRegistry()
			svc := service.NewChartService(cfg, a.dirs, eventBus,
				service.WithLogger(a.log),
				service.WithMetrics(reg),
			)

			sseHub := hub.New(a.log)
			go sseHub.Run(ctx)
			events := make(chan service.Event, 100)
			eventBus.Subscribe(events)
			go hub.Forward[service.Event](ctx, sseHub, events)

			// A failed first run still serves; the chart routes answer 503
			// until a rebuild succeeds.
			if _, err := svc.Build(ctx); err != nil {
				a.log.WithError(err).Warn("initial build failed")
			}

			if cfg.Server.Watch {
				if cfg.Directory.Kind != "yaml" {
					a.log.WithField("kind", cfg.Directory.Kind).Warn("watching is only supported for yaml snapshots")
				} else {
					w := watcher.New(cfg.Directory.Path, func() {
						_, _ = svc.Build(ctx)
					}).WithDebounce(cfg.Server.Debounce).WithLogger(a.log)
					go func() {
						if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
							a.log.WithError(err).Error("snapshot watcher stopped")
						}
					}()
				}
			}

			mux := http.NewServeMux()
			handler.NewChartHandler(svc, a.log).Register(mux)
			mux.Handle("GET /events", sseHub)
			mux.Handle("GET /metrics", reg.Handler())

			server := &http.Server{
				Addr:        cfg.Server.Addr,
				Handler:     handler.Chain(mux, handler.Recover(a.log), handler.Logger(a.log, reg)),
				ReadTimeout: 10 * time.Second,
				IdleTimeout: 60 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				a.log.WithField("addr", cfg.Server.Addr).Info("server listening")
				errc <- server.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.log.WithError(err).Warn("server shutdown error")
			}
			a.log.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address; overrides server.addr")
	cmd.Flags().BoolVar(&watch, "watch", false, "Rebuild when the snapshot file changes; overrides server.watch")
	return cmd
}
