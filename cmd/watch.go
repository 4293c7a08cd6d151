package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"geosite/internal/api"
	"geosite/internal/config"
	"geosite/internal/scheduler"
	"geosite/internal/status"
	"geosite/pkg/logger"
	"geosite/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

func watchCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerates the rule-sets periodically and serves status and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := newRegistry()
			m, err := metrics.NewPipeline(reg)
			if err != nil {
				return fmt.Errorf("could not register metrics: %w", err)
			}
			mp, err := metrics.NewMeterProvider(reg)
			if err != nil {
				return fmt.Errorf("could not create meter provider: %w", err)
			}
			otel.SetMeterProvider(mp)
			defer func() {
				if err := mp.Shutdown(context.Background()); err != nil {
					logger.Warn(ctx, "could not stop meter provider", zap.Error(err))
				}
			}()

			gen, err := newGenerator(cfg, m)
			if err != nil {
				return err
			}

			holder := status.NewHolder()
			server, err := api.NewServer(api.Deps{Status: holder, Gatherer: reg}, api.NewOptions(cfg))
			if err != nil {
				return fmt.Errorf("could not create webserver: %w", err)
			}

			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				logger.Info(ctx, "starting webserver...", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("could not start webserver: %w", err)
				}

				return nil
			})

			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
				defer cancel()

				logger.Info(ctx, "stopping webserver...")
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error(ctx, "could not stop webserver", zap.Error(err))
				}

				return nil
			})

			g.Go(func() error {
				err := scheduler.Start(ctx, scheduler.Config{
					Interval:       cfg.Watch.Interval,
					InitialBackoff: cfg.Watch.InitialBackoff,
					MaxBackoff:     cfg.Watch.MaxBackoff,
				}, func(ctx context.Context) error {
					res, err := gen.Run(ctx)
					holder.Record(res, err)

					return err
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}

				return err
			})

			return g.Wait()
		},
	}

	return cmd
}
