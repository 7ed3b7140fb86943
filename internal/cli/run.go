package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"

	"github.com/pipewise/exportd/internal/config"
	"github.com/pipewise/exportd/internal/export"
	"github.com/pipewise/exportd/internal/intake"
	"github.com/pipewise/exportd/internal/logging"
	"github.com/pipewise/exportd/internal/metrics"
)

func runCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the export pipeline",
		Long: `Read event records from the configured intake and deliver them to
every configured destination.

The pipeline runs until interrupted. SIGHUP closes all file destinations
so the next record reopens them at their current path (log rotation);
unix socket destinations stay connected across SIGHUP.

Examples:
  my-app | exportd run --config exportd.yaml
  exportd run --config exportd.yaml     # with intake.source: unix:/run/exportd.sock`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg *config.Config
			var err error

			if configFile != "" {
				cfg, err = config.Load(configFile)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
			} else {
				cfg = config.Defaults()
			}

			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer func() { _ = logger.Close() }()

			if dsn := sentryDSN(cfg); dsn != "" {
				if err := sentry.Init(sentry.ClientOptions{
					Dsn:     dsn,
					Release: "exportd@" + Version,
				}); err != nil {
					logger.Warn().Err(err).Msg("sentry init failed, continuing without crash reporting")
				} else {
					defer sentry.Flush(2 * time.Second)
					defer func() {
						if r := recover(); r != nil {
							sentry.CurrentHub().Recover(r)
							sentry.Flush(2 * time.Second)
							panic(r)
						}
					}()
				}
			}

			var m *metrics.Metrics
			if cfg.Metrics.Enabled {
				m = metrics.New()
			}

			ctx, cancel := signal.NotifyContext(
				context.Background(),
				syscall.SIGINT,
				syscall.SIGTERM,
			)
			defer cancel()

			if cfg.Metrics.Enabled {
				srv := metricsServer(cfg.Metrics.Listen, m)
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error().Err(err).Str("listen", cfg.Metrics.Listen).Msg("metrics server failed")
					}
				}()
				defer func() { _ = srv.Close() }()
			}

			reg := export.NewRegistry(logger.Logger, m)
			fan := export.NewFanout(reg, buildExporters(cfg))

			// SIGHUP sweeps file targets closed so the next record
			// reopens them at the rotated path.
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-hup:
						logger.Info().Msg("rotation signal received, reopening file destinations")
						reg.Reopen()
					}
				}
			}()

			if configFile != "" {
				reloader := config.NewReloader(configFile)
				go func() { _ = reloader.Start(ctx) }()
				go func() {
					for newCfg := range reloader.Changes() {
						logger.Info().Msg("config reloaded, rebuilding exporter set")
						fan.Replace(buildExporters(newCfg))
					}
				}()
			}

			logger.Info().
				Str("version", Version).
				Str("intake", cfg.Intake.Source).
				Int("exporters", len(cfg.Exporters)).
				Msg("exportd starting")

			in := intake.New(cfg.Intake, logger.Logger, m)
			runErr := in.Run(ctx, fan.Deliver)

			reg.Close()
			logger.Info().Msg("exportd stopped")
			return runErr
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")

	return cmd
}

// buildExporters converts validated exporter configs into descriptors.
func buildExporters(cfg *config.Config) []*export.Exporter {
	exporters := make([]*export.Exporter, 0, len(cfg.Exporters))
	for _, e := range cfg.Exporters {
		kind, err := export.ParseKind(e.Transport)
		if err != nil {
			// Validate already rejected unknown transports.
			continue
		}
		exporters = append(exporters, &export.Exporter{
			Name:           e.Name,
			Destination:    e.Destination,
			Kind:           kind,
			ConnectTimeout: e.ConnectTimeout(),
		})
	}
	return exporters
}

// sentryDSN resolves the crash reporting DSN from config or environment.
func sentryDSN(cfg *config.Config) string {
	if cfg.Sentry.DSN != "" {
		return cfg.Sentry.DSN
	}
	return os.Getenv("SENTRY_DSN")
}

func metricsServer(listen string, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.PrometheusHandler())
	mux.Handle("/stats", m.StatsHandler())
	return &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
