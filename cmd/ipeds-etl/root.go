package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	httpadapter "github.com/clime-app/ipeds-etl/internal/adapter/http"
	"github.com/clime-app/ipeds-etl/internal/config"
	"github.com/clime-app/ipeds-etl/internal/observability"
)

// rootOptions holds persistent flags. Empty values defer to the environment.
type rootOptions struct {
	logLevel  string
	logFormat string
	httpAddr  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "ipeds-etl",
		Short: "Load and enrich the IPEDS institution export",
		Long: "ipeds-etl normalizes the IPEDS institution export into the universities table " +
			"and enriches stored rows with timezones from GeoNames.\n\n" +
			"Settings are read from the environment (and a .env file); flags override them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn, or error (overrides LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "json or text (overrides LOG_FORMAT)")
	cmd.PersistentFlags().StringVar(&opts.httpAddr, "http-addr", "", "serve /healthz, /readyz, and /metrics while running (overrides HTTP_ADDR)")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newTimezonesCmd(opts),
		newValidateCmd(opts),
	)
	return cmd
}

// runtime is the per-invocation state shared by subcommands.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	registry *prometheus.Registry
}

// setup loads configuration, applies persistent flags and any command
// overrides, and builds the logger and metrics.
func (o *rootOptions) setup(override func(*config.Config)) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if o.httpAddr != "" {
		cfg.HTTPAddr = o.httpAddr
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := observability.NewRegistry()
	return &runtime{
		cfg:      cfg,
		logger:   observability.NewLogger(cfg),
		metrics:  observability.NewMetrics(reg),
		registry: reg,
	}, nil
}

// runJob calls fn, serving health and metrics on HTTP_ADDR while it runs.
func (r *runtime) runJob(ctx context.Context, job string, ready httpadapter.ReadinessChecker, fn func(context.Context) error) error {
	if r.cfg.HTTPAddr == "" {
		return fn(ctx)
	}

	srv := httpadapter.NewServer(r.cfg.HTTPAddr, job, ready, r.registry, r.logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("http server error", "error", err)
		}
	}()

	err := fn(ctx)
	r.logger.Info("shutting down", "job", job)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), r.cfg.ShutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		r.logger.Error("http server shutdown error", "error", serr)
	}
	return err
}
