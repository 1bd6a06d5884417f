package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clime-app/ipeds-etl/internal/adapter/geonames"
	httpadapter "github.com/clime-app/ipeds-etl/internal/adapter/http"
	"github.com/clime-app/ipeds-etl/internal/adapter/sqlstore"
	"github.com/clime-app/ipeds-etl/internal/config"
	"github.com/clime-app/ipeds-etl/internal/pipeline"
)

type timezonesOptions struct {
	database        string
	createColumn    bool
	startAt         int64
	defaultTimezone string
}

func newTimezonesCmd(root *rootOptions) *cobra.Command {
	opts := &timezonesOptions{}
	cmd := &cobra.Command{
		Use:   "timezones <database_url> <geonames_username>",
		Short: "Store the IANA timezone of every loaded institution",
		Long: "timezones looks up each stored institution's coordinates with the GeoNames\n" +
			"timezone service and writes the result to the timezone column. Failed lookups\n" +
			"store the default timezone. Use --start-at with the reported last id to resume.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimezones(cmd, root, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.database, "database", "", "sqlite, postgres, or mysql (overrides DATABASE_DRIVER)")
	cmd.Flags().BoolVar(&opts.createColumn, "create-column", false, "add the timezone column before enriching")
	cmd.Flags().Int64Var(&opts.startAt, "start-at", 0, "skip rows with id less than or equal to this value")
	cmd.Flags().StringVar(&opts.defaultTimezone, "default-timezone", "", "timezone stored when a lookup fails (overrides DEFAULT_TIMEZONE)")

	return cmd
}

func runTimezones(cmd *cobra.Command, root *rootOptions, opts *timezonesOptions, dbURL, username string) error {
	rt, err := root.setup(func(cfg *config.Config) {
		if opts.database != "" {
			cfg.DatabaseDriver = opts.database
		}
		if opts.defaultTimezone != "" {
			cfg.DefaultTimezone = opts.defaultTimezone
		}
	})
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, err := sqlstore.Open(ctx, rt.cfg.DatabaseDriver, dbURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			rt.logger.Error("database close error", "error", err)
		}
	}()

	client := geonames.NewClient(rt.cfg.GeonamesBaseURL, username, rt.cfg.GeonamesTimeout, rt.metrics, rt.logger)
	enricher := pipeline.NewEnricher(store, client, rt.logger, rt.metrics, pipeline.EnrichOptions{
		CreateColumn:    opts.createColumn,
		StartAt:         opts.startAt,
		DefaultTimezone: rt.cfg.DefaultTimezone,
	})

	var sum pipeline.EnrichSummary
	ready := storeReadiness{job: enricher, store: store}
	err = rt.runJob(ctx, "timezones", ready, func(ctx context.Context) error {
		var runErr error
		sum, runErr = enricher.Run(ctx)
		return runErr
	})

	fmt.Fprintf(cmd.OutOrStdout(), "processed %d rows: %d resolved, %d defaulted; last id %d (%s)\n",
		sum.Processed, sum.Resolved, sum.Fallbacks, sum.LastID, sum.Duration.Round(time.Millisecond))
	return err
}

// storeReadiness is ready once the job has made progress and the database
// still answers.
type storeReadiness struct {
	job   httpadapter.ReadinessChecker
	store interface{ Ping(context.Context) error }
}

func (r storeReadiness) CheckReadiness(ctx context.Context) error {
	if err := r.job.CheckReadiness(ctx); err != nil {
		return err
	}
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}
