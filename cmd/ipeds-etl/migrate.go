package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clime-app/ipeds-etl/internal/adapter/csvsource"
	kafkaadapter "github.com/clime-app/ipeds-etl/internal/adapter/kafka"
	"github.com/clime-app/ipeds-etl/internal/adapter/sqlstore"
	"github.com/clime-app/ipeds-etl/internal/config"
	"github.com/clime-app/ipeds-etl/internal/pipeline"
)

const (
	sinkSQL   = "sql"
	sinkKafka = "kafka"
)

type migrateOptions struct {
	database     string
	sink         string
	keepExisting bool
	batchSize    int
	maxFailures  float64
}

func newMigrateCmd(root *rootOptions) *cobra.Command {
	opts := &migrateOptions{}
	cmd := &cobra.Command{
		Use:   "migrate <file.csv> [database_url]",
		Short: "Normalize an IPEDS export and load it into the universities table",
		Long: "migrate reads the export, normalizes every row, and writes the results to the sink.\n" +
			"Rows that fail to normalize are logged and skipped. With the sql sink the table is\n" +
			"created if needed, emptied unless --keep-existing is set, and loaded in a single\n" +
			"transaction that commits only if the run succeeds.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.database, "database", "", "sqlite, postgres, or mysql (overrides DATABASE_DRIVER)")
	cmd.Flags().StringVar(&opts.sink, "sink", sinkSQL, "sql or kafka")
	cmd.Flags().BoolVar(&opts.keepExisting, "keep-existing", false, "append instead of replacing the table contents")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "rows per transaction or publish (overrides BATCH_SIZE)")
	cmd.Flags().Float64Var(&opts.maxFailures, "max-failures", 1,
		"largest tolerated fraction of rejected rows; above it the sql sink rolls back the whole load")

	return cmd
}

func runMigrate(cmd *cobra.Command, root *rootOptions, opts *migrateOptions, args []string) error {
	rt, err := root.setup(func(cfg *config.Config) {
		if opts.database != "" {
			cfg.DatabaseDriver = opts.database
		}
		if opts.batchSize > 0 {
			cfg.BatchSize = opts.batchSize
		}
	})
	if err != nil {
		return err
	}
	if opts.maxFailures <= 0 || opts.maxFailures > 1 {
		return fmt.Errorf("--max-failures must be greater than 0 and at most 1, got %g", opts.maxFailures)
	}

	var dbURL string
	if len(args) == 2 {
		dbURL = args[1]
	}
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	reader, err := csvsource.NewReader(f, rt.logger)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if missing := reader.HeaderReport().MissingRequired(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, c := range missing {
			names[i] = c.External
		}
		return fmt.Errorf("%s: missing required columns: %s", args[0], strings.Join(names, "; "))
	}

	snk, err := openSink(ctx, rt, opts, dbURL)
	if err != nil {
		return err
	}

	importer := pipeline.NewImporter(
		reader,
		pipeline.NewTransformer(rt.logger, rt.metrics),
		snk.loader,
		rt.logger,
		rt.metrics,
		pipeline.Options{BatchSize: rt.cfg.BatchSize, MaxFailures: opts.maxFailures},
	)

	var sum pipeline.Summary
	err = rt.runJob(ctx, "migrate", importer, func(ctx context.Context) error {
		var runErr error
		sum, runErr = importer.Run(ctx)
		return runErr
	})
	if ferr := snk.finish(err); ferr != nil && err == nil {
		err = ferr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "read %d rows: %d loaded, %d rejected (%s)\n",
		sum.Read, sum.Loaded, sum.Failed, sum.Duration.Round(time.Millisecond))
	if err != nil && opts.sink == sinkSQL {
		fmt.Fprintln(out, "load rolled back; table unchanged")
	}
	return err
}

// sink is an opened destination. finish receives the run's outcome, commits
// or discards what was written, and releases the destination.
type sink struct {
	loader pipeline.BatchLoader
	finish func(runErr error) error
}

// openSink prepares the destination selected by --sink. The sql sink writes
// the whole run in one transaction, so a failed or rejected run leaves the
// table as it was.
func openSink(ctx context.Context, rt *runtime, opts *migrateOptions, dbURL string) (sink, error) {
	switch opts.sink {
	case sinkKafka:
		w := kafkaadapter.NewWriter(rt.cfg, rt.logger)
		rt.logger.Info("publishing to kafka", "brokers", rt.cfg.KafkaBrokers, "topic", rt.cfg.KafkaTopic)
		return sink{loader: w, finish: func(error) error {
			if err := w.Close(); err != nil {
				return fmt.Errorf("close kafka writer: %w", err)
			}
			return nil
		}}, nil

	case sinkSQL:
		if dbURL == "" {
			return sink{}, errors.New("database_url is required for the sql sink")
		}
		store, err := sqlstore.Open(ctx, rt.cfg.DatabaseDriver, dbURL)
		if err != nil {
			return sink{}, err
		}
		closeStore := func() {
			if err := store.Close(); err != nil {
				rt.logger.Error("database close error", "error", err)
			}
		}
		if err := store.CreateTable(ctx); err != nil {
			closeStore()
			return sink{}, err
		}
		load, err := store.BeginLoad(ctx, !opts.keepExisting)
		if err != nil {
			closeStore()
			return sink{}, err
		}
		return sink{loader: load, finish: func(runErr error) error {
			defer closeStore()
			if runErr != nil {
				if err := load.Rollback(); err != nil {
					rt.logger.Error("rollback failed", "error", err)
				}
				rt.logger.Warn("load rolled back", "error", runErr)
				return nil
			}
			if err := load.Commit(); err != nil {
				return err
			}
			rt.logger.Info("load committed", "driver", rt.cfg.DatabaseDriver, "replaced", !opts.keepExisting)
			return nil
		}}, nil

	default:
		return sink{}, fmt.Errorf("unsupported sink %q (want sql or kafka)", opts.sink)
	}
}
