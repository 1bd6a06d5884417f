package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/clime-app/ipeds-etl/internal/adapter/csvsource"
	"github.com/clime-app/ipeds-etl/internal/adapter/sqlstore"
	"github.com/clime-app/ipeds-etl/internal/config"
	"github.com/clime-app/ipeds-etl/internal/domain"
)

// errValidationFailed is returned after a failing report has been printed.
var errValidationFailed = errors.New("validation failed")

// maxReportedErrors caps the detail lines printed per phase.
const maxReportedErrors = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type validateOptions struct {
	sample int
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate <file.csv>",
		Short: "Check an IPEDS export against the column mapping without loading it",
		Long: "validate checks the header against the column mapping, decodes and normalizes\n" +
			"every row, and round-trips a sample through a temporary SQLite table. Run it\n" +
			"before loading a new collection year.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := root.setup(nil)
			if err != nil {
				return err
			}
			ok, err := validateExport(cmd.Context(), cmd.OutOrStdout(), args[0], opts.sample, rt.logger)
			if err != nil {
				return err
			}
			if !ok {
				return errValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.sample, "sample", 100, "rows to round-trip through SQLite (0 skips the phase)")

	return cmd
}

// validateExport runs every phase over the export at path, prints the report
// to w, and reports whether all phases passed.
func validateExport(ctx context.Context, w io.Writer, path string, sample int, logger *slog.Logger) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	reader, err := csvsource.NewReader(f, logger)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}

	header := checkHeader(reader.HeaderReport())
	decode := &phase{name: "Phase 2: Row Decoding"}
	normalize := &phase{name: "Phase 3: Normalization"}

	var (
		rows    int
		valid   int
		samples []domain.Institution
	)
	fallbacks := make(map[string]int)
	for {
		batch, err := reader.ExtractBatch(ctx, 500)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return false, err
		}
		for _, raw := range batch {
			rows++
			if raw.Err != nil {
				decode.errorf("row %d: %v", raw.Row, raw.Err)
				continue
			}
			inst, err := domain.Normalize(raw.Record)
			if err != nil {
				normalize.errorf("row %d: %v", raw.Row, err)
				continue
			}
			valid++
			for _, h := range domain.ConsiderationFallbacks(raw.Record) {
				fallbacks[h]++
			}
			if len(samples) < sample {
				samples = append(samples, inst)
			}
		}
	}
	if rows == 0 {
		decode.errorf("no data rows in %s", path)
	}
	for _, h := range sortedKeys(fallbacks) {
		normalize.notef("%q: %d unrecognized values stored as not recommended", h, fallbacks[h])
	}

	phases := []*phase{header, decode, normalize}
	if sample > 0 {
		phases = append(phases, checkRoundTrip(ctx, samples, logger))
	}

	return report(w, phases, rows, valid), nil
}

func checkHeader(r domain.HeaderReport) *phase {
	p := &phase{name: "Phase 1: Header"}
	for _, c := range r.Missing {
		p.errorf("missing %s column %q (%s)", c.Kind, c.External, c.Internal)
	}
	if len(r.Unrecognized) > 0 {
		p.notef("%d unmapped columns ignored", len(r.Unrecognized))
	}
	return p
}

// checkRoundTrip loads samples into a scratch SQLite table and compares what
// reads back.
func checkRoundTrip(ctx context.Context, samples []domain.Institution, logger *slog.Logger) *phase {
	p := &phase{name: "Phase 4: Storage Round Trip (SQLite)"}
	if len(samples) == 0 {
		p.notef("no valid rows to round-trip")
		return p
	}

	dir, err := os.MkdirTemp("", "ipeds-validate-*")
	if err != nil {
		p.errorf("create scratch dir: %v", err)
		return p
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("remove scratch dir", "dir", dir, "error", err)
		}
	}()

	store, err := sqlstore.Open(ctx, config.DriverSQLite, filepath.Join(dir, "roundtrip.db"))
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	defer store.Close()

	if err := store.CreateTable(ctx); err != nil {
		p.errorf("%v", err)
		return p
	}
	if err := store.LoadBatch(ctx, samples); err != nil {
		p.errorf("%v", err)
		return p
	}

	for i := range samples {
		rec, err := store.Get(ctx, int64(i+1))
		if err != nil {
			p.errorf("sample %d (%s): %v", i+1, samples[i].Name, err)
			continue
		}
		if diff := cmp.Diff(samples[i], rec.Institution); diff != "" {
			p.errorf("sample %d (%s) differs after storage (-want +got):\n%s", i+1, samples[i].Name, diff)
		}
	}
	p.notef("%d rows compared", len(samples))
	return p
}

func report(w io.Writer, phases []*phase, rows, valid int) bool {
	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Rows: %d read, %d valid, %d rejected\n", rows, valid, rows-valid)

	for _, p := range phases {
		if len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s notes ---\n", p.name)
		for _, n := range p.notes {
			fmt.Fprintf(w, "  %s\n", n)
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReportedErrors {
				fmt.Fprintf(w, "  ... %d more\n", len(p.errors)-maxReportedErrors)
				break
			}
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return true
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return false
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
