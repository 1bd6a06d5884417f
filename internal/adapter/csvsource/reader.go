package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/clime-app/ipeds-etl/internal/domain"
)

const utf8BOM = "\ufeff"

// Reader decodes IPEDS export rows into external records.
// It implements pipeline.BatchExtractor.
type Reader struct {
	src    *rowCounter
	dec    *csvutil.Decoder
	header []string
	report domain.HeaderReport
	logger *slog.Logger
}

// NewReader reads and binds the header row. Missing expected columns are
// logged; rows are still decoded and fail individually if a required column
// is absent.
func NewReader(r io.Reader, logger *slog.Logger) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	src := &rowCounter{r: cr}
	dec, err := csvutil.NewDecoder(src, domain.BindHeader(header)...)
	if err != nil {
		return nil, fmt.Errorf("bind csv header: %w", err)
	}

	report := domain.CheckHeader(header)
	for _, c := range report.Missing {
		logger.Warn("expected column missing from header",
			"column", c.External,
			"attribute", c.Internal,
			"kind", c.Kind.String(),
		)
	}
	if len(report.Unrecognized) > 0 {
		logger.Debug("ignoring unmapped columns", "count", len(report.Unrecognized))
	}

	return &Reader{src: src, dec: dec, header: header, report: report, logger: logger}, nil
}

// Header returns the bound header row.
func (r *Reader) Header() []string { return r.header }

// HeaderReport returns the comparison of the header against domain.Columns.
func (r *Reader) HeaderReport() domain.HeaderReport { return r.report }

// ExtractBatch decodes up to batchSize rows. Rows that fail to decode are
// returned with Err set. It returns io.EOF once the file is exhausted and no
// rows remain.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error) {
	batch := make([]domain.RawRecord, 0, batchSize)
	for len(batch) < batchSize {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		var rec domain.ExternalRecord
		err := r.dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			if len(batch) == 0 {
				return nil, io.EOF
			}
			return batch, nil
		}
		if err != nil && !isRowError(err) {
			return batch, fmt.Errorf("read csv row %d: %w", r.src.rows+1, err)
		}
		batch = append(batch, domain.RawRecord{Row: r.src.rows, Record: rec, Err: err})
	}
	return batch, nil
}

// isRowError reports whether err affects only the current row.
func isRowError(err error) bool {
	var parseErr *csv.ParseError
	var typeErr *csvutil.UnmarshalTypeError
	return errors.As(err, &parseErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, csvutil.ErrFieldCount)
}

// rowCounter counts data rows consumed by the decoder.
type rowCounter struct {
	r    *csv.Reader
	rows int
}

func (c *rowCounter) Read() ([]string, error) {
	rec, err := c.r.Read()
	if !errors.Is(err, io.EOF) {
		c.rows++
	}
	return rec, err
}
