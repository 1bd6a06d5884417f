package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clime-app/ipeds-etl/internal/domain"
)

// isolateEnv keeps a developer's environment out of command tests.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("BATCH_SIZE", "2")
	t.Setenv("DEFAULT_TIMEZONE", domain.DefaultTimezone)
}

func exportRow(name string, overrides map[string]string) []string {
	values := map[string]string{
		domain.HeaderName:               name,
		domain.HeaderStreetAddress:      "1 University Ave",
		domain.HeaderCity:               "San Francisco",
		domain.HeaderState:              "CA",
		domain.HeaderZIPCode:            "94117-1080",
		domain.HeaderWebsite:            "www.testu.edu",
		domain.HeaderLongitude:          "-122.4",
		domain.HeaderLatitude:           "37.8",
		domain.HeaderTotalEnrollment:    "1250",
		domain.HeaderOpenAdmission:      "No",
		domain.HeaderSecondarySchoolGPA: "Required",
	}
	for k, v := range overrides {
		values[k] = v
	}
	out := make([]string, len(domain.Columns))
	for i, c := range domain.Columns {
		out[i] = values[c.External]
	}
	return out
}

func writeExport(t *testing.T, header []string, rows ...[]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(header))
	for _, r := range rows {
		require.NoError(t, w.Write(r))
	}
	w.Flush()
	require.NoError(t, w.Error())

	path := filepath.Join(t.TempDir(), "ipeds.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
