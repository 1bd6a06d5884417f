//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/clime-app/ipeds-etl/internal/adapter/csvsource"
	"github.com/clime-app/ipeds-etl/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startPostgres runs a throwaway PostgreSQL and returns its connection URL.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("clime"),
		tcpostgres.WithUsername("clime"),
		tcpostgres.WithPassword("clime"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(terminateCtx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

// startKafka runs a single-node Kafka and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("ipeds-test"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(terminateCtx); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cconn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cconn.Close()

	require.NoError(t, cconn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// exportReader builds an in-memory export with one row per institution name.
// An empty name produces a row that fails normalization.
func exportReader(t *testing.T, names ...string) *csvsource.Reader {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(domain.ExpectedHeaders()))
	for i, name := range names {
		values := map[string]string{
			domain.HeaderName:               name,
			domain.HeaderStreetAddress:      strconv.Itoa(i+1) + " University Ave",
			domain.HeaderCity:               "San Francisco",
			domain.HeaderState:              "CA",
			domain.HeaderZIPCode:            "94117",
			domain.HeaderWebsite:            "www.example.edu",
			domain.HeaderLongitude:          "-122.4",
			domain.HeaderLatitude:           "37.8",
			domain.HeaderTotalEnrollment:    "1250",
			domain.HeaderOpenAdmission:      "Yes",
			domain.HeaderSecondarySchoolGPA: "Considered but not required",
			domain.HeaderTOEFL:              "Not considered",
		}
		row := make([]string, len(domain.Columns))
		for j, c := range domain.Columns {
			row[j] = values[c.External]
		}
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())

	r, err := csvsource.NewReader(&buf, discardLogger())
	require.NoError(t, err)
	return r
}
