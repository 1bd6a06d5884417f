package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds all command settings, populated from environment variables.
// Command-line flags override individual fields after Load.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize int

	DatabaseDriver string

	// Timezone enrichment.
	GeonamesBaseURL string
	GeonamesTimeout time.Duration
	DefaultTimezone string

	// Optional Kafka sink.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first if present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	geonamesTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("GEONAMES_TIMEOUT", "5s"))
	if err != nil || geonamesTimeout <= 0 {
		return nil, errors.New("invalid GEONAMES_TIMEOUT")
	}

	cfg := &Config{
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		BatchSize:       batchSize,

		DatabaseDriver: sharedcfg.EnvOrDefault("DATABASE_DRIVER", DriverSQLite),

		GeonamesBaseURL: sharedcfg.EnvOrDefault("GEONAMES_BASE_URL", "http://api.geonames.org"),
		GeonamesTimeout: geonamesTimeout,
		DefaultTimezone: sharedcfg.EnvOrDefault("DEFAULT_TIMEZONE", "America/Los_Angeles"),

		KafkaBrokers: parseList(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "institutions"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that flags may have overridden.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (want sqlite, postgres, or mysql)", c.DatabaseDriver)
	}
	if c.DefaultTimezone == "" {
		return errors.New("DEFAULT_TIMEZONE must not be empty")
	}
	if c.GeonamesBaseURL == "" {
		return errors.New("GEONAMES_BASE_URL must not be empty")
	}
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS must not be empty")
	}
	if c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC must not be empty")
	}
	if c.BatchSize <= 0 {
		return errors.New("BATCH_SIZE must be positive")
	}
	return nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
