// Package sqlstore persists normalized institutions to the universities table
// of a SQLite, PostgreSQL, or MySQL database.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/clime-app/ipeds-etl/internal/config"
	"github.com/clime-app/ipeds-etl/internal/domain"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const table = "universities"

func init() {
	// modernc registers itself as "sqlite", which sqlx does not map by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type dialect struct {
	driverName   string
	schemaFile   string
	timezoneType string
	dsn          func(url string) string
}

var dialects = map[string]dialect{
	config.DriverSQLite: {
		driverName:   "sqlite",
		schemaFile:   "schema/sqlite.sql",
		timezoneType: "TEXT",
		dsn:          sqliteDSN,
	},
	config.DriverPostgres: {
		driverName:   "postgres",
		schemaFile:   "schema/postgres.sql",
		timezoneType: "TEXT",
		dsn:          func(url string) string { return url },
	},
	config.DriverMySQL: {
		driverName:   "mysql",
		schemaFile:   "schema/mysql.sql",
		timezoneType: "VARCHAR(64)",
		dsn:          func(url string) string { return strings.TrimPrefix(url, "mysql://") },
	},
}

// sqliteDSN accepts a bare path or a sqlite:// URL and adds the pragmas the
// importer relies on.
func sqliteDSN(url string) string {
	path := strings.TrimPrefix(url, "sqlite://")
	if strings.Contains(path, "?") {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Record is a stored institution with its store-assigned id and enrichment
// columns.
type Record struct {
	ID int64 `db:"id"`
	domain.Institution
	Timezone sql.NullString `db:"timezone"`
}

// Store reads and writes the universities table.
type Store struct {
	db      *sqlx.DB
	dialect dialect
	insert  string
}

// Open connects to the database at url using the named driver (sqlite,
// postgres, or mysql) and verifies the connection.
func Open(ctx context.Context, driver, url string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(d.driverName, d.dsn(url))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return New(db, driver)
}

// New wraps an existing connection. driver selects the schema dialect.
func New(db *sqlx.DB, driver string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return &Store{db: db, dialect: d, insert: insertQuery()}, nil
}

func insertQuery() string {
	names := domain.InternalNames()
	params := make([]string, len(names))
	for i, n := range names {
		params[i] = ":" + n
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(params, ", "))
}

// CreateTable creates the universities table if it does not exist.
func (s *Store) CreateTable(ctx context.Context) error {
	ddl, err := schemaFS.ReadFile(s.dialect.schemaFile)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Clear deletes every row from the universities table.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear table: %w", err)
	}
	return nil
}

// LoadBatch inserts institutions in a single transaction. Nothing from the
// batch is kept if any insert fails.
func (s *Store) LoadBatch(ctx context.Context, batch []domain.Institution) (err error) {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, s.insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	if err = insertAll(ctx, stmt, batch); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func insertAll(ctx context.Context, stmt *sqlx.NamedStmt, batch []domain.Institution) error {
	for i := range batch {
		if _, err := stmt.ExecContext(ctx, batch[i]); err != nil {
			return fmt.Errorf("insert %q: %w", batch[i].Name, err)
		}
	}
	return nil
}

// Load is an import held in one transaction: the optional clear and every
// batch become visible together on Commit, or not at all.
type Load struct {
	tx   *sqlx.Tx
	stmt *sqlx.NamedStmt
}

// BeginLoad starts a Load. With replace set, existing rows are deleted inside
// the same transaction.
func (s *Store) BeginLoad(ctx context.Context, replace bool) (*Load, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin load: %w", err)
	}
	if replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("clear table: %w", err)
		}
	}
	stmt, err := tx.PrepareNamedContext(ctx, s.insert)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	return &Load{tx: tx, stmt: stmt}, nil
}

// LoadBatch inserts batch into the open transaction.
func (l *Load) LoadBatch(ctx context.Context, batch []domain.Institution) error {
	return insertAll(ctx, l.stmt, batch)
}

// Commit makes the load visible.
func (l *Load) Commit() error {
	_ = l.stmt.Close()
	if err := l.tx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}
	return nil
}

// Rollback discards the load. It is a no-op after Commit.
func (l *Load) Rollback() error {
	_ = l.stmt.Close()
	if err := l.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback load: %w", err)
	}
	return nil
}

// AddTimezoneColumn adds the non-null timezone column with def as the value
// of existing rows.
func (s *Store) AddTimezoneColumn(ctx context.Context, def string) error {
	query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN timezone %s NOT NULL DEFAULT %s",
		table, s.dialect.timezoneType, quoteLiteral(def))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("add timezone column: %w", err)
	}
	return nil
}

// ListCoordinates returns the location of every row with id > afterID in id
// order.
func (s *Store) ListCoordinates(ctx context.Context, afterID int64) ([]domain.Coordinates, error) {
	query := s.db.Rebind("SELECT id, latitude, longitude FROM " + table + " WHERE id > ? ORDER BY id")
	var out []domain.Coordinates
	if err := s.db.SelectContext(ctx, &out, query, afterID); err != nil {
		return nil, fmt.Errorf("list coordinates: %w", err)
	}
	return out, nil
}

// SetTimezone stores tz for the row with the given id.
func (s *Store) SetTimezone(ctx context.Context, id int64, tz string) error {
	query := s.db.Rebind("UPDATE " + table + " SET timezone = ? WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, query, tz, id); err != nil {
		return fmt.Errorf("set timezone for %d: %w", id, err)
	}
	return nil
}

// ErrNotFound is returned by Get when no row has the requested id.
var ErrNotFound = errors.New("institution not found")

// Get reads back one stored row.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	query := s.db.Rebind("SELECT * FROM " + table + " WHERE id = ?")
	var rec Record
	if err := s.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get institution %d: %w", id, err)
	}
	return rec, nil
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, fmt.Errorf("count institutions: %w", err)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
