package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clime-app/ipeds-etl/internal/config"
)

func newMockStore(t *testing.T, driver string) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := New(sqlx.NewDb(db, "sqlmock"), driver)
	require.NoError(t, err)
	return s, mock
}

func TestStore_LoadBatchCommits(t *testing.T) {
	s, mock := newMockStore(t, config.DriverPostgres)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO universities \(name, aliases, street_address`)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(2, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	require.NoError(t, s.LoadBatch(context.Background(), testInstitutions()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadBatchRollsBackOnInsertError(t *testing.T) {
	s, mock := newMockStore(t, config.DriverPostgres)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO universities`)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	err := s.LoadBatch(context.Background(), testInstitutions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `insert "Second College"`)
	assert.Contains(t, err.Error(), "value too long")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadBatchBeginError(t *testing.T) {
	s, mock := newMockStore(t, config.DriverSQLite)

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	err := s.LoadBatch(context.Background(), testInstitutions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin batch")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_BeginLoadClearsInsideTransaction(t *testing.T) {
	s, mock := newMockStore(t, config.DriverPostgres)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM universities`).WillReturnResult(sqlmock.NewResult(0, 12))
	prep := mock.ExpectPrepare(`INSERT INTO universities`)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	load, err := s.BeginLoad(ctx, true)
	require.NoError(t, err)
	require.NoError(t, load.LoadBatch(ctx, testInstitutions()[:1]))
	require.NoError(t, load.LoadBatch(ctx, testInstitutions()[1:2]))
	require.NoError(t, load.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_BeginLoadRollsBackWhenClearFails(t *testing.T) {
	s, mock := newMockStore(t, config.DriverMySQL)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM universities`).WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	_, err := s.BeginLoad(context.Background(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear table")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadRollbackAfterInsertError(t *testing.T) {
	s, mock := newMockStore(t, config.DriverSQLite)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO universities`)
	prep.ExpectExec().WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	ctx := context.Background()
	load, err := s.BeginLoad(ctx, false)
	require.NoError(t, err)
	err = load.LoadBatch(ctx, testInstitutions()[:1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), `insert "Test U"`)
	require.NoError(t, load.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateTableUsesDialectSchema(t *testing.T) {
	tests := []struct {
		driver string
		marker string
	}{
		{config.DriverSQLite, `id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT`},
		{config.DriverPostgres, `id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY`},
		{config.DriverMySQL, `ENGINE=InnoDB`},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			s, mock := newMockStore(t, tt.driver)
			mock.ExpectExec(`CREATE TABLE IF NOT EXISTS universities`).
				WillReturnResult(sqlmock.NewResult(0, 0))

			require.NoError(t, s.CreateTable(context.Background()))
			assert.NoError(t, mock.ExpectationsWereMet())

			ddl, err := schemaFS.ReadFile(s.dialect.schemaFile)
			require.NoError(t, err)
			assert.Contains(t, string(ddl), tt.marker)
		})
	}
}

func TestStore_Clear(t *testing.T) {
	s, mock := newMockStore(t, config.DriverSQLite)
	mock.ExpectExec(`DELETE FROM universities`).WillReturnResult(sqlmock.NewResult(0, 12))

	require.NoError(t, s.Clear(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddTimezoneColumnQuotesDefault(t *testing.T) {
	s, mock := newMockStore(t, config.DriverMySQL)
	mock.ExpectExec(regexp.QuoteMeta(
		`ALTER TABLE universities ADD COLUMN timezone VARCHAR(64) NOT NULL DEFAULT 'Pacific/O''ahu'`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.AddTimezoneColumn(context.Background(), "Pacific/O'ahu"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListCoordinates(t *testing.T) {
	s, mock := newMockStore(t, config.DriverPostgres)
	mock.ExpectQuery(`SELECT id, latitude, longitude FROM universities WHERE id > \? ORDER BY id`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "latitude", "longitude"}).
			AddRow(6, 37.8, -122.4).
			AddRow(9, 45.52, -122.68))

	coords, err := s.ListCoordinates(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, coords, 2)
	assert.Equal(t, int64(6), coords[0].ID)
	assert.InDelta(t, 45.52, coords[1].Latitude, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListCoordinatesError(t *testing.T) {
	s, mock := newMockStore(t, config.DriverPostgres)
	mock.ExpectQuery(`SELECT id, latitude, longitude`).
		WillReturnError(errors.New("no such table: universities"))

	_, err := s.ListCoordinates(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list coordinates")
}

func TestStore_SetTimezone(t *testing.T) {
	s, mock := newMockStore(t, config.DriverSQLite)
	mock.ExpectExec(`UPDATE universities SET timezone = \? WHERE id = \?`).
		WithArgs("America/Chicago", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SetTimezone(context.Background(), 7, "America/Chicago"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetNotFound(t *testing.T) {
	s, mock := newMockStore(t, config.DriverPostgres)
	mock.ExpectQuery(`SELECT \* FROM universities WHERE id = \?`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = New(sqlx.NewDb(db, "sqlmock"), "mssql")
	require.Error(t, err)
}
