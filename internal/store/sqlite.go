package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore implements Store backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens a SQLite database, sets file permissions, and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// Set pragmas for performance and safety.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	// Set file permissions to 0600.
	if err := os.Chmod(dsn, 0600); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("setting file permissions: %w", err)
	}

	// Run migrations.
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// DB returns the underlying database connection for migration commands.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// sqliteLoadTx is a load run on a SQLite store.
type sqliteLoadTx struct {
	tx *sql.Tx
}

func (s *SQLiteStore) BeginLoad(ctx context.Context) (LoadTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning load transaction: %w", err)
	}

	// Full-reload semantics: the snapshot replaces everything. Emptying
	// the table inside the transaction also restarts rowid allocation
	// at 1, so row ids stay dense within a load.
	if _, err := tx.ExecContext(ctx, `DELETE FROM readings`); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("truncating readings: %w", err)
	}

	return &sqliteLoadTx{tx: tx}, nil
}

func (t *sqliteLoadTx) Insert(ctx context.Context, r *Reading) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO readings (
			date_time,
			indoor_temp, indoor_humidity,
			outdoor_temp, outdoor_humidity,
			dew_point, feels_like,
			wind, gust, wind_dir,
			abs_pressure, rel_pressure,
			solar_radiation, uv_index,
			hourly_rain, event_rain, daily_rain,
			weekly_rain, monthly_rain, yearly_rain
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Timestamp,
		r.IndoorTemp, r.IndoorHumidity,
		r.OutdoorTemp, r.OutdoorHumidity,
		r.DewPoint, r.FeelsLike,
		r.Wind, r.Gust, r.WindDir,
		r.AbsPressure, r.RelPressure,
		r.SolarRadiation, r.UVIndex,
		r.HourlyRain, r.EventRain, r.DailyRain,
		r.WeeklyRain, r.MonthlyRain, r.YearlyRain,
	)
	if err != nil {
		var serr *sqlite.Error
		if errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return &DuplicateTimestampError{Timestamp: r.Timestamp}
		}
		return fmt.Errorf("inserting reading: %w", err)
	}
	return nil
}

func (t *sqliteLoadTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing load: %w", err)
	}
	return nil
}

func (t *sqliteLoadTx) Rollback() error {
	return t.tx.Rollback()
}

func (s *SQLiteStore) CountRange(ctx context.Context, rng Range) (int, error) {
	if rng.IsEmpty() {
		return 0, nil
	}
	q, args := countQuery(rng, "sqlite")
	var count int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting readings: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) ScanSampled(ctx context.Context, rng Range, columns []string, stride int) ([]Row, error) {
	if rng.IsEmpty() {
		return nil, nil
	}
	q, args, err := sampledQuery(rng, columns, stride, "sqlite")
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sampled readings: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return scanSampledRows(rows, len(columns))
}

func (s *SQLiteStore) ScanDailyAggregate(ctx context.Context, rng Range, column string, mode AggMode) ([]DayValue, error) {
	if rng.IsEmpty() {
		return nil, nil
	}
	q, args, err := dailyAggregateQuery(rng, column, mode, "sqlite")
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying daily aggregate: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return scanDayValues(rows)
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting readings: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) DataRange(ctx context.Context) (oldest, newest string, err error) {
	var oldestRaw, newestRaw sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT MIN(date_time), MAX(date_time) FROM readings`).Scan(&oldestRaw, &newestRaw)
	if err != nil {
		return "", "", fmt.Errorf("querying data range: %w", err)
	}
	return oldestRaw.String, newestRaw.String, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Shared scan helpers ---

func scanSampledRows(rows *sql.Rows, ncols int) ([]Row, error) {
	var result []Row
	for rows.Next() {
		r := Row{Values: make([]sql.NullFloat64, ncols)}
		dest := make([]any, 0, ncols+1)
		dest = append(dest, &r.Timestamp)
		for i := range r.Values {
			dest = append(dest, &r.Values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func scanDayValues(rows *sql.Rows) ([]DayValue, error) {
	var result []DayValue
	for rows.Next() {
		var day string
		var value sql.NullFloat64
		if err := rows.Scan(&day, &value); err != nil {
			return nil, fmt.Errorf("scanning day value: %w", err)
		}
		// A day whose every value is NULL aggregates to NULL; skip it,
		// same as a day with no readings at all.
		if !value.Valid {
			continue
		}
		result = append(result, DayValue{Day: day, Value: value.Float64})
	}
	return result, rows.Err()
}
