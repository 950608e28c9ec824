package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed pgmigrations/*.sql
var pgMigrations embed.FS

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a PostgreSQL connection and runs migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	goose.SetBaseFS(pgMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db, "pgmigrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// DB returns the underlying database connection for migration commands.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// postgresLoadTx is a load run on a PostgreSQL store.
type postgresLoadTx struct {
	tx *sql.Tx
}

func (s *PostgresStore) BeginLoad(ctx context.Context) (LoadTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning load transaction: %w", err)
	}

	// Full-reload semantics; RESTART IDENTITY keeps row ids dense
	// within a load. TRUNCATE is transactional in PostgreSQL, so a
	// rollback restores the previous snapshot.
	if _, err := tx.ExecContext(ctx, `TRUNCATE readings RESTART IDENTITY`); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("truncating readings: %w", err)
	}

	return &postgresLoadTx{tx: tx}, nil
}

func (t *postgresLoadTx) Insert(ctx context.Context, r *Reading) error {
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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
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
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &DuplicateTimestampError{Timestamp: r.Timestamp}
		}
		return fmt.Errorf("inserting reading: %w", err)
	}
	return nil
}

func (t *postgresLoadTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing load: %w", err)
	}
	return nil
}

func (t *postgresLoadTx) Rollback() error {
	return t.tx.Rollback()
}

func (s *PostgresStore) CountRange(ctx context.Context, rng Range) (int, error) {
	if rng.IsEmpty() {
		return 0, nil
	}
	q, args := countQuery(rng, "postgres")
	var count int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting readings: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ScanSampled(ctx context.Context, rng Range, columns []string, stride int) ([]Row, error) {
	if rng.IsEmpty() {
		return nil, nil
	}
	q, args, err := sampledQuery(rng, columns, stride, "postgres")
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

func (s *PostgresStore) ScanDailyAggregate(ctx context.Context, rng Range, column string, mode AggMode) ([]DayValue, error) {
	if rng.IsEmpty() {
		return nil, nil
	}
	q, args, err := dailyAggregateQuery(rng, column, mode, "postgres")
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

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting readings: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DataRange(ctx context.Context) (oldest, newest string, err error) {
	var oldestRaw, newestRaw sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT MIN(date_time), MAX(date_time) FROM readings`).Scan(&oldestRaw, &newestRaw)
	if err != nil {
		return "", "", fmt.Errorf("querying data range: %w", err)
	}
	return oldestRaw.String, newestRaw.String, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
