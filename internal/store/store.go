package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamp layouts. Readings are keyed on the canonical form, which
// sorts lexically in chronological order.
const (
	CanonicalLayout = "2006-01-02 15:04:05"
	DayLayout       = "2006-01-02"
)

// Reading is one persisted weather-station record: a canonical
// timestamp plus the 19 measurements of a WS-2000 backup row, in
// backup column order. Measurements absent from the backup are NULL.
type Reading struct {
	Timestamp       string // canonical form, unique key
	IndoorTemp      sql.NullFloat64
	IndoorHumidity  sql.NullFloat64
	OutdoorTemp     sql.NullFloat64
	OutdoorHumidity sql.NullFloat64
	DewPoint        sql.NullFloat64
	FeelsLike       sql.NullFloat64
	Wind            sql.NullFloat64
	Gust            sql.NullFloat64
	WindDir         sql.NullFloat64
	AbsPressure     sql.NullFloat64
	RelPressure     sql.NullFloat64
	SolarRadiation  sql.NullFloat64
	UVIndex         sql.NullFloat64
	HourlyRain      sql.NullFloat64
	EventRain       sql.NullFloat64
	DailyRain       sql.NullFloat64
	WeeklyRain      sql.NullFloat64
	MonthlyRain     sql.NullFloat64
	YearlyRain      sql.NullFloat64
}

// measurements returns pointers to the measurement fields in backup
// column order, for positional assignment and binding.
func (r *Reading) measurements() []*sql.NullFloat64 {
	return []*sql.NullFloat64{
		&r.IndoorTemp, &r.IndoorHumidity,
		&r.OutdoorTemp, &r.OutdoorHumidity,
		&r.DewPoint, &r.FeelsLike,
		&r.Wind, &r.Gust, &r.WindDir,
		&r.AbsPressure, &r.RelPressure,
		&r.SolarRadiation, &r.UVIndex,
		&r.HourlyRain, &r.EventRain, &r.DailyRain,
		&r.WeeklyRain, &r.MonthlyRain, &r.YearlyRain,
	}
}

// SetMeasurement assigns the i-th measurement (backup column order,
// zero-based, timestamp excluded).
func (r *Reading) SetMeasurement(i int, v sql.NullFloat64) {
	*r.measurements()[i] = v
}

// Measurement returns the i-th measurement in backup column order.
func (r *Reading) Measurement(i int) sql.NullFloat64 {
	return *r.measurements()[i]
}

// Range bounds a query by canonical timestamp. An empty bound is
// unbounded on that side.
type Range struct {
	Start string
	End   string
}

// IsEmpty reports whether the range can match no row (start after
// end). Such a range queries as empty, never as an error.
func (r Range) IsEmpty() bool {
	return r.Start != "" && r.End != "" && r.Start > r.End
}

// Row is one projected result of a sampled scan: the canonical
// timestamp followed by the requested columns in request order.
type Row struct {
	Timestamp string
	Values    []sql.NullFloat64
}

// DayValue is one result of a daily aggregation.
type DayValue struct {
	Day   string
	Value float64
}

// AggMode selects the per-day aggregation function.
type AggMode int

const (
	AggMin AggMode = iota
	AggMax
	AggAvg
)

func (m AggMode) String() string {
	switch m {
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggAvg:
		return "avg"
	default:
		return fmt.Sprintf("AggMode(%d)", int(m))
	}
}

// sqlFunc returns the SQL aggregate function for the mode.
func (m AggMode) sqlFunc() (string, error) {
	switch m {
	case AggMin:
		return "MIN", nil
	case AggMax:
		return "MAX", nil
	case AggAvg:
		return "AVG", nil
	default:
		return "", fmt.Errorf("unknown aggregation mode %d", int(m))
	}
}

// DuplicateTimestampError reports an insert that collided with an
// already-stored timestamp. A given minute of measurement can occur
// only once, so the colliding row is rejected, never overwritten.
type DuplicateTimestampError struct {
	Timestamp string
}

func (e *DuplicateTimestampError) Error() string {
	return fmt.Sprintf("duplicate timestamp %q", e.Timestamp)
}

// LoadTx is the single transaction of one load run. Inserts are not
// visible to readers until Commit; Rollback restores the pre-load
// state, including the rows the transaction truncated.
type LoadTx interface {
	// Insert adds one reading. Returns *DuplicateTimestampError if the
	// timestamp is already present in this load.
	Insert(ctx context.Context, r *Reading) error

	Commit() error
	Rollback() error
}

// Store is the append-oriented readings table.
// Both SQLite and PostgreSQL implementations satisfy this interface.
type Store interface {
	// BeginLoad starts a load run. The returned transaction has already
	// truncated the table and reset the row-id sequence: a load is a
	// full reload of one backup snapshot, not an incremental merge.
	BeginLoad(ctx context.Context) (LoadTx, error)

	// CountRange returns the number of readings within the range.
	CountRange(ctx context.Context, rng Range) (int, error)

	// ScanSampled returns the readings within the range whose row id is
	// a multiple of stride, projected to columns, ordered by timestamp.
	// stride 1 returns every row.
	ScanSampled(ctx context.Context, rng Range, columns []string, stride int) ([]Row, error)

	// ScanDailyAggregate returns one (day, value) per calendar day in
	// range, aggregating column with mode. Days without readings are
	// absent from the result.
	ScanDailyAggregate(ctx context.Context, rng Range, column string, mode AggMode) ([]DayValue, error)

	// Count returns the total number of readings.
	Count(ctx context.Context) (int, error)

	// DataRange returns the oldest and newest stored timestamps, both
	// empty when the store holds no readings.
	DataRange(ctx context.Context) (oldest, newest string, err error)

	// Close closes the database connection.
	Close() error
}
