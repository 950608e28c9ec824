package ingest

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/AlSimons/graph-ambient-weather/internal/store"
)

// backupTimeLayout is the date-time format the WS-2000 writes into its
// backup files. Minute resolution; the canonical form zero-fills seconds.
const backupTimeLayout = "2006/01/02 15:04"

// numFields is the column count of a backup row: the timestamp plus
// every measurement.
const numFields = 1 + store.NumMeasurements

// MalformedTimestampError reports a row whose date-time text does not
// match the station's export format.
type MalformedTimestampError struct {
	Text string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q (want YYYY/MM/DD HH:MM)", e.Text)
}

// MalformedMeasurementError reports a measurement field that is not a
// finite number, naming the offending column.
type MalformedMeasurementError struct {
	Column string
	Text   string
}

func (e *MalformedMeasurementError) Error() string {
	return fmt.Sprintf("malformed measurement %q in column %s", e.Text, e.Column)
}

// ParseRow transforms one raw backup row into a typed reading. Pure;
// the whole row is rejected on the first bad field. Empty measurement
// fields become NULL (the station omits solar and UV readings when the
// sensor reports nothing).
func ParseRow(fields []string) (*store.Reading, error) {
	if len(fields) != numFields {
		return nil, fmt.Errorf("row has %d fields, want %d", len(fields), numFields)
	}

	ts, err := time.Parse(backupTimeLayout, fields[0])
	if err != nil {
		return nil, &MalformedTimestampError{Text: fields[0]}
	}

	r := &store.Reading{Timestamp: ts.Format(store.CanonicalLayout)}
	for i, text := range fields[1:] {
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &MalformedMeasurementError{
				Column: store.MeasurementName(i),
				Text:   text,
			}
		}
		r.SetMeasurement(i, sql.NullFloat64{Float64: v, Valid: true})
	}
	return r, nil
}
