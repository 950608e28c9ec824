package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/AlSimons/graph-ambient-weather/internal/store"
)

// sliceSource yields pre-built rows; the test double for a backup file.
type sliceSource struct {
	rows [][]string
	i    int
}

func (s *sliceSource) Next() ([]string, error) {
	if s.i >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.i]
	s.i++
	return row, nil
}

var header = makeFields("Time", "header")

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestLoader(s store.Store) *Loader {
	return NewLoader(s, slog.Default())
}

// dataRow builds a backup row with the given raw timestamp and
// outdoor temperature.
func dataRow(ts, otemp string) []string {
	fields := makeFields(ts, "1.0")
	fields[3] = otemp
	return fields
}

func TestLoader_Load(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	src := &sliceSource{rows: [][]string{
		header,
		dataRow("2024/01/01 00:00", "10.0"),
		dataRow("2024/01/01 00:05", "11.0"),
		dataRow("2024/01/02 00:00", "20.0"),
	}}

	count, err := newTestLoader(s).Load(ctx, src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	rows, err := s.ScanSampled(ctx, store.Range{}, []string{"outdoor_temp"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	wantTS := []string{"2024-01-01 00:00:00", "2024-01-01 00:05:00", "2024-01-02 00:00:00"}
	if len(rows) != len(wantTS) {
		t.Fatalf("stored %d rows, want %d", len(rows), len(wantTS))
	}
	for i, w := range wantTS {
		if rows[i].Timestamp != w {
			t.Errorf("row %d timestamp = %q, want %q", i, rows[i].Timestamp, w)
		}
	}
}

func TestLoader_MalformedMeasurementAborts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A prior good snapshot.
	prior := &sliceSource{rows: [][]string{
		header,
		dataRow("2024/01/01 00:00", "10.0"),
		dataRow("2024/01/01 00:05", "11.0"),
	}}
	if _, err := newTestLoader(s).Load(ctx, prior); err != nil {
		t.Fatal(err)
	}

	// A corrupt export: one good row, then a non-numeric field.
	corrupt := &sliceSource{rows: [][]string{
		header,
		dataRow("2024/02/01 00:00", "12.0"),
		dataRow("2024/02/01 00:05", "not-a-number"),
		dataRow("2024/02/01 00:10", "13.0"),
	}}
	_, err := newTestLoader(s).Load(ctx, corrupt)
	var mm *MalformedMeasurementError
	if !errors.As(err, &mm) {
		t.Fatalf("error = %v, want *MalformedMeasurementError", err)
	}
	if mm.Column != "outdoor_temp" {
		t.Errorf("column = %q, want outdoor_temp", mm.Column)
	}

	// Nothing from the aborted run is visible; the prior snapshot survives.
	count, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("count after aborted load = %d, want the prior 2", count)
	}
	oldest, _, err := s.DataRange(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if oldest != "2024-01-01 00:00:00" {
		t.Errorf("oldest = %q, want the prior snapshot's first reading", oldest)
	}
}

func TestLoader_MalformedTimestampAborts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	src := &sliceSource{rows: [][]string{
		header,
		dataRow("2024/01/01 00:00", "10.0"),
		dataRow("01-02-2024 00:00", "11.0"),
	}}
	_, err := newTestLoader(s).Load(ctx, src)
	var mt *MalformedTimestampError
	if !errors.As(err, &mt) {
		t.Fatalf("error = %v, want *MalformedTimestampError", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 rows from the aborted run", count)
	}
}

func TestLoader_DuplicateTimestampAborts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	src := &sliceSource{rows: [][]string{
		header,
		dataRow("2024/01/01 00:00", "10.0"),
		dataRow("2024/01/01 00:00", "11.0"),
	}}
	_, err := newTestLoader(s).Load(ctx, src)
	var dup *store.DuplicateTimestampError
	if !errors.As(err, &dup) {
		t.Fatalf("error = %v, want *store.DuplicateTimestampError", err)
	}
	if dup.Timestamp != "2024-01-01 00:00:00" {
		t.Errorf("duplicate timestamp = %q", dup.Timestamp)
	}
}

func TestLoader_HeaderOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := newTestLoader(s).Load(ctx, &sliceSource{rows: [][]string{header}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestLoader_EmptyFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := newTestLoader(s).Load(ctx, &sliceSource{}); err == nil {
		t.Error("expected error for backup with no header row")
	}
}
