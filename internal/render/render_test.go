package render

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/AlSimons/graph-ambient-weather/internal/store"
)

func f(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func sampleSeries() []Series {
	rows := []store.Row{
		{Timestamp: "2024-01-01 00:00:00", Values: []sql.NullFloat64{f(10), f(60)}},
		{Timestamp: "2024-01-01 00:05:00", Values: []sql.NullFloat64{f(11.5), {}}},
	}
	return FromRows(rows, []string{"Outdoor temperature", "Outdoor humidity"})
}

func TestFromRows(t *testing.T) {
	series := sampleSeries()
	if len(series) != 2 {
		t.Fatalf("got %d series, want 2", len(series))
	}
	if series[0].Title != "Outdoor temperature" {
		t.Errorf("title = %q", series[0].Title)
	}
	if len(series[0].Points) != 2 {
		t.Fatalf("got %d points, want 2", len(series[0].Points))
	}
	if series[1].Points[1].Y.Valid {
		t.Error("missing value should stay absent")
	}
}

func TestFromDayValues(t *testing.T) {
	days := []store.DayValue{{Day: "2024-01-01", Value: 10.5}, {Day: "2024-01-02", Value: 20}}
	series := FromDayValues(days, "Avg Outdoor temperature")
	if len(series) != 1 {
		t.Fatalf("got %d series, want 1", len(series))
	}
	if series[0].Points[0].X != "2024-01-01" || series[0].Points[0].Y.Float64 != 10.5 {
		t.Errorf("first point = %+v", series[0].Points[0])
	}
}

func TestCSVRenderer(t *testing.T) {
	var sb strings.Builder
	if err := (&CSVRenderer{W: &sb}).Render(sampleSeries()); err != nil {
		t.Fatal(err)
	}

	want := "time,Outdoor temperature,Outdoor humidity\n" +
		"2024-01-01 00:00:00,10,60\n" +
		"2024-01-01 00:05:00,11.5,\n"
	if sb.String() != want {
		t.Errorf("csv output:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestTableRenderer(t *testing.T) {
	var sb strings.Builder
	if err := (&TableRenderer{W: &sb}).Render(sampleSeries()); err != nil {
		t.Fatal(err)
	}

	out := sb.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "Outdoor temperature") {
		t.Errorf("header missing title: %q", lines[0])
	}
	if !strings.Contains(lines[2], "11.5") {
		t.Errorf("second row missing value: %q", lines[2])
	}
}

func TestRender_NoSeries(t *testing.T) {
	var sb strings.Builder
	if err := (&CSVRenderer{W: &sb}).Render(nil); err != nil {
		t.Fatal(err)
	}
	if sb.String() != "time\n" {
		t.Errorf("empty render = %q", sb.String())
	}
}
