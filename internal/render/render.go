// Package render is the presentation side of the query planner: it
// consumes the planner's typed rows and writes them out. Chart layout
// itself belongs to whatever consumes these writers.
package render

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/AlSimons/graph-ambient-weather/internal/store"
)

// Series is one named sequence of (time, value) points.
type Series struct {
	Title  string
	Points []Point
}

// Point is a single charted value. X is a canonical timestamp or day
// string; Y may be absent when the station recorded no value.
type Point struct {
	X string
	Y sql.NullFloat64
}

// Renderer consumes the result of one query.
type Renderer interface {
	Render(series []Series) error
}

// FromRows converts sampled rows into one series per requested column.
func FromRows(rows []store.Row, titles []string) []Series {
	series := make([]Series, len(titles))
	for i, t := range titles {
		series[i].Title = t
		series[i].Points = make([]Point, 0, len(rows))
	}
	for _, r := range rows {
		for i := range titles {
			series[i].Points = append(series[i].Points, Point{X: r.Timestamp, Y: r.Values[i]})
		}
	}
	return series
}

// FromDayValues converts a daily aggregation into a single series.
func FromDayValues(days []store.DayValue, title string) []Series {
	s := Series{Title: title, Points: make([]Point, 0, len(days))}
	for _, d := range days {
		s.Points = append(s.Points, Point{X: d.Day, Y: sql.NullFloat64{Float64: d.Value, Valid: true}})
	}
	return []Series{s}
}

func formatValue(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

// CSVRenderer writes series side by side as CSV: a header row of
// "time" plus the series titles, then one row per point.
type CSVRenderer struct {
	W io.Writer
}

func (r *CSVRenderer) Render(series []Series) error {
	w := csv.NewWriter(r.W)

	header := []string{"time"}
	for _, s := range series {
		header = append(header, s.Title)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for i := 0; i < numPoints(series); i++ {
		record := []string{series[0].Points[i].X}
		for _, s := range series {
			record = append(record, formatValue(s.Points[i].Y))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// TableRenderer writes series as an aligned text table.
type TableRenderer struct {
	W io.Writer
}

func (r *TableRenderer) Render(series []Series) error {
	tw := tabwriter.NewWriter(r.W, 2, 4, 2, ' ', 0)

	fmt.Fprint(tw, "TIME")
	for _, s := range series {
		fmt.Fprintf(tw, "\t%s", s.Title)
	}
	fmt.Fprintln(tw)

	for i := 0; i < numPoints(series); i++ {
		fmt.Fprint(tw, series[0].Points[i].X)
		for _, s := range series {
			fmt.Fprintf(tw, "\t%s", formatValue(s.Points[i].Y))
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

// numPoints returns the common point count. Series from one query
// always have equal lengths; the minimum guards the writers anyway.
func numPoints(series []Series) int {
	if len(series) == 0 {
		return 0
	}
	n := len(series[0].Points)
	for _, s := range series[1:] {
		if len(s.Points) < n {
			n = len(s.Points)
		}
	}
	return n
}
