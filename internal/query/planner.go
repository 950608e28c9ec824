// Package query plans and executes range queries against the readings
// store: stride-sampled projections and daily aggregations.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlSimons/graph-ambient-weather/internal/store"
)

// ErrUnsupportedAggregation is returned when a caller asks to
// aggregate more than one column at once. Daily summaries are
// single-metric views.
var ErrUnsupportedAggregation = errors.New("daily aggregation supports exactly one column")

// Planner executes queries against an explicitly owned store handle.
type Planner struct {
	store store.Store
}

// NewPlanner creates a Planner reading from s.
func NewPlanner(s store.Store) *Planner {
	return &Planner{store: s}
}

// Sample returns an evenly spaced subset of the readings in range,
// projected to columns and bounded near maxPoints rows. The stride is
// floor(n/maxPoints) over the n rows in range, keeping every stride-th
// row by position; integer rounding may return slightly more or fewer
// than maxPoints, which is deliberate — truncating would bias the
// sample toward the start of the range. An empty range returns an
// empty result, never an error.
func (p *Planner) Sample(ctx context.Context, rng store.Range, columns []string, maxPoints int) ([]store.Row, error) {
	if maxPoints < 1 {
		return nil, fmt.Errorf("maxPoints must be >= 1, got %d", maxPoints)
	}

	n, err := p.store.CountRange(ctx, rng)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	stride := n / maxPoints
	if stride < 1 {
		stride = 1
	}
	return p.store.ScanSampled(ctx, rng, columns, stride)
}

// Aggregate returns one (day, value) per calendar day in range,
// aggregating a single column with mode. Days without readings are
// absent; an empty range returns an empty result, never an error.
func (p *Planner) Aggregate(ctx context.Context, rng store.Range, columns []string, mode store.AggMode) ([]store.DayValue, error) {
	if len(columns) != 1 {
		return nil, fmt.Errorf("%w, got %d", ErrUnsupportedAggregation, len(columns))
	}
	return p.store.ScanDailyAggregate(ctx, rng, columns[0], mode)
}
