package store

import (
	"fmt"
	"strings"
)

// queryBuilder assembles parameterized SELECT statements from
// structured parts. Range, sampling, and grouping conditions compose
// here instead of being concatenated conditionally at call sites.
type queryBuilder struct {
	selects []string
	from    string
	wheres  []string
	args    []any
	groupBy string
	orderBy string
}

func newQueryBuilder(table string) *queryBuilder {
	return &queryBuilder{from: table}
}

func (b *queryBuilder) selectExpr(exprs ...string) *queryBuilder {
	b.selects = append(b.selects, exprs...)
	return b
}

func (b *queryBuilder) where(cond string, args ...any) *queryBuilder {
	b.wheres = append(b.wheres, cond)
	b.args = append(b.args, args...)
	return b
}

// whereRange applies the time-range predicate. Open bounds contribute
// no condition.
func (b *queryBuilder) whereRange(column string, rng Range) *queryBuilder {
	if rng.Start != "" {
		b.where(column+" >= ?", rng.Start)
	}
	if rng.End != "" {
		b.where(column+" <= ?", rng.End)
	}
	return b
}

func (b *queryBuilder) group(expr string) *queryBuilder {
	b.groupBy = expr
	return b
}

func (b *queryBuilder) order(expr string) *queryBuilder {
	b.orderBy = expr
	return b
}

// build renders the statement for the given dialect ("sqlite" or
// "postgres") along with its arguments.
func (b *queryBuilder) build(dialect string) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.selects, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.from)
	if len(b.wheres) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.wheres, " AND "))
	}
	if b.groupBy != "" {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(b.groupBy)
	}
	if b.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.orderBy)
	}

	q := sb.String()
	if dialect == "postgres" {
		q = replacePlaceholders(q)
	}
	return q, b.args
}

// countQuery counts readings within the range.
func countQuery(rng Range, dialect string) (string, []any) {
	return newQueryBuilder("readings").
		selectExpr("COUNT(*)").
		whereRange("date_time", rng).
		build(dialect)
}

// sampledQuery projects columns for readings in range whose row id is
// a multiple of stride, ordered by timestamp.
func sampledQuery(rng Range, cols []string, stride int, dialect string) (string, []any, error) {
	if stride < 1 {
		return "", nil, fmt.Errorf("stride must be >= 1, got %d", stride)
	}
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("at least one column is required")
	}
	for _, c := range cols {
		if !validColumn(c) {
			return "", nil, fmt.Errorf("unknown column %q", c)
		}
	}

	b := newQueryBuilder("readings").
		selectExpr("date_time").
		selectExpr(cols...).
		whereRange("date_time", rng).
		order("date_time")
	if stride > 1 {
		b.where("id % ? = 0", stride)
	}

	q, args := b.build(dialect)
	return q, args, nil
}

// dailyAggregateQuery groups readings in range by calendar day (the
// date portion of the canonical timestamp) and aggregates one column.
func dailyAggregateQuery(rng Range, col string, mode AggMode, dialect string) (string, []any, error) {
	if !validColumn(col) {
		return "", nil, fmt.Errorf("unknown column %q", col)
	}
	fn, err := mode.sqlFunc()
	if err != nil {
		return "", nil, err
	}

	q, args := newQueryBuilder("readings").
		selectExpr("substr(date_time, 1, 10) AS day", fmt.Sprintf("%s(%s)", fn, col)).
		whereRange("date_time", rng).
		group("day").
		order("day").
		build(dialect)
	return q, args, nil
}

// replacePlaceholders converts ? to $1, $2, $3 etc for postgres.
func replacePlaceholders(query string) string {
	result := make([]byte, 0, len(query))
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, fmt.Sprintf("$%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
