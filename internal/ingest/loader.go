package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/AlSimons/graph-ambient-weather/internal/store"
)

// RowSource yields the raw rows of one backup file in order. Next
// returns io.EOF after the last row.
type RowSource interface {
	Next() ([]string, error)
}

// Loader replaces the store's contents with the rows of one backup
// file. A partially-numeric backup indicates a corrupt export, so any
// bad row aborts the whole run: commit happens exactly once at
// end-of-file, and an aborted run leaves the store in its pre-load
// state.
type Loader struct {
	store  store.Store
	logger *slog.Logger
}

// NewLoader creates a Loader writing through to s.
func NewLoader(s store.Store, logger *slog.Logger) *Loader {
	return &Loader{store: s, logger: logger}
}

// Load consumes src in a single pass. The first row is the backup's
// column-header line and is discarded without validation. Returns the
// number of readings inserted; the count is only meaningful when err
// is nil.
func (l *Loader) Load(ctx context.Context, src RowSource) (int, error) {
	if _, err := src.Next(); err != nil {
		if err == io.EOF {
			return 0, fmt.Errorf("backup has no header row")
		}
		return 0, fmt.Errorf("reading header: %w", err)
	}

	tx, err := l.store.BeginLoad(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is harmless

	count := 0
	for {
		fields, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("reading data row %d: %w", count+1, err)
		}

		reading, err := ParseRow(fields)
		if err != nil {
			return count, fmt.Errorf("aborted at data row %d, nothing committed: %w", count+1, err)
		}
		if err := tx.Insert(ctx, reading); err != nil {
			return count, fmt.Errorf("aborted at data row %d, nothing committed: %w", count+1, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return count, err
	}

	l.logger.Info("load complete", "rows", count)
	return count, nil
}
