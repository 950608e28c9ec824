// Package backup locates and reads WS-2000 backup CSV files.
package backup

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultPattern matches the filenames the WS-2000 writes for its
// backups. The embedded date sorts lexically, so the newest backup is
// simply the largest matching name.
const DefaultPattern = "Backup-*.CSV"

// ErrNoBackups is returned when the backup directory contains no file
// matching the pattern.
var ErrNoBackups = errors.New("no backup files found")

// Discover returns the path of the newest backup under dir: the
// lexical maximum of the files matching pattern.
func Discover(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("globbing %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s matching %s", ErrNoBackups, dir, pattern)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// File is an open backup file, read row by row. It satisfies the
// ingestion pipeline's RowSource.
type File struct {
	f *os.File
	r *csv.Reader
}

// Open opens the backup at path for a single sequential pass.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening backup: %w", err)
	}
	r := csv.NewReader(f)
	// Field count is validated per row by the transformer, which can
	// name the row in its error; don't let the reader reject it first.
	r.FieldsPerRecord = -1
	return &File{f: f, r: r}, nil
}

// Next returns the next raw row, or io.EOF after the last one.
func (b *File) Next() ([]string, error) {
	return b.r.Read()
}

// Close closes the underlying file.
func (b *File) Close() error {
	return b.f.Close()
}
