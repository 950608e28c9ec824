package backup

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Backup-20231201-120000.CSV", "")
	writeFile(t, dir, "Backup-20240115-080000.CSV", "")
	want := writeFile(t, dir, "Backup-20240115-230000.CSV", "")
	writeFile(t, dir, "notes.txt", "")

	got, err := Discover(dir, DefaultPattern)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got != want {
		t.Errorf("Discover = %q, want newest backup %q", got, want)
	}
}

func TestDiscover_NoBackups(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "")

	_, err := Discover(dir, DefaultPattern)
	if !errors.Is(err, ErrNoBackups) {
		t.Errorf("error = %v, want ErrNoBackups", err)
	}
}

func TestFile_ReadsRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Backup-20240101-000000.CSV",
		"Time,Indoor Temperature(F)\n2024/01/01 00:00,68.4\n2024/01/01 00:05,68.2\n")

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close() //nolint:errcheck

	var rows [][]string
	for {
		row, err := f.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		rows = append(rows, row)
	}

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (header + 2 data)", len(rows))
	}
	if rows[1][0] != "2024/01/01 00:00" || rows[1][1] != "68.4" {
		t.Errorf("first data row = %v", rows[1])
	}
	// Short rows pass through; the transformer validates field counts.
	if len(rows[2]) != 2 {
		t.Errorf("second data row has %d fields, want 2", len(rows[2]))
	}
}

func TestOpen_Missing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.CSV")); err == nil {
		t.Error("expected error for missing file")
	}
}
