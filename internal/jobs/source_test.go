package jobs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLatestInputFilePicksNewest(t *testing.T) {
	dir := t.TempDir()

	older := filepath.Join(dir, "condensed_jobs_2026-01-01.json")
	newer := filepath.Join(dir, "condensed_jobs_2026-02-01.json")

	for _, path := range []string{older, newer} {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
	}

	base := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, base, base); err != nil {
		t.Fatalf("setting mtime: %v", err)
	}
	if err := os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)); err != nil {
		t.Fatalf("setting mtime: %v", err)
	}

	latest, err := LatestInputFile(dir, "condensed_jobs_*.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if latest != newer {
		t.Fatalf("expected %s, got %s", newer, latest)
	}
}

func TestLatestInputFileErrorsWhenEmpty(t *testing.T) {
	dir := t.TempDir()

	if _, err := LatestInputFile(dir, "condensed_jobs_*.json"); err == nil {
		t.Fatalf("expected error for empty directory")
	}
}

func TestLoadRecordsReadsArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")

	payload := `[{"id": "1"}, {"id": "2"}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	records, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}
