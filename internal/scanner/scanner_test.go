package scanner

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/rhythmforge/rhythmcore/internal/storage"
)

func testDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestScanQueuesJobsForSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "track1.wav", 1024)
	writeFile(t, dir, "track2.mp3", 2048)
	writeFile(t, dir, "notes.txt", 10)

	db := testDB(t)
	s := NewScanner(db, nil)

	progress := make(chan ScanProgress)
	var results []ScanProgress
	done := make(chan struct{})
	go func() {
		for p := range progress {
			results = append(results, p)
		}
		close(done)
	}()

	if err := s.Scan(context.Background(), []string{dir}, "standard", progress); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	<-done

	if len(results) != 2 {
		t.Fatalf("expected 2 audio files scanned, got %d: %+v", len(results), results)
	}
	for _, r := range results {
		if r.Status != "queued" {
			t.Fatalf("expected queued status, got %s (%s)", r.Status, r.Error)
		}
		job, err := db.GetJob(r.JobID)
		if err != nil || job == nil {
			t.Fatalf("GetJob(%d): %v, %v", r.JobID, job, err)
		}
		if job.Pass != "standard" {
			t.Fatalf("expected pass=standard, got %s", job.Pass)
		}
	}
}

func TestScanSkipsUnchangedFileOnSecondPass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "track.wav", 512)

	db := testDB(t)
	s := NewScanner(db, nil)

	drain := func() []ScanProgress {
		progress := make(chan ScanProgress)
		var results []ScanProgress
		done := make(chan struct{})
		go func() {
			for p := range progress {
				results = append(results, p)
			}
			close(done)
		}()
		if err := s.Scan(context.Background(), []string{dir}, "standard", progress); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		<-done
		return results
	}

	first := drain()
	if len(first) != 1 || first[0].Status != "queued" {
		t.Fatalf("expected one queued result, got %+v", first)
	}

	second := drain()
	if len(second) != 1 || second[0].Status != "skipped" {
		t.Fatalf("expected one skipped result on rescan, got %+v", second)
	}
}
