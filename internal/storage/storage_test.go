package storage

import (
	"io"
	"log/slog"
	"testing"

	"github.com/rhythmforge/rhythmcore/internal/pattern"
	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestJobLifecycle(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreateJob("track.wav", "standard", map[string]any{"use_stem": false})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	job, err := db.GetJob(id)
	if err != nil || job == nil {
		t.Fatalf("GetJob: %v, %v", job, err)
	}
	if job.Status != JobStatusQueued {
		t.Fatalf("expected queued, got %s", job.Status)
	}
	if job.JobUUID == "" {
		t.Fatal("expected a generated job_uuid")
	}

	if err := db.StartJob(id); err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	if err := db.CompleteJob(id); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}

	job, err = db.GetJob(id)
	if err != nil {
		t.Fatalf("GetJob after complete: %v", err)
	}
	if job.Status != JobStatusComplete {
		t.Fatalf("expected complete, got %s", job.Status)
	}
	if job.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
}

func TestJobFailure(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreateJob("bad.wav", "standard", nil)

	if err := db.FailJob(id, "decode error"); err != nil {
		t.Fatalf("FailJob: %v", err)
	}
	job, _ := db.GetJob(id)
	if job.Status != JobStatusFailed || job.Error != "decode error" {
		t.Fatalf("unexpected job state: %+v", job)
	}
}

func TestAnalysisRecordRoundTrip(t *testing.T) {
	db := openTestDB(t)
	jobID, _ := db.CreateJob("track.wav", "standard", nil)

	result := &rhythm.AnalysisResult{
		Beat:   rhythm.BeatGrid{BPM: 128, Confidence: 0.9, TimeSignature: 4},
		Hits:   []rhythm.DrumHit{{Time: 1.0, Type: rhythm.Kick}},
		Swing:  52,
		Genre:  "edm",
		Method: "librosa+full_mix",
	}

	if _, err := db.SaveAnalysisRecord(jobID, result); err != nil {
		t.Fatalf("SaveAnalysisRecord: %v", err)
	}

	loaded, err := db.LatestAnalysisForJob(jobID)
	if err != nil {
		t.Fatalf("LatestAnalysisForJob: %v", err)
	}
	if loaded.Beat.BPM != 128 || loaded.Genre != "edm" || len(loaded.Hits) != 1 {
		t.Fatalf("round-trip mismatch: %+v", loaded)
	}
}

func TestPatternLibraryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	if err := db.SeedBuiltinPatterns(pattern.Library); err != nil {
		t.Fatalf("SeedBuiltinPatterns: %v", err)
	}

	loaded, err := db.LoadPatternLibrary()
	if err != nil {
		t.Fatalf("LoadPatternLibrary: %v", err)
	}
	if len(loaded) != len(pattern.Library) {
		t.Fatalf("expected %d patterns, got %d", len(pattern.Library), len(loaded))
	}

	custom := rhythm.Pattern{
		ID: "my_custom_groove", DisplayName: "My Groove", GenreTag: "pop",
		Drums: map[rhythm.DrumType][]int{rhythm.Kick: {0, 6, 10}},
		Swing: 55,
	}
	if err := db.SaveCustomPattern(custom); err != nil {
		t.Fatalf("SaveCustomPattern: %v", err)
	}
	loaded, err = db.LoadPatternLibrary()
	if err != nil {
		t.Fatalf("LoadPatternLibrary after custom save: %v", err)
	}
	if len(loaded) != len(pattern.Library)+1 {
		t.Fatalf("expected %d patterns after custom save, got %d", len(pattern.Library)+1, len(loaded))
	}
}
