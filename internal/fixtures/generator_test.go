package fixtures

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateAllScenariosWritesManifest(t *testing.T) {
	dir := t.TempDir()
	manifest, err := Generate(Config{OutputDir: dir, SampleRate: 44100, Seed: 7})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(manifest.Fixtures) != len(AllScenarios) {
		t.Fatalf("expected %d fixtures, got %d", len(AllScenarios), len(manifest.Fixtures))
	}

	for _, fx := range manifest.Fixtures {
		path := filepath.Join(dir, fx.File)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if len(data) <= 44 {
			t.Fatalf("%s: expected WAV data beyond header, got %d bytes", fx.File, len(data))
		}
		if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
			t.Fatalf("%s: not a wav header", fx.File)
		}
		sampleRate := binary.LittleEndian.Uint32(data[24:28])
		if sampleRate != uint32(44100) {
			t.Fatalf("%s: unexpected sample rate %d", fx.File, sampleRate)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var decoded Manifest
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if decoded.Seed != 7 {
		t.Fatalf("expected seed 7, got %d", decoded.Seed)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	mk := func(dir string) Config {
		return Config{OutputDir: dir, SampleRate: 22050, Seed: 42, Scenarios: []string{ScenarioFourOnFloor}}
	}
	if _, err := Generate(mk(dirA)); err != nil {
		t.Fatalf("Generate A: %v", err)
	}
	if _, err := Generate(mk(dirB)); err != nil {
		t.Fatalf("Generate B: %v", err)
	}

	a, err := os.ReadFile(filepath.Join(dirA, "four_on_the_floor.wav"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dirB, "four_on_the_floor.wav"))
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("byte %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestFourOnFloorGroundTruthMatchesPattern(t *testing.T) {
	dir := t.TempDir()
	manifest, err := Generate(Config{OutputDir: dir, Scenarios: []string{ScenarioFourOnFloor}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	fx := manifest.Fixtures[0]
	if fx.ExpectedPattern != "edm_four_on_floor" || fx.ExpectedGenre != "edm" {
		t.Fatalf("unexpected expectations: %+v", fx)
	}

	kicks := 0
	for _, h := range fx.GroundTruthHits {
		if h.Type == "kick" {
			kicks++
		}
	}
	if kicks != 8*4 {
		t.Fatalf("expected 32 kicks across 8 bars, got %d", kicks)
	}
}

func TestSwingLagOnlyHiHatsOffset(t *testing.T) {
	dir := t.TempDir()
	manifest, err := Generate(Config{OutputDir: dir, Scenarios: []string{ScenarioSwingLag}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	fx := manifest.Fixtures[0]

	secondsPerStep := 60.0 / fx.BPM / 4.0
	for _, h := range fx.GroundTruthHits {
		nearestStep := roundInt(h.Time / secondsPerStep)
		onGridTime := float64(nearestStep) * secondsPerStep
		delta := h.Time - onGridTime
		if h.Type != "hihat" {
			if absFloat(delta) > 1e-9 {
				t.Fatalf("%s at %f should be on-grid, delta=%f", h.Type, h.Time, delta)
			}
			continue
		}
		if nearestStep%2 == 1 {
			if delta < 0.010 || delta > 0.020 {
				t.Fatalf("odd-step hihat at %f expected ~15ms lag, got delta=%f", h.Time, delta)
			}
		}
	}
}

func TestQuietOutroHasQuietBarHits(t *testing.T) {
	dir := t.TempDir()
	manifest, err := Generate(Config{OutputDir: dir, Scenarios: []string{ScenarioQuietOutro}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	fx := manifest.Fixtures[0]

	secondsPerBar := 60.0 / fx.BPM * 4
	quietStart := 16 * secondsPerBar
	var quietHits int
	for _, h := range fx.GroundTruthHits {
		if h.Time >= quietStart {
			quietHits++
		}
	}
	if quietHits == 0 {
		t.Fatal("expected ground truth hits within the quiet bars")
	}
}

func roundInt(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
