// Package fixtures synthesizes deterministic WAV files (plus a manifest.json
// sidecar of ground truth) for the six rhythm-analysis scenarios exercised by
// the package test suites. Nothing here is randomized by wall-clock time: the
// only entropy source is a seeded linear congruential generator, so the same
// Config always produces byte-identical output.
package fixtures

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Scenario names accepted by Config.Scenarios.
const (
	ScenarioFourOnFloor   = "four_on_the_floor"
	ScenarioHalftimeTrap  = "halftime_trap"
	ScenarioAfroSwing     = "afro_house_swing"
	ScenarioQuietOutro    = "quiet_outro"
	ScenarioFilterStress  = "pattern_filter_stress"
	ScenarioSwingLag      = "swing_lag"
)

// AllScenarios lists every scenario Generate knows how to emit, in the order
// they appear in the spec's testable-properties section.
var AllScenarios = []string{
	ScenarioFourOnFloor,
	ScenarioHalftimeTrap,
	ScenarioAfroSwing,
	ScenarioQuietOutro,
	ScenarioFilterStress,
	ScenarioSwingLag,
}

// Config controls which fixtures Generate emits.
type Config struct {
	OutputDir  string
	SampleRate int
	Seed       int64
	// Scenarios selects which of AllScenarios to render. Empty means all.
	Scenarios []string
}

// Manifest describes the generated fixtures and their ground truth, so test
// code can assert against a scenario without re-deriving the synthesis
// parameters.
type Manifest struct {
	SampleRate int               `json:"sample_rate"`
	Seed       int64             `json:"seed"`
	Fixtures   []ManifestFixture `json:"fixtures"`
}

// ManifestFixture is one generated WAV and the ground truth a correct
// analysis of it should reproduce.
type ManifestFixture struct {
	File            string           `json:"file"`
	Scenario        string           `json:"scenario"`
	BPM             float64          `json:"bpm,omitempty"`
	DurationSec     float64          `json:"duration_sec"`
	SwingRatio      int              `json:"swing_ratio,omitempty"`
	TimeSignature   int              `json:"time_signature,omitempty"`
	ExpectedPattern string           `json:"expected_pattern,omitempty"`
	ExpectedGenre   string           `json:"expected_genre,omitempty"`
	GroundTruthHits []GroundTruthHit `json:"ground_truth_hits,omitempty"`
}

// GroundTruthHit is one drum onset the generator placed, named by
// rhythm.DrumType.String() rather than the enum so the manifest stays a
// plain JSON document with no dependency on the rhythm package.
type GroundTruthHit struct {
	Time float64 `json:"time"`
	Type string  `json:"type"`
}

// Generate writes WAV fixtures and a manifest.json into cfg.OutputDir.
func Generate(cfg Config) (*Manifest, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 44100
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./testdata/audio"
	}
	scenarios := cfg.Scenarios
	if len(scenarios) == 0 {
		scenarios = AllScenarios
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("fixtures: mkdir output: %w", err)
	}

	manifest := &Manifest{SampleRate: cfg.SampleRate, Seed: cfg.Seed}
	for _, s := range scenarios {
		fx, err := render(s, cfg)
		if err != nil {
			return nil, err
		}
		manifest.Fixtures = append(manifest.Fixtures, fx)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("fixtures: marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.OutputDir, "manifest.json"), data, 0o644); err != nil {
		return nil, fmt.Errorf("fixtures: write manifest: %w", err)
	}
	return manifest, nil
}

func render(scenario string, cfg Config) (ManifestFixture, error) {
	switch scenario {
	case ScenarioFourOnFloor:
		return genFourOnFloor(cfg)
	case ScenarioHalftimeTrap:
		return genHalftimeTrap(cfg)
	case ScenarioAfroSwing:
		return genAfroSwing(cfg)
	case ScenarioQuietOutro:
		return genQuietOutro(cfg)
	case ScenarioFilterStress:
		return genFilterStress(cfg)
	case ScenarioSwingLag:
		return genSwingLag(cfg)
	default:
		return ManifestFixture{}, fmt.Errorf("fixtures: unknown scenario %q", scenario)
	}
}

// --- scenario 1: four-on-the-floor, 128 BPM, no swing -----------------------

func genFourOnFloor(cfg Config) (ManifestFixture, error) {
	const bpm = 128.0
	const bars = 8
	sr := cfg.SampleRate
	secondsPerStep := 60.0 / bpm / 4.0
	totalSteps := bars * 16
	duration := float64(totalSteps) * secondsPerStep
	data := make([]float64, int(duration*float64(sr))+1)
	rng := newLCG(cfg.Seed)
	var truth []GroundTruthHit

	for step := 0; step < totalSteps; step++ {
		t := float64(step) * secondsPerStep
		local := step % 16
		switch {
		case local%4 == 0:
			addKick(data, sr, t, 0.9)
			truth = append(truth, GroundTruthHit{Time: t, Type: "kick"})
		}
		if local == 4 || local == 12 {
			addClap(data, sr, t, 0.7, rng)
			truth = append(truth, GroundTruthHit{Time: t, Type: "clap"})
		}
		if local%2 == 0 {
			addHiHat(data, sr, t, 0.4, rng)
			truth = append(truth, GroundTruthHit{Time: t, Type: "hihat"})
		}
	}

	fadeEdges(data, sr, 0.02)
	path := filepath.Join(cfg.OutputDir, "four_on_the_floor.wav")
	if err := writeWAV(path, data, sr); err != nil {
		return ManifestFixture{}, err
	}
	return ManifestFixture{
		File: "four_on_the_floor.wav", Scenario: ScenarioFourOnFloor,
		BPM: bpm, DurationSec: duration, SwingRatio: 50, TimeSignature: 4,
		ExpectedPattern: "edm_four_on_floor", ExpectedGenre: "edm",
		GroundTruthHits: truth,
	}, nil
}

// --- scenario 2: half-time trap, true tempo 150 BPM rendered so the naive
// strongest-onset interval reads as half that ------------------------------

func genHalftimeTrap(cfg Config) (ManifestFixture, error) {
	const bpm = 150.0
	const bars = 8
	sr := cfg.SampleRate
	secondsPerStep := 60.0 / bpm / 4.0
	totalSteps := bars * 16
	duration := float64(totalSteps) * secondsPerStep
	data := make([]float64, int(duration*float64(sr))+1)
	rng := newLCG(cfg.Seed)
	var truth []GroundTruthHit

	for step := 0; step < totalSteps; step++ {
		t := float64(step) * secondsPerStep
		local := step % 16
		if local == 0 || local == 10 {
			addKick(data, sr, t, 0.95)
			truth = append(truth, GroundTruthHit{Time: t, Type: "kick"})
		}
		if local == 8 {
			addSnare(data, sr, t, 0.8, rng)
			truth = append(truth, GroundTruthHit{Time: t, Type: "snare"})
		}
		addHiHat(data, sr, t, 0.25, rng)
		truth = append(truth, GroundTruthHit{Time: t, Type: "hihat"})
	}

	fadeEdges(data, sr, 0.02)
	path := filepath.Join(cfg.OutputDir, "halftime_trap.wav")
	if err := writeWAV(path, data, sr); err != nil {
		return ManifestFixture{}, err
	}
	return ManifestFixture{
		File: "halftime_trap.wav", Scenario: ScenarioHalftimeTrap,
		BPM: bpm, DurationSec: duration, SwingRatio: 50, TimeSignature: 4,
		ExpectedPattern: "trap_rolling", ExpectedGenre: "trap",
		GroundTruthHits: truth,
	}, nil
}

// --- scenario 3: afro-house, kicks on 1&3, shaker every 8th at 60% swing ----

func genAfroSwing(cfg Config) (ManifestFixture, error) {
	const bpm = 122.0
	const bars = 16
	const swingPct = 60
	sr := cfg.SampleRate
	secondsPerBeat := 60.0 / bpm
	secondsPerStep := secondsPerBeat / 4.0
	totalSteps := bars * 16
	duration := float64(totalSteps+2) * secondsPerStep
	data := make([]float64, int(duration*float64(sr))+1)
	rng := newLCG(cfg.Seed)
	var truth []GroundTruthHit

	for step := 0; step < totalSteps; step++ {
		local := step % 16
		t := float64(step) * secondsPerStep
		if local%8 == 0 {
			addKick(data, sr, t, 0.85)
			truth = append(truth, GroundTruthHit{Time: t, Type: "kick"})
		}
		// shaker every 8th note (two 16th-steps apart); odd 8th positions
		// (2,6,10,14) pushed later by the swing ratio within their beat pair.
		if local%2 == 0 {
			shakerT := t
			if (local/2)%2 == 1 {
				beatStart := float64(step/4) * secondsPerBeat
				shakerT = beatStart + secondsPerBeat*float64(swingPct)/100.0
			}
			addShaker(data, sr, shakerT, 0.35, rng)
			truth = append(truth, GroundTruthHit{Time: shakerT, Type: "perc"})
		}
	}

	fadeEdges(data, sr, 0.03)
	path := filepath.Join(cfg.OutputDir, "afro_house_swing.wav")
	if err := writeWAV(path, data, sr); err != nil {
		return ManifestFixture{}, err
	}
	return ManifestFixture{
		File: "afro_house_swing.wav", Scenario: ScenarioAfroSwing,
		BPM: bpm, DurationSec: duration, SwingRatio: swingPct, TimeSignature: 4,
		ExpectedPattern: "afro_foundation", ExpectedGenre: "afro_house",
		GroundTruthHits: truth,
	}, nil
}

// --- scenario 4: 16 loud bars + 4 bars at -18dB with matching half-velocity
// kicks/snares, to exercise the adaptive rescan ------------------------------

func genQuietOutro(cfg Config) (ManifestFixture, error) {
	const bpm = 120.0
	const loudBars = 16
	const quietBars = 4
	sr := cfg.SampleRate
	secondsPerBeat := 60.0 / bpm
	secondsPerStep := secondsPerBeat / 4.0
	totalSteps := (loudBars + quietBars) * 16
	duration := float64(totalSteps) * secondsPerStep
	data := make([]float64, int(duration*float64(sr))+1)
	rng := newLCG(cfg.Seed)
	var truth []GroundTruthHit

	quietGainDB := -18.0
	quietGain := math.Pow(10, quietGainDB/20.0)

	for step := 0; step < totalSteps; step++ {
		bar := step / 16
		local := step % 16
		t := float64(step) * secondsPerStep
		inQuiet := bar >= loudBars
		gain := 1.0
		if inQuiet {
			gain = quietGain * 0.5 // quiet bars additionally halve hit velocity
		}

		if local == 0 || local == 8 {
			addKick(data, sr, t, 0.85*gain)
			truth = append(truth, GroundTruthHit{Time: t, Type: "kick"})
		}
		if local == 4 || local == 12 {
			addSnare(data, sr, t, 0.75*gain, rng)
			truth = append(truth, GroundTruthHit{Time: t, Type: "snare"})
		}
		if !inQuiet && local%2 == 0 {
			addHiHat(data, sr, t, 0.3, rng)
			truth = append(truth, GroundTruthHit{Time: t, Type: "hihat"})
		} else if inQuiet && local%2 == 0 {
			addHiHat(data, sr, t, 0.3*quietGain, rng)
		}
	}

	fadeEdges(data, sr, 0.02)
	path := filepath.Join(cfg.OutputDir, "quiet_outro.wav")
	if err := writeWAV(path, data, sr); err != nil {
		return ManifestFixture{}, err
	}
	return ManifestFixture{
		File: "quiet_outro.wav", Scenario: ScenarioQuietOutro,
		BPM: bpm, DurationSec: duration, SwingRatio: 50, TimeSignature: 4,
		GroundTruthHits: truth,
	}, nil
}

// --- scenario 5: on-grid hits plus 10 random off-grid hits per bar, for the
// pattern-filter's tolerance_ms cutoff ---------------------------------------

func genFilterStress(cfg Config) (ManifestFixture, error) {
	const bpm = 120.0
	const bars = 8
	const offGridPerBar = 10
	sr := cfg.SampleRate
	secondsPerBeat := 60.0 / bpm
	secondsPerStep := secondsPerBeat / 4.0
	barDuration := secondsPerStep * 16
	totalSteps := bars * 16
	duration := float64(totalSteps) * secondsPerStep
	data := make([]float64, int(duration*float64(sr))+1)
	rng := newLCG(cfg.Seed)
	var truth []GroundTruthHit

	for step := 0; step < totalSteps; step++ {
		local := step % 16
		t := float64(step) * secondsPerStep
		if local == 0 || local == 4 || local == 8 || local == 12 {
			addKick(data, sr, t, 0.9)
			truth = append(truth, GroundTruthHit{Time: t, Type: "kick"})
		}
		if local%2 == 0 {
			addHiHat(data, sr, t, 0.35, rng)
			truth = append(truth, GroundTruthHit{Time: t, Type: "hihat"})
		}
	}

	// Off-grid hits: placed at least 60ms from the nearest 16th-step so a
	// 40ms tolerance_ms filter removes every one of them.
	for bar := 0; bar < bars; bar++ {
		barStart := float64(bar) * barDuration
		for i := 0; i < offGridPerBar; i++ {
			step := int(rng.float() * 16)
			// exactly halfway between two steps, half a step from either
			t := barStart + (float64(step)+0.5)*secondsPerStep
			if t >= duration {
				continue
			}
			addPerc(data, sr, t, 0.5, rng)
			truth = append(truth, GroundTruthHit{Time: t, Type: "perc"})
		}
	}

	fadeEdges(data, sr, 0.02)
	path := filepath.Join(cfg.OutputDir, "pattern_filter_stress.wav")
	if err := writeWAV(path, data, sr); err != nil {
		return ManifestFixture{}, err
	}
	return ManifestFixture{
		File: "pattern_filter_stress.wav", Scenario: ScenarioFilterStress,
		BPM: bpm, DurationSec: duration, SwingRatio: 50, TimeSignature: 4,
		GroundTruthHits: truth,
	}, nil
}

// --- scenario 6: 16-step pattern with hi-hats 15ms late on every odd step,
// all other instruments on grid, for per-instrument quantize ----------------

func genSwingLag(cfg Config) (ManifestFixture, error) {
	const bpm = 120.0
	const bars = 4
	sr := cfg.SampleRate
	secondsPerBeat := 60.0 / bpm
	secondsPerStep := secondsPerBeat / 4.0
	totalSteps := bars * 16
	duration := float64(totalSteps) * secondsPerStep
	data := make([]float64, int(duration*float64(sr))+1)
	rng := newLCG(cfg.Seed)
	var truth []GroundTruthHit

	const lagSec = 0.015
	for step := 0; step < totalSteps; step++ {
		local := step % 16
		t := float64(step) * secondsPerStep
		if local == 0 || local == 8 {
			addKick(data, sr, t, 0.85)
			truth = append(truth, GroundTruthHit{Time: t, Type: "kick"})
		}
		if local == 4 || local == 12 {
			addSnare(data, sr, t, 0.75, rng)
			truth = append(truth, GroundTruthHit{Time: t, Type: "snare"})
		}
		hatT := t
		if local%2 == 1 {
			hatT = t + lagSec
		}
		addHiHat(data, sr, hatT, 0.4, rng)
		truth = append(truth, GroundTruthHit{Time: hatT, Type: "hihat"})
	}

	fadeEdges(data, sr, 0.02)
	path := filepath.Join(cfg.OutputDir, "swing_lag.wav")
	if err := writeWAV(path, data, sr); err != nil {
		return ManifestFixture{}, err
	}
	return ManifestFixture{
		File: "swing_lag.wav", Scenario: ScenarioSwingLag,
		BPM: bpm, DurationSec: duration, SwingRatio: 58, TimeSignature: 4,
		GroundTruthHits: truth,
	}, nil
}

// --- shared synthesis primitives -------------------------------------------

// lcg is a minimal deterministic pseudo-random source; the generator never
// needs cryptographic quality, only repeatability across runs.
type lcg struct{ state uint64 }

func newLCG(seed int64) *lcg {
	if seed == 0 {
		seed = 1
	}
	return &lcg{state: uint64(seed)}
}

func (g *lcg) float() float64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return float64(g.state>>33) / float64(1<<31)
}

func (g *lcg) signed() float64 {
	return g.float()*2 - 1
}

func addAt(data []float64, sr int, t float64, lenSec float64, fn func(i int, tt float64) float64) {
	start := int(t * float64(sr))
	n := int(lenSec * float64(sr))
	for i := 0; i < n && start+i < len(data); i++ {
		if start+i < 0 {
			continue
		}
		data[start+i] += fn(i, float64(i)/float64(sr))
	}
}

// addKick synthesizes a pitch-enveloped sine burst typical of a low drum.
func addKick(data []float64, sr int, t float64, amp float64) {
	addAt(data, sr, t, 0.15, func(_ int, tt float64) float64 {
		freq := 58.0 * math.Exp(-14*tt)
		return amp * math.Exp(-9*tt) * math.Sin(2*math.Pi*freq*tt)
	})
}

// addSnare mixes a tonal component with filtered noise for the characteristic
// snap of a snare.
func addSnare(data []float64, sr int, t float64, amp float64, rng *lcg) {
	var lowpass float64
	addAt(data, sr, t, 0.1, func(_ int, tt float64) float64 {
		tone := 0.4 * math.Sin(2*math.Pi*185*tt)
		noise := rng.signed()
		lowpass = lowpass*0.7 + noise*0.3
		return amp * math.Exp(-18*tt) * (tone + 0.8*lowpass)
	})
}

// addHiHat is a short high-passed noise burst.
func addHiHat(data []float64, sr int, t float64, amp float64, rng *lcg) {
	var prev float64
	addAt(data, sr, t, 0.04, func(_ int, tt float64) float64 {
		noise := rng.signed()
		highpass := noise - prev*0.9
		prev = noise
		return amp * math.Exp(-45*tt) * highpass
	})
}

// addClap layers three slightly offset noise bursts to approximate a clap's
// multi-transient attack.
func addClap(data []float64, sr int, t float64, amp float64, rng *lcg) {
	offsets := [3]float64{0, 0.008, 0.016}
	for _, off := range offsets {
		addAt(data, sr, t+off, 0.06, func(_ int, tt float64) float64 {
			return amp * 0.6 * math.Exp(-35*tt) * rng.signed()
		})
	}
}

// addShaker is a sustained, softly filtered noise burst longer than a hi-hat.
func addShaker(data []float64, sr int, t float64, amp float64, rng *lcg) {
	var lowpass float64
	addAt(data, sr, t, 0.07, func(_ int, tt float64) float64 {
		noise := rng.signed()
		lowpass = lowpass*0.5 + noise*0.5
		return amp * math.Exp(-20*tt) * lowpass
	})
}

// addPerc is a generic mid-band percussive blip used for off-grid stress
// hits that should not resemble any one instrument closely.
func addPerc(data []float64, sr int, t float64, amp float64, rng *lcg) {
	addAt(data, sr, t, 0.05, func(_ int, tt float64) float64 {
		tone := 0.5 * math.Sin(2*math.Pi*440*tt)
		return amp * math.Exp(-30*tt) * (tone + 0.5*rng.signed())
	})
}

func fadeEdges(data []float64, sr int, sec float64) {
	n := int(sec * float64(sr))
	for i := 0; i < n && i < len(data); i++ {
		gain := float64(i) / float64(n)
		data[i] *= gain
		j := len(data) - 1 - i
		if j >= 0 {
			data[j] *= gain
		}
	}
}

// writeWAV writes mono 16-bit PCM WAV, clamping samples to [-1, 1] first.
func writeWAV(path string, samples []float64, sampleRate int) error {
	buf := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf[i] = int16(s * 32767)
	}

	byteRate := sampleRate * 2
	blockAlign := int16(2)
	bitsPerSample := int16(16)
	dataSize := len(buf) * 2
	riffSize := 36 + dataSize

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fixtures: create %s: %w", path, err)
	}
	defer f.Close()

	f.Write([]byte("RIFF"))
	binary.Write(f, binary.LittleEndian, uint32(riffSize))
	f.Write([]byte("WAVE"))
	f.Write([]byte("fmt "))
	binary.Write(f, binary.LittleEndian, uint32(16))
	binary.Write(f, binary.LittleEndian, uint16(1))
	binary.Write(f, binary.LittleEndian, uint16(1))
	binary.Write(f, binary.LittleEndian, uint32(sampleRate))
	binary.Write(f, binary.LittleEndian, uint32(byteRate))
	binary.Write(f, binary.LittleEndian, blockAlign)
	binary.Write(f, binary.LittleEndian, bitsPerSample)
	f.Write([]byte("data"))
	binary.Write(f, binary.LittleEndian, uint32(dataSize))
	for _, v := range buf {
		binary.Write(f, binary.LittleEndian, v)
	}
	return nil
}
