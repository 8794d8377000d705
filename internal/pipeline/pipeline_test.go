package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

func writeTestWAV(sampleRate int, samples []int16) []byte {
	var buf bytes.Buffer
	dataSize := len(samples) * 2
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

// synthFourOnFloorWAV synthesizes a short four-on-the-floor click track
// as 16-bit PCM WAV bytes.
func synthFourOnFloorWAV(bpm float64, bars int, sampleRate int) []byte {
	interval := 60.0 / bpm
	duration := interval * 4 * float64(bars)
	n := int(duration * float64(sampleRate))
	out := make([]float64, n)

	click := func(center int, freq, amp, lenSec float64) {
		length := int(lenSec * float64(sampleRate))
		for j := 0; j < length && center+j < n; j++ {
			t := float64(j) / float64(sampleRate)
			out[center+j] += amp * math.Exp(-30*t) * math.Sin(2*math.Pi*freq*t)
		}
	}

	for bar := 0; bar < bars; bar++ {
		for beatInBar := 0; beatInBar < 4; beatInBar++ {
			beatTime := float64(bar)*4*interval + float64(beatInBar)*interval
			center := int(beatTime * float64(sampleRate))
			click(center, 60, 0.9, 0.1)
			if beatInBar == 1 || beatInBar == 3 {
				click(center, 1500, 0.6, 0.05)
			}
		}
	}

	samples := make([]int16, n)
	for i, v := range out {
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		samples[i] = int16(v * 32767)
	}
	return writeTestWAV(sampleRate, samples)
}

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelineStandardPassProducesHits(t *testing.T) {
	wavBytes := synthFourOnFloorWAV(128, 8, 44100)
	p := New(NopStemSeparator{}, nil, silentLogger())

	result, err := p.Analyze(context.Background(), Request{
		Audio: wavBytes, Filename: "fixture.wav", Pass: PassStandard,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Beat.BPM <= 0 {
		t.Fatal("expected a positive BPM estimate")
	}
	if len(result.Hits) == 0 {
		t.Fatal("expected some detected hits")
	}
	if result.Method == "" {
		t.Fatal("expected a non-empty analysis_method")
	}
}

func TestPipelineFallsBackToStandardMixWhenStemUnavailable(t *testing.T) {
	wavBytes := synthFourOnFloorWAV(128, 4, 44100)
	p := New(NopStemSeparator{}, nil, silentLogger())

	result, err := p.Analyze(context.Background(), Request{
		Audio: wavBytes, Filename: "fixture.wav", Pass: PassStandard, UseStem: true,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.AnalysisSource != "full_mix" {
		t.Fatalf("expected fallback to full_mix, got %s", result.AnalysisSource)
	}
}

func TestPipelineAdaptivePassUnionsHits(t *testing.T) {
	wavBytes := synthFourOnFloorWAV(128, 8, 44100)
	p := New(NopStemSeparator{}, nil, silentLogger())

	standard, err := p.Analyze(context.Background(), Request{Audio: wavBytes, Filename: "f.wav", Pass: PassStandard})
	if err != nil {
		t.Fatalf("standard pass: %v", err)
	}
	adaptive, err := p.Analyze(context.Background(), Request{Audio: wavBytes, Filename: "f.wav", Pass: PassAdaptive})
	if err != nil {
		t.Fatalf("adaptive pass: %v", err)
	}
	if len(adaptive.Hits) < len(standard.Hits) {
		t.Fatalf("adaptive rescan should never reduce hit count: standard=%d adaptive=%d", len(standard.Hits), len(adaptive.Hits))
	}
}

func TestPipelineStepExposesDetectionStats(t *testing.T) {
	wavBytes := synthFourOnFloorWAV(128, 8, 44100)
	p := New(NopStemSeparator{}, nil, silentLogger())

	step, err := p.Step(context.Background(), Request{Audio: wavBytes, Filename: "f.wav"})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if _, ok := step.Stats[rhythm.Kick]; !ok {
		t.Fatal("expected kick detection stats in step result")
	}
}

func TestPipelineCancellationDuringDecode(t *testing.T) {
	wavBytes := synthFourOnFloorWAV(128, 4, 44100)
	p := New(NopStemSeparator{}, nil, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Analyze(ctx, Request{Audio: wavBytes, Filename: "f.wav", Pass: PassStandard})
	if err == nil {
		t.Fatal("expected an error for an already-cancelled context")
	}
}

func TestFallbackAnalyzerNeverErrors(t *testing.T) {
	f := FallbackAnalyzer{}
	result, err := f.Analyze(context.Background(), Request{})
	if err != nil {
		t.Fatalf("FallbackAnalyzer.Analyze: %v", err)
	}
	if result.Method != "fallback" {
		t.Fatalf("expected method=fallback, got %s", result.Method)
	}
	if result.Beat.BPM != 120 {
		t.Fatalf("expected 120 BPM fallback grid, got %f", result.Beat.BPM)
	}
}
