package main

import (
	"flag"
	"log"
	"strings"

	"github.com/rhythmforge/rhythmcore/internal/fixtures"
)

// fixturegen produces the deterministic WAV scenarios used by the rest of the
// test suite (and by developers reproducing a failing analysis locally).
func main() {
	outDir := flag.String("out", "./testdata/audio", "output directory for generated audio")
	seed := flag.Int64("seed", 1337, "seed for the deterministic noise generator")
	sampleRate := flag.Int("sample-rate", 44100, "output sample rate")
	scenariosFlag := flag.String("scenarios", "all", "comma-separated scenario names, or \"all\"")

	flag.Parse()

	var scenarios []string
	if strings.TrimSpace(*scenariosFlag) != "" && *scenariosFlag != "all" {
		for _, s := range strings.Split(*scenariosFlag, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				scenarios = append(scenarios, s)
			}
		}
	}

	manifest, err := fixtures.Generate(fixtures.Config{
		OutputDir:  *outDir,
		SampleRate: *sampleRate,
		Seed:       *seed,
		Scenarios:  scenarios,
	})
	if err != nil {
		log.Fatalf("generate fixtures: %v", err)
	}

	log.Printf("fixturegen wrote %d fixtures to %s (sample_rate=%d, seed=%d)",
		len(manifest.Fixtures), *outDir, *sampleRate, *seed)
}
