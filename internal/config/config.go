// Package config parses the flag-based configuration shared by the
// module's cmd/ entrypoints, following the teacher's flag.Parse-based
// Config struct convention.
package config

import (
	"flag"
	"os"
)

// Config bundles the tunables every cmd/ tool in this module accepts.
type Config struct {
	DataDir  string
	LogLevel string

	// StemServiceAddr holds the -stem-service-addr flag value. No command
	// reads it: cmd/analyze always builds the pipeline with
	// NopStemSeparator, so every stem request continues on the full mix
	// whatever this is set to.
	StemServiceAddr string

	TimeSignature int
}

// Parse parses os.Args into a Config, mirroring the teacher's flag.Parse
// entrypoint pattern.
func Parse() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.DataDir, "data-dir", defaultDataDir(), "data directory for the pattern library and job records")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&cfg.StemServiceAddr, "stem-service-addr", "", "base URL of an external stem-separation service (accepted but not used by any command)")
	flag.IntVar(&cfg.TimeSignature, "time-signature", 4, "beats per bar for grid construction")

	flag.Parse()
	return cfg
}

func defaultDataDir() string {
	if dir := os.Getenv("RHYTHMCORE_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rhythmcore"
	}
	return home + "/.rhythmcore"
}
