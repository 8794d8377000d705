// Command analyze runs the rhythm analysis pipeline against a single
// audio file and prints the resulting AnalysisResult as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rhythmforge/rhythmcore/internal/config"
	"github.com/rhythmforge/rhythmcore/internal/pattern"
	"github.com/rhythmforge/rhythmcore/internal/pipeline"
	"github.com/rhythmforge/rhythmcore/internal/storage"
)

func main() {
	cfg := config.Parse()

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	pass := flag.Arg(0)
	trackPath := flag.Arg(1)
	if trackPath == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze [flags] {standard|step|adaptive} <track-path>")
		os.Exit(2)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error("failed to create data directory", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.SeedBuiltinPatterns(pattern.Library); err != nil {
		logger.Warn("failed to seed builtin patterns", "error", err)
	}

	audioBytes, err := os.ReadFile(trackPath)
	if err != nil {
		logger.Error("failed to read track", "path", trackPath, "error", err)
		os.Exit(1)
	}

	passKind, passName := parsePass(pass)

	jobID, err := db.CreateJob(trackPath, passName, nil)
	if err != nil {
		logger.Error("failed to create job record", "error", err)
		os.Exit(1)
	}
	if err := db.StartJob(jobID); err != nil {
		logger.Warn("failed to mark job running", "error", err)
	}

	p := pipeline.New(pipeline.NopStemSeparator{}, nil, logger)
	defer p.Close()

	result, err := p.Analyze(context.Background(), pipeline.Request{
		Audio:              audioBytes,
		Filename:           trackPath,
		Pass:               passKind,
		ApplyPatternFilter: true,
		TimeSignature:      cfg.TimeSignature,
	})
	if err != nil {
		db.FailJob(jobID, err.Error())
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	if _, err := db.SaveAnalysisRecord(jobID, result); err != nil {
		logger.Warn("failed to persist analysis record", "error", err)
	}
	if err := db.CompleteJob(jobID); err != nil {
		logger.Warn("failed to mark job complete", "error", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("failed to encode result", "error", err)
		os.Exit(1)
	}
}

func parsePass(s string) (pipeline.PassKind, string) {
	switch s {
	case "step":
		return pipeline.PassStep, "step"
	case "adaptive":
		return pipeline.PassAdaptive, "adaptive"
	default:
		return pipeline.PassStandard, "standard"
	}
}
