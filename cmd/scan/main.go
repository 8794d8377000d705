// Command scan walks one or more directories for audio files and queues a
// job record for each one, so cmd/analyze (or any other consumer of
// internal/storage's jobs table) can process them independently.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rhythmforge/rhythmcore/internal/config"
	"github.com/rhythmforge/rhythmcore/internal/scanner"
	"github.com/rhythmforge/rhythmcore/internal/storage"
)

func main() {
	pass := flag.String("pass", "standard", "pass to queue for each discovered file: standard, step, or adaptive")
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

	roots := flag.Args()
	if len(roots) == 0 {
		fmt.Fprintln(os.Stderr, "usage: scan [flags] <dir> [dir...]")
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

	s := scanner.NewScanner(db, logger)
	progress := make(chan scanner.ScanProgress)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for p := range progress {
			if p.Status == "error" {
				logger.Warn("scan: file failed", "path", p.Path, "error", p.Error)
				continue
			}
			logger.Info("scan: "+p.Status, "path", p.Path, "job_id", p.JobID, "progress", fmt.Sprintf("%d/%d", p.Processed, p.Total))
		}
	}()

	if err := s.Scan(context.Background(), roots, *pass, progress); err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}
	<-done
}
