// Package scanner walks a directory tree for audio files and queues a job
// record (internal/storage) for each one, so a batch of tracks can be handed
// to the pipeline without the caller re-implementing directory traversal or
// format sniffing.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rhythmforge/rhythmcore/internal/storage"
)

// SupportedFormats lists the audio container extensions the loader (C1) can
// decode or sniff a diagnostic from.
var SupportedFormats = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".aiff": true,
	".aif":  true,
	".m4a":  true,
	".ogg":  true,
}

// Scanner recursively discovers audio files and queues jobs for them.
type Scanner struct {
	db     *storage.DB
	logger *slog.Logger
	cache  *HashCache
}

// NewScanner returns a Scanner backed by db. The pass each queued job gets
// ("standard", "step", or "adaptive") is chosen per call to Scan.
func NewScanner(db *storage.DB, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{db: db, logger: logger, cache: NewHashCache()}
}

// ScanProgress reports one file's outcome as Scan walks the given roots.
type ScanProgress struct {
	Path        string
	Status      string // queued, skipped, error
	Error       string
	JobID       int64
	ContentHash string
	Processed   int64
	Total       int64
	ElapsedMs   int64
}

// Scan walks roots for supported audio files and queues a job for each one
// not already seen at the same path and modification time in this
// scanner's cache, reporting one
// ScanProgress per file on the progress channel, which it closes when done.
func (s *Scanner) Scan(ctx context.Context, roots []string, passName string, progress chan<- ScanProgress) error {
	defer close(progress)
	start := time.Now()

	var files []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if SupportedFormats[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			s.logger.Warn("scan: walk failed", "root", root, "error", err)
		}
	}

	for i, path := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result := s.queueFile(path, passName)
		result.Processed = int64(i + 1)
		result.Total = int64(len(files))
		result.ElapsedMs = time.Since(start).Milliseconds()

		select {
		case progress <- result:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Scanner) queueFile(path, passName string) ScanProgress {
	info, err := os.Stat(path)
	if err != nil {
		return ScanProgress{Path: path, Status: "error", Error: err.Error()}
	}

	hash, cached := s.cache.Get(path, info.ModTime())
	if !cached {
		hash, err = ComputeHash(path)
		if err != nil {
			return ScanProgress{Path: path, Status: "error", Error: err.Error()}
		}
		s.cache.Set(path, hash, info.ModTime())
	} else {
		return ScanProgress{Path: path, Status: "skipped", ContentHash: hash}
	}

	jobID, err := s.db.CreateJob(path, passName, map[string]any{
		"content_hash": hash,
		"file_size":    info.Size(),
	})
	if err != nil {
		return ScanProgress{Path: path, Status: "error", Error: err.Error()}
	}
	return ScanProgress{Path: path, Status: "queued", JobID: jobID, ContentHash: hash}
}

// ComputeHash returns a deterministic identity hash over the first 64KB of
// the file, enough to detect duplicate content without reading large files
// in full.
func ComputeHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.CopyN(h, file, 64*1024); err != nil && err != io.EOF {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashCache avoids re-hashing a file across scans when its modification time
// hasn't changed.
type HashCache struct {
	entries map[string]cacheEntry
}

type cacheEntry struct {
	hash    string
	modTime time.Time
}

// NewHashCache returns an empty HashCache.
func NewHashCache() *HashCache {
	return &HashCache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached hash for path if its mod time still matches.
func (c *HashCache) Get(path string, modTime time.Time) (string, bool) {
	e, ok := c.entries[path]
	if !ok || !e.modTime.Equal(modTime) {
		return "", false
	}
	return e.hash, true
}

// Set records path's hash at modTime.
func (c *HashCache) Set(path, hash string, modTime time.Time) {
	c.entries[path] = cacheEntry{hash: hash, modTime: modTime}
}
