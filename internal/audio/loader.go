// Package audio implements the audio loader (C1): decoding an input byte
// stream to a mono/stereo waveform at the pipeline's fixed sample rate.
package audio

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// Load reads the file at path and decodes it to a waveform at
// rhythm.SampleRate. Format detection sniffs magic bytes first and falls
// back to the extension only when sniffing is inconclusive, so a renamed
// file still decodes correctly.
func Load(path string, logger *slog.Logger) (*rhythm.Waveform, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("audio: read %s: %w", path, err)
	}
	return Decode(data, filepath.Base(path), logger)
}

// Decode decodes raw bytes to a waveform, using filenameHint only to bias
// format detection when magic bytes are ambiguous.
func Decode(data []byte, filenameHint string, logger *slog.Logger) (*rhythm.Waveform, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(data) > rhythm.MaxInputBytes {
		return nil, fmt.Errorf("audio: %d bytes: %w", len(data), rhythm.ErrTooLarge)
	}

	format := sniffFormat(data, filenameHint)
	logger.Info("audio: decoding", "filename", filenameHint, "format", format, "bytes", len(data))

	switch format {
	case formatWAV:
		wf, err := decodeWAV(data, logger)
		if err != nil {
			return nil, fmt.Errorf("audio: decode wav: %w", err)
		}
		return resampleTo(wf, rhythm.SampleRate), nil
	case formatMP3:
		wf, err := decodeMP3(data)
		if err != nil {
			return nil, fmt.Errorf("audio: decode mp3: %w", err)
		}
		return resampleTo(wf, rhythm.SampleRate), nil
	case formatFLAC:
		return nil, fmt.Errorf("audio: flac not yet supported: %w", rhythm.ErrUnsupportedFormat)
	default:
		diag := diagnose(data)
		return nil, fmt.Errorf("audio: unrecognized format (%s): %w", diag, rhythm.ErrUnsupportedFormat)
	}
}

type containerFormat int

const (
	formatUnknown containerFormat = iota
	formatWAV
	formatMP3
	formatFLAC
)

func (f containerFormat) String() string {
	switch f {
	case formatWAV:
		return "wav"
	case formatMP3:
		return "mp3"
	case formatFLAC:
		return "flac"
	default:
		return "unknown"
	}
}

func sniffFormat(data []byte, filenameHint string) containerFormat {
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")) {
		return formatWAV
	}
	if len(data) >= 4 && bytes.Equal(data[0:4], []byte("fLaC")) {
		return formatFLAC
	}
	if len(data) >= 3 && (bytes.Equal(data[0:3], []byte("ID3")) || isMP3FrameSync(data)) {
		return formatMP3
	}
	switch strings.ToLower(filepath.Ext(filenameHint)) {
	case ".wav":
		return formatWAV
	case ".mp3":
		return formatMP3
	case ".flac":
		return formatFLAC
	}
	return formatUnknown
}

func isMP3FrameSync(data []byte) bool {
	for i := 0; i+1 < len(data) && i < 4096; i++ {
		if data[i] == 0xFF && data[i+1]&0xE0 == 0xE0 {
			return true
		}
	}
	return false
}

// diagnose uses dhowden/tag's container sniffing to produce a better error
// message than "unknown" when decoding fails outright.
func diagnose(data []byte) string {
	meta, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return "no recognizable tag or container"
	}
	return string(meta.Format())
}
