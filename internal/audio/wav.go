package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// decodeWAV decodes a WAV byte buffer to a waveform. It tries the go-audio
// decoder first (handles the common well-formed case); if that fails it
// falls back to a manual RIFF chunk walk that tolerates chunks in any
// order and skips unknown chunks by declared size, matching real-world
// files that put "fmt " after "data" or carry vendor-specific chunks.
func decodeWAV(data []byte, logger *slog.Logger) (*rhythm.Waveform, error) {
	wf, err := decodeWAVLibrary(data)
	if err == nil {
		return wf, nil
	}
	logger.Warn("audio: go-audio wav decode failed, falling back to manual chunk walk", "error", err)
	return decodeWAVManual(data)
}

func decodeWAVLibrary(data []byte) (*rhythm.Waveform, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav container")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	return pcmBufferToWaveform(buf), nil
}

func pcmBufferToWaveform(buf *goaudio.PCMBuffer) *rhythm.Waveform {
	ib := buf.AsFloatBuffer()
	numChannels := ib.Format.NumChannels
	if numChannels < 1 {
		numChannels = 1
	}
	frames := len(ib.Data) / numChannels
	channels := make([][]float32, numChannels)
	for c := range channels {
		channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < numChannels; c++ {
			channels[c][i] = float32(ib.Data[i*numChannels+c])
		}
	}
	return &rhythm.Waveform{Channels: channels, SampleRate: ib.Format.SampleRate}
}

// decodeWAVManual walks RIFF chunks directly, accepting any chunk order
// and skipping chunks it doesn't understand by their declared size. This
// mirrors the defensive, no-library WAV parsing style used elsewhere in
// this codebase's lineage for handling nonstandard captures.
func decodeWAVManual(data []byte) (*rhythm.Waveform, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE header", rhythm.ErrDecodeFailed)
	}

	var (
		numChannels   uint16
		sampleRate    uint32
		bitsPerSample uint16
		audioFormat   uint16
		dataBytes     []byte
		haveFmt       bool
	)

	pos := 12
	for pos+8 <= len(data) {
		chunkID := data[pos : pos+4]
		chunkSize := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		body := pos + 8
		end := body + int(chunkSize)
		if end > len(data) {
			end = len(data)
		}

		switch string(chunkID) {
		case "fmt ":
			if end-body < 16 {
				return nil, fmt.Errorf("%w: truncated fmt chunk", rhythm.ErrDecodeFailed)
			}
			fc := data[body:end]
			audioFormat = binary.LittleEndian.Uint16(fc[0:2])
			numChannels = binary.LittleEndian.Uint16(fc[2:4])
			sampleRate = binary.LittleEndian.Uint32(fc[4:8])
			bitsPerSample = binary.LittleEndian.Uint16(fc[14:16])
			haveFmt = true
		case "data":
			dataBytes = data[body:end]
		}

		// Chunks are word-aligned; skip the pad byte if chunkSize is odd.
		advance := int(chunkSize)
		if advance%2 == 1 {
			advance++
		}
		pos = body + advance
	}

	if !haveFmt {
		return nil, fmt.Errorf("%w: no fmt chunk", rhythm.ErrDecodeFailed)
	}
	if dataBytes == nil {
		return nil, fmt.Errorf("%w: no data chunk", rhythm.ErrDecodeFailed)
	}
	if numChannels == 0 {
		numChannels = 1
	}

	bytesPerSample := int(bitsPerSample) / 8
	if bytesPerSample == 0 {
		return nil, fmt.Errorf("%w: zero bits per sample", rhythm.ErrDecodeFailed)
	}
	frameSize := bytesPerSample * int(numChannels)
	if frameSize == 0 {
		return nil, fmt.Errorf("%w: zero frame size", rhythm.ErrDecodeFailed)
	}
	numFrames := len(dataBytes) / frameSize

	channels := make([][]float32, numChannels)
	for c := range channels {
		channels[c] = make([]float32, numFrames)
	}

	for i := 0; i < numFrames; i++ {
		base := i * frameSize
		for c := 0; c < int(numChannels); c++ {
			off := base + c*bytesPerSample
			channels[c][i] = decodeSample(dataBytes[off:off+bytesPerSample], audioFormat, bitsPerSample)
		}
	}

	return &rhythm.Waveform{Channels: channels, SampleRate: int(sampleRate)}, nil
}

func decodeSample(b []byte, audioFormat uint16, bitsPerSample uint16) float32 {
	const ieeeFloat = 3
	switch bitsPerSample {
	case 16:
		v := int16(binary.LittleEndian.Uint16(b))
		return float32(v) / 32768.0
	case 24:
		raw := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if raw&0x800000 != 0 {
			raw |= ^int32(0xFFFFFF)
		}
		return float32(raw) / 8388608.0
	case 32:
		if audioFormat == ieeeFloat {
			bits := binary.LittleEndian.Uint32(b)
			return math.Float32frombits(bits)
		}
		v := int32(binary.LittleEndian.Uint32(b))
		return float32(v) / 2147483648.0
	case 8:
		// 8-bit PCM is unsigned with a 128 bias.
		return (float32(b[0]) - 128) / 128.0
	default:
		return 0
	}
}
