package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// decodeMP3 decodes an MP3 byte buffer to a stereo waveform at the file's
// native sample rate (go-mp3 always decodes to 16-bit signed-LE stereo).
func decodeMP3(data []byte) (*rhythm.Waveform, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rhythm.ErrDecodeFailed, err)
	}

	var left, right []float32
	buf := make([]byte, 4096)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			appendStereoFrames(buf[:n], &left, &right)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", rhythm.ErrDecodeFailed, err)
		}
	}

	return &rhythm.Waveform{
		Channels:   [][]float32{left, right},
		SampleRate: dec.SampleRate(),
	}, nil
}

// appendStereoFrames unpacks 16-bit signed-LE interleaved stereo PCM bytes
// (go-mp3's fixed output format) into per-channel float32 slices.
func appendStereoFrames(b []byte, left, right *[]float32) {
	const bytesPerFrame = 4 // 2 channels * 16 bits
	n := len(b) / bytesPerFrame
	for i := 0; i < n; i++ {
		off := i * bytesPerFrame
		l := int16(binary.LittleEndian.Uint16(b[off : off+2]))
		r := int16(binary.LittleEndian.Uint16(b[off+2 : off+4]))
		*left = append(*left, float32(l)/32768.0)
		*right = append(*right, float32(r)/32768.0)
	}
}
