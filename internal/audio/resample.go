package audio

import "github.com/rhythmforge/rhythmcore/internal/rhythm"

// resampleTo linearly resamples every channel of wf to targetRate. The
// loader's contract (§4.1) is that output length is deterministic from
// input duration, which linear interpolation over the exact duration
// satisfies without pulling in a full polyphase resampler.
func resampleTo(wf *rhythm.Waveform, targetRate int) *rhythm.Waveform {
	if wf.SampleRate == targetRate || wf.SampleRate == 0 {
		wf.SampleRate = targetRate
		return wf
	}

	ratio := float64(targetRate) / float64(wf.SampleRate)
	srcLen := wf.NumSamples()
	dstLen := int(float64(srcLen) * ratio)

	channels := make([][]float32, len(wf.Channels))
	for c, src := range wf.Channels {
		dst := make([]float32, dstLen)
		for i := range dst {
			srcPos := float64(i) / ratio
			i0 := int(srcPos)
			frac := float32(srcPos - float64(i0))
			var s0, s1 float32
			if i0 < len(src) {
				s0 = src[i0]
			}
			if i0+1 < len(src) {
				s1 = src[i0+1]
			} else {
				s1 = s0
			}
			dst[i] = s0 + (s1-s0)*frac
		}
		channels[c] = dst
	}

	return &rhythm.Waveform{Channels: channels, SampleRate: targetRate}
}
