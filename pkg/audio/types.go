// ABOUTME: Audio type definitions
// ABOUTME: Defines PCM formats, decoded clip buffers and sample conversions
package audio

import "time"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes a PCM stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Buffer holds a fully decoded clip.
// Samples are interleaved and left-justified in the 24-bit range.
type Buffer struct {
	Samples []int32
	Format  Format
}

// Frames returns the number of sample frames in the buffer
func (b Buffer) Frames() int {
	if b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the playback length of the buffer
func (b Buffer) Duration() time.Duration {
	if b.Format.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.Format.SampleRate)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromDepth scales an integer sample of the given bit depth into the 24-bit range
func SampleFromDepth(sample int, bitDepth int) int32 {
	switch {
	case bitDepth == 8:
		// 8-bit WAV is unsigned
		return int32(sample-128) << 16
	case bitDepth < 24:
		return int32(sample) << (24 - bitDepth)
	case bitDepth > 24:
		return int32(sample >> (bitDepth - 24))
	default:
		return int32(sample)
	}
}

// Remix converts interleaved samples between channel counts.
// Mono is duplicated into every output channel; extra input channels are averaged down.
func Remix(samples []int32, from, to int) []int32 {
	if from == to || from <= 0 || to <= 0 {
		return samples
	}

	frames := len(samples) / from
	out := make([]int32, frames*to)
	for f := 0; f < frames; f++ {
		in := samples[f*from : (f+1)*from]
		if to < from {
			// average everything into the first `to` channels
			var sum int64
			for _, s := range in {
				sum += int64(s)
			}
			avg := int32(sum / int64(from))
			for ch := 0; ch < to; ch++ {
				out[f*to+ch] = avg
			}
			continue
		}
		for ch := 0; ch < to; ch++ {
			out[f*to+ch] = in[ch%from]
		}
	}
	return out
}
