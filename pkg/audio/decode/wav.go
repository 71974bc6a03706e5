// ABOUTME: WAV audio decoder
// ABOUTME: Decodes integer PCM WAV files to int32 samples using go-audio/wav
package decode

import (
	"bytes"
	"fmt"

	"github.com/Resonate-Protocol/tone-go/pkg/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag; float and compressed WAVs are rejected
const wavFormatPCM = 1

// WAVDecoder decodes WAV files
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV() Decoder {
	return &WAVDecoder{}
}

// Decode converts WAV bytes to int32 samples
func (d *WAVDecoder) Decode(data []byte) (audio.Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return audio.Buffer{}, fmt.Errorf("invalid wav file")
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return audio.Buffer{}, fmt.Errorf("unsupported wav encoding: %d", dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("failed to read wav samples: %w", err)
	}
	if len(buf.Data) == 0 {
		return audio.Buffer{}, fmt.Errorf("wav file has no samples")
	}

	bitDepth := int(dec.BitDepth)
	samples := make([]int32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = audio.SampleFromDepth(v, bitDepth)
	}

	return audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      "wav",
			SampleRate: int(dec.SampleRate),
			Channels:   int(dec.NumChans),
			BitDepth:   bitDepth,
		},
	}, nil
}
