// ABOUTME: Oto-based audio output device
// ABOUTME: Owns the process-wide oto context shared by every clip player
package output

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Resonate-Protocol/tone-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2
)

var (
	// oto only allows one context per process
	otoMu     sync.Mutex
	otoShared *Oto
)

// Oto output device using oto library
type Oto struct {
	otoCtx     *oto.Context
	sampleRate int
	channels   int
}

// OpenOto initializes the output device. Later calls with the same format
// return the existing device.
func OpenOto(sampleRate, channels int) (*Oto, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoShared != nil {
		if otoShared.sampleRate == sampleRate && otoShared.channels == channels {
			log.Printf("Audio output already initialized with same format, reusing context")
			return otoShared, nil
		}
		return nil, fmt.Errorf("audio output already initialized at %dHz %dch, cannot reopen at %dHz %dch",
			otoShared.sampleRate, otoShared.channels, sampleRate, channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	otoShared = &Oto{
		otoCtx:     ctx,
		sampleRate: sampleRate,
		channels:   channels,
	}

	log.Printf("Audio output initialized: %dHz, %d channels", sampleRate, channels)

	return otoShared, nil
}

// NewPlayer creates a player reading signed 16-bit little-endian PCM from r
func (o *Oto) NewPlayer(r io.Reader) Player {
	return o.otoCtx.NewPlayer(r)
}

// Format returns the device PCM format
func (o *Oto) Format() audio.Format {
	return audio.Format{
		Codec:      "pcm",
		SampleRate: o.sampleRate,
		Channels:   o.channels,
		BitDepth:   16,
	}
}

// Suspend pauses the underlying audio device
func (o *Oto) Suspend() error {
	return o.otoCtx.Suspend()
}
