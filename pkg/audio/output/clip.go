// ABOUTME: Looping audio clip
// ABOUTME: Loads a bundled sound into device-ready PCM and loops or stops it
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/Resonate-Protocol/tone-go/pkg/audio"
	"github.com/Resonate-Protocol/tone-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/tone-go/pkg/audio/resample"
)

// Clip is a decoded sound bound to an output device.
// Loop and Stop are safe to call from any goroutine; a nil or unloaded Clip ignores them.
type Clip struct {
	name     string
	device   Device
	pcm      []byte
	duration time.Duration

	mu     sync.Mutex
	player Player // non-nil while looping
	volume int
}

// LoadClip reads name from fsys, decodes it and converts it to the device format
func LoadClip(device Device, fsys fs.FS, name string) (*Clip, error) {
	if device == nil {
		return nil, &ResourceError{Name: name, Err: ErrNoDevice}
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, &ResourceError{Name: name, Err: err}
	}

	decoder, err := decode.ForName(name)
	if err != nil {
		return nil, &ResourceError{Name: name, Err: err}
	}

	buf, err := decoder.Decode(data)
	if err != nil {
		return nil, &ResourceError{Name: name, Err: err}
	}

	format := device.Format()
	buf = audio.Buffer{
		Samples: audio.Remix(buf.Samples, buf.Format.Channels, format.Channels),
		Format: audio.Format{
			Codec:      buf.Format.Codec,
			SampleRate: buf.Format.SampleRate,
			Channels:   format.Channels,
			BitDepth:   buf.Format.BitDepth,
		},
	}
	buf = resample.Convert(buf, format.SampleRate)
	if len(buf.Samples) == 0 {
		return nil, &ResourceError{Name: name, Err: fmt.Errorf("clip too short to play")}
	}

	return &Clip{
		name:     name,
		device:   device,
		pcm:      encodePCM16(buf.Samples),
		duration: buf.Duration(),
		volume:   100,
	}, nil
}

// Name returns the resource name the clip was loaded from
func (c *Clip) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Duration returns the length of one pass through the clip
func (c *Clip) Duration() time.Duration {
	if c == nil {
		return 0
	}
	return c.duration
}

// Loop starts playback from the beginning and repeats until Stop.
// Calling Loop while already looping does nothing.
func (c *Clip) Loop() error {
	if c == nil || c.device == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player != nil {
		return nil
	}

	p := c.device.NewPlayer(&loopReader{pcm: c.pcm})
	p.SetVolume(getVolumeMultiplier(c.volume))
	p.Play()
	c.player = p

	return nil
}

// Stop halts playback immediately. Calling Stop while stopped does nothing.
func (c *Clip) Stop() error {
	if c == nil || c.device == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player == nil {
		return nil
	}

	p := c.player
	c.player = nil
	p.Pause()
	if err := p.Close(); err != nil {
		return fmt.Errorf("failed to close player for %s: %w", c.name, err)
	}

	return nil
}

// IsLooping reports whether the clip is currently looping
func (c *Clip) IsLooping() bool {
	if c == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player != nil
}

// SetVolume sets the volume (0-100)
func (c *Clip) SetVolume(volume int) {
	if c == nil {
		return
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = volume
	if c.player != nil {
		c.player.SetVolume(getVolumeMultiplier(volume))
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int) float64 {
	return float64(volume) / 100.0
}

// encodePCM16 converts int32 samples to signed 16-bit little-endian bytes
func encodePCM16(samples []int32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(audio.SampleToInt16(s)))
	}
	return out
}

// loopReader yields pcm forever, wrapping back to the start
type loopReader struct {
	pcm []byte
	pos int
}

func (l *loopReader) Read(p []byte) (int, error) {
	if len(l.pcm) == 0 {
		return 0, io.EOF
	}

	n := 0
	for n < len(p) {
		c := copy(p[n:], l.pcm[l.pos:])
		n += c
		l.pos = (l.pos + c) % len(l.pcm)
	}
	return n, nil
}
