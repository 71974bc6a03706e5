// ABOUTME: Audio output interface definitions
// ABOUTME: Device and Player abstractions plus the clip loading error type
package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/tone-go/pkg/audio"
)

// ErrNoDevice is returned when a clip is loaded without an output device
var ErrNoDevice = errors.New("no audio output device")

// Device represents an audio output device that can host many players
type Device interface {
	// NewPlayer creates a paused player that pulls PCM from r
	NewPlayer(r io.Reader) Player

	// Format returns the PCM format players must supply
	Format() audio.Format
}

// Player plays one PCM stream on a Device. *oto.Player satisfies it.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	Close() error
}

// ResourceError reports a bundled clip that could not be made playable:
// missing, malformed, or no output device to play it on.
type ResourceError struct {
	Name string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("audio resource %q: %v", e.Name, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
