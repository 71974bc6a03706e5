// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for clip decoders and extension-based selection
package decode

import (
	"fmt"
	"path"
	"strings"

	"github.com/Resonate-Protocol/tone-go/pkg/audio"
)

// Decoder decodes a complete encoded audio file to PCM
type Decoder interface {
	// Decode converts an encoded file to interleaved PCM samples
	Decode(data []byte) (audio.Buffer, error)
}

// ForName returns a decoder for the file name's extension
func ForName(name string) (Decoder, error) {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".wav", ".wave":
		return NewWAV(), nil
	case ".mp3":
		return NewMP3(), nil
	default:
		return nil, fmt.Errorf("unsupported audio file type %q", ext)
	}
}
