// ABOUTME: Bundled tone clips
// ABOUTME: Embeds the search and lock WAV files into the binary
package sounds

import (
	"embed"
	"io/fs"
)

//go:embed sounds/*.wav
var soundFiles embed.FS

// FS returns the bundled sound files rooted at the sounds directory
func FS() fs.FS {
	sub, err := fs.Sub(soundFiles, "sounds")
	if err != nil {
		return soundFiles
	}
	return sub
}

// Path maps an entry name such as "search" to its bundled file name
func Path(name string) string {
	return name + ".wav"
}
