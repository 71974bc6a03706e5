// ABOUTME: Audio output package for playing clips
// ABOUTME: Provides Device/Player interfaces, the oto device and looping clips
// Package output provides audio playback for short looping clips.
//
// A single oto context backs every clip; each Clip gets its own player while
// it loops and releases it when stopped.
//
// Example:
//
//	device, err := output.OpenOto(output.DefaultSampleRate, output.DefaultChannels)
//	clip, err := output.LoadClip(device, sounds.FS(), "search.wav")
//	clip.Loop()
//	clip.Stop()
package output
