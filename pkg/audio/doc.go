// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the PCM types shared by the decoders and the output.
//
// Decoded clips are held as interleaved int32 samples left-justified in the
// 24-bit range so every decoder produces the same representation regardless of
// source bit depth.
//
// Example:
//
//	buf := audio.Buffer{
//	    Samples: samples,
//	    Format:  audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 16},
//	}
//	log.Printf("clip is %v long", buf.Duration())
package audio
