// ABOUTME: Audio decoder package for bundled clips
// ABOUTME: Provides Decoder interface and implementations for WAV and MP3
// Package decode turns complete encoded audio files into PCM buffers.
//
// Supports: WAV (8, 16, 24 and 32-bit integer PCM) and MP3.
//
// All decoders output int32 samples in 24-bit range.
//
// Example:
//
//	decoder, err := decode.ForName("search.wav")
//	buf, err := decoder.Decode(data)
package decode
