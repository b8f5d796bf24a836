// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides fundamental audio types and utilities for the voice changer.
//
// This package defines core types used throughout the library:
//   - Format: Describes a decoded clip (codec, sample rate, channels, bit depth)
//   - Buffer: Decoded, interleaved PCM audio owned by a single request
//
// Samples are stored as int32 values in the 24-bit range regardless of the
// source bit depth, so 16-bit sources are left-shifted by 8. It also provides
// utilities for converting between sample representations:
//   - 16-bit ↔ 24-bit conversions
//   - int32 ↔ packed byte conversions
//   - int32 ↔ float64 in [-1, 1] for library resamplers and codecs
//
// Example:
//
//	buf := &audio.Buffer{
//	    Format:  audio.Format{Codec: "wav", SampleRate: 44100, Channels: 1, BitDepth: 16},
//	    Samples: samples,
//	}
//	fmt.Println(buf.Duration())
package audio
