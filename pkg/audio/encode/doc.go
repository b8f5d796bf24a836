// ABOUTME: Audio encoder package for serialising decoded buffers
// ABOUTME: Provides Encoder interface and implementations for WAV and raw PCM
// Package encode provides audio encoders for the voice changer output.
//
// Supports: WAV (8, 16 and 24-bit) and raw PCM (16-bit and 24-bit).
//
// All encoders accept buffers of int32 samples in 24-bit range.
//
// Example:
//
//	encoder, err := encode.New(encode.FormatWAV, buf.Format.BitDepth)
//	data, err := encoder.Encode(buf)
package encode
