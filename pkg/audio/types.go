// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, decoded buffers and sample conversions
package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	fullScale24 = 8388608.0
)

// ErrInvalidFormat is returned by Validate for buffers that break the layout invariants.
var ErrInvalidFormat = errors.New("invalid audio format")

// Format describes a decoded clip
type Format struct {
	Codec      string // source codec, informational only
	SampleRate int
	Channels   int
	BitDepth   int // bit depth of the source, used when encoding
}

// SampleWidth returns the byte width of one sample at the format's bit depth
func (f Format) SampleWidth() int {
	return (f.BitDepth + 7) / 8
}

func (f Format) String() string {
	return fmt.Sprintf("%s %dHz %dch %d-bit", f.Codec, f.SampleRate, f.Channels, f.BitDepth)
}

// Buffer represents decoded PCM audio
type Buffer struct {
	Samples []int32 // Interleaved PCM samples (int32 in 24-bit range)
	Format  Format
}

// Frames returns the number of samples per channel
func (b *Buffer) Frames() int {
	if b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the playback length at the buffer's sample rate
func (b *Buffer) Duration() time.Duration {
	if b.Format.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.Format.SampleRate) * float64(time.Second))
}

// Validate checks the layout invariants of the buffer
func (b *Buffer) Validate() error {
	if b.Format.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, b.Format.SampleRate)
	}
	if b.Format.Channels <= 0 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidFormat, b.Format.Channels)
	}
	if len(b.Samples)%b.Format.Channels != 0 {
		return fmt.Errorf("%w: %d samples is not a multiple of %d channels",
			ErrInvalidFormat, len(b.Samples), b.Format.Channels)
	}
	return nil
}

// Clone returns a deep copy of the buffer
func (b *Buffer) Clone() *Buffer {
	samples := make([]int32, len(b.Samples))
	copy(samples, b.Samples)
	return &Buffer{Samples: samples, Format: b.Format}
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	// Left-shift to position 16-bit value in upper bits
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	// Take lower 24 bits, pack little-endian
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	// Reconstruct 24-bit value and sign-extend to 32-bit
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF // Set upper 8 bits to 1 for negative values
	}
	return val
}

// SampleToFloat converts a 24-bit range sample to a float in [-1, 1)
func SampleToFloat(sample int32) float64 {
	return float64(sample) / fullScale24
}

// SampleFromFloat converts a float in [-1, 1] to the 24-bit range, clipping out-of-range values
func SampleFromFloat(f float64) int32 {
	if math.IsNaN(f) {
		return 0
	}
	v := math.Round(f * fullScale24)
	if v > Max24Bit {
		return Max24Bit
	}
	if v < Min24Bit {
		return Min24Bit
	}
	return int32(v)
}

// SampleFromDepth scales a signed sample of the given bit depth into the 24-bit range
func SampleFromDepth(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth < 24:
		return sample << (24 - bitDepth)
	default:
		return sample >> (bitDepth - 24)
	}
}
