// ABOUTME: Headerless PCM encoder
// ABOUTME: Packs int32 samples into little-endian 16-bit or 24-bit bytes
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

// packer writes one sample into dst, which is exactly one sample wide
type packer func(dst []byte, sample int32)

var packers = map[int]packer{
	16: func(dst []byte, s int32) {
		binary.LittleEndian.PutUint16(dst, uint16(audio.SampleToInt16(s)))
	},
	24: func(dst []byte, s int32) {
		b := audio.SampleTo24Bit(s)
		copy(dst, b[:])
	},
}

// PCMEncoder writes raw interleaved samples with no container
type PCMEncoder struct {
	bitDepth int
}

// NewPCM creates a PCM encoder for 16 or 24 bit output
func NewPCM(bitDepth int) (*PCMEncoder, error) {
	if _, ok := packers[bitDepth]; !ok {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", bitDepth)
	}
	return &PCMEncoder{bitDepth: bitDepth}, nil
}

// Encode converts the buffer's samples to little-endian PCM bytes
func (e *PCMEncoder) Encode(buf *audio.Buffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	return encodePCM(buf.Samples, e.bitDepth), nil
}

// ContentType is the RFC 3190 linear PCM type for the bit depth
func (e *PCMEncoder) ContentType() string {
	return fmt.Sprintf("audio/L%d", e.bitDepth)
}

func encodePCM(samples []int32, bitDepth int) []byte {
	pack := packers[bitDepth]
	width := bitDepth / 8
	out := make([]byte, len(samples)*width)
	for i, s := range samples {
		pack(out[i*width:(i+1)*width], s)
	}
	return out
}
