// ABOUTME: Headerless PCM decoder
// ABOUTME: Reads whole little-endian 16-bit or 24-bit frames into int32 samples
package decode

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

// unpackers lift one little-endian sample into the 24-bit range
var unpackers = map[int]func([]byte) int32{
	16: func(b []byte) int32 {
		return audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(b)))
	},
	24: func(b []byte) int32 {
		return audio.SampleFrom24Bit([3]byte{b[0], b[1], b[2]})
	},
}

// PCMDecoder decodes raw PCM whose layout is supplied out of band
type PCMDecoder struct {
	format audio.Format
}

// NewPCM creates a PCM decoder for a fixed layout
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.Codec != CodecPCM {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}
	if _, ok := unpackers[format.BitDepth]; !ok {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return nil, fmt.Errorf("invalid PCM layout: %d Hz, %d channels", format.SampleRate, format.Channels)
	}
	return &PCMDecoder{format: format}, nil
}

// Decode reads frames until EOF. A trailing partial frame is discarded.
func (d *PCMDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	unpack := unpackers[d.format.BitDepth]
	width := d.format.SampleWidth()
	frame := make([]byte, width*d.format.Channels)
	br := bufio.NewReaderSize(r, 64*1024)

	var samples []int32
	for {
		_, err := io.ReadFull(br, frame)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, decodeErr(CodecPCM, err)
		}
		for off := 0; off < len(frame); off += width {
			samples = append(samples, unpack(frame[off:off+width]))
		}
	}

	return finish(&audio.Buffer{Samples: samples, Format: d.format})
}
