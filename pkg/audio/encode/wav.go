// ABOUTME: WAV audio encoder
// ABOUTME: Writes mono and stereo through beep's wav package, wider layouts as plain RIFF
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

const wavHeaderSize = 44

// WAVEncoder encodes WAV audio
type WAVEncoder struct {
	bitDepth int
}

// NewWAV creates a WAV encoder; bitDepth 0 keeps each buffer's own depth
func NewWAV(bitDepth int) Encoder {
	return &WAVEncoder{bitDepth: bitDepth}
}

// ContentType reports the WAV MIME type
func (e *WAVEncoder) ContentType() string {
	return "audio/wav"
}

// Encode writes a complete WAV file
func (e *WAVEncoder) Encode(buf *audio.Buffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	depth := e.bitDepth
	if depth == 0 {
		depth = buf.Format.BitDepth
	}

	if buf.Format.Channels > 2 {
		return encodeRIFF(buf, depth), nil
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(buf.Format.SampleRate),
		NumChannels: buf.Format.Channels,
		Precision:   precision(depth),
	}

	ws := &writeSeeker{}
	if err := wav.Encode(ws, newBufferStreamer(buf), format); err != nil {
		return nil, fmt.Errorf("failed to encode wav: %w", err)
	}
	return ws.Bytes(), nil
}

// precision maps a bit depth to a byte width beep can write (1 to 3)
func precision(bitDepth int) int {
	p := (bitDepth + 7) / 8
	if p < 1 {
		return 2
	}
	if p > 3 {
		return 3
	}
	return p
}

// encodeRIFF writes a canonical PCM WAV for layouts beep cannot express
func encodeRIFF(buf *audio.Buffer, bitDepth int) []byte {
	depth := 16
	if bitDepth > 16 {
		depth = 24
	}
	data := encodePCM(buf.Samples, depth)

	channels := buf.Format.Channels
	blockAlign := channels * depth / 8
	out := make([]byte, wavHeaderSize, wavHeaderSize+len(data))

	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+len(data)))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(buf.Format.SampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(buf.Format.SampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], uint16(depth))
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(len(data)))

	return append(out, data...)
}
