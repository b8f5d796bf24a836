// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE files through beep's wav package
package decode

import (
	"io"

	"github.com/faiface/beep/wav"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

// WAVDecoder decodes WAV audio
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV() Decoder {
	return &WAVDecoder{}
}

// Decode reads a complete WAV clip
func (d *WAVDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	s, format, err := wav.Decode(readerOnly{r})
	if err != nil {
		return nil, decodeErr(CodecWAV, err)
	}
	return drainBeep(CodecWAV, s, format)
}
