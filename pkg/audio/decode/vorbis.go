// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Decodes Vorbis streams through beep's vorbis package
package decode

import (
	"io"

	"github.com/faiface/beep/vorbis"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

// VorbisDecoder decodes Ogg Vorbis audio
type VorbisDecoder struct{}

// NewVorbis creates a new Vorbis decoder
func NewVorbis() Decoder {
	return &VorbisDecoder{}
}

// Decode reads a complete Ogg Vorbis clip
func (d *VorbisDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	s, format, err := vorbis.Decode(io.NopCloser(r))
	if err != nil {
		return nil, decodeErr(CodecVorbis, err)
	}
	return drainBeep(CodecVorbis, s, format)
}
