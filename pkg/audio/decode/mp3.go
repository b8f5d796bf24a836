// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 audio to int32 samples
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

// go-mp3 always emits 16-bit little-endian stereo
const (
	mp3Channels = 2
	mp3BitDepth = 16
)

// MP3Decoder decodes MP3 audio
type MP3Decoder struct{}

// NewMP3 creates a new MP3 decoder
func NewMP3() Decoder {
	return &MP3Decoder{}
}

// Decode reads a complete MP3 clip
func (d *MP3Decoder) Decode(r io.Reader) (*audio.Buffer, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, decodeErr(CodecMP3, fmt.Errorf("failed to create mp3 decoder: %w", err))
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, decodeErr(CodecMP3, err)
	}

	// Drop a trailing partial frame
	frameBytes := mp3Channels * 2
	pcm = pcm[:len(pcm)-len(pcm)%frameBytes]

	numSamples := len(pcm) / 2
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = audio.SampleFromInt16(sample16)
	}

	return finish(&audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      CodecMP3,
			SampleRate: decoder.SampleRate(),
			Channels:   mp3Channels,
			BitDepth:   mp3BitDepth,
		},
	})
}
