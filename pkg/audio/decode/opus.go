// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Decodes Ogg Opus files to int32 samples through libopusfile
package decode

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

const (
	// Opus always decodes at 48kHz
	opusSampleRate = 48000
	// Max frame size per channel (120ms at 48kHz)
	opusMaxFrame = 5760
)

var opusHeadMagic = []byte("OpusHead")

// OpusDecoder decodes Ogg Opus audio
type OpusDecoder struct{}

// NewOpus creates a new Opus decoder
func NewOpus() Decoder {
	return &OpusDecoder{}
}

// Decode reads a complete Ogg Opus clip
func (d *OpusDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, decodeErr(CodecOpus, err)
	}

	channels, err := opusChannels(data)
	if err != nil {
		return nil, decodeErr(CodecOpus, err)
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, decodeErr(CodecOpus, fmt.Errorf("failed to open opus stream: %w", err))
	}
	defer stream.Close()

	pcm16 := make([]int16, opusMaxFrame*channels)
	var samples []int32
	for {
		n, err := stream.Read(pcm16)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, decodeErr(CodecOpus, err)
		}

		// n is samples per channel
		for i := 0; i < n*channels; i++ {
			samples = append(samples, audio.SampleFromInt16(pcm16[i]))
		}
	}

	return finish(&audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      CodecOpus,
			SampleRate: opusSampleRate,
			Channels:   channels,
			BitDepth:   16,
		},
	})
}

// opusChannels reads the channel count from the OpusHead identification header
func opusChannels(data []byte) (int, error) {
	idx := bytes.Index(data, opusHeadMagic)
	// magic(8) version(1) channels(1)
	if idx < 0 || idx+10 > len(data) {
		return 0, fmt.Errorf("missing OpusHead header")
	}
	channels := int(data[idx+9])
	if channels < 1 || channels > 2 {
		return 0, fmt.Errorf("unsupported opus channel count: %d", channels)
	}
	return channels, nil
}
