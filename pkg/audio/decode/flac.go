// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC audio to int32 samples
package decode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

const maxPreallocFrames = 1 << 26

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// NewFLAC creates a new FLAC decoder
func NewFLAC() Decoder {
	return &FLACDecoder{}
}

// Decode reads a complete FLAC clip frame by frame
func (d *FLACDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, decodeErr(CodecFLAC, err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	if channels < 1 {
		return nil, decodeErr(CodecFLAC, fmt.Errorf("invalid channel count: %d", channels))
	}

	// NSamples comes from the header and may be zero or bogus
	capacity := 0
	if info.NSamples > 0 && info.NSamples < maxPreallocFrames {
		capacity = int(info.NSamples) * channels
	}
	samples := make([]int32, 0, capacity)
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, decodeErr(CodecFLAC, err)
		}

		// FLAC stores samples as signed integers at the stream bit depth
		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, audio.SampleFromDepth(frame.Subframes[ch].Samples[i], bitDepth))
			}
		}
	}

	if decoded := uint64(len(samples) / channels); info.NSamples > 0 && decoded < info.NSamples {
		return nil, decodeErr(CodecFLAC, fmt.Errorf("truncated stream: %d of %d frames", decoded, info.NSamples))
	}

	return finish(&audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      CodecFLAC,
			SampleRate: int(info.SampleRate),
			Channels:   channels,
			BitDepth:   bitDepth,
		},
	})
}
