// ABOUTME: Shared drain loop for beep-backed decoders
// ABOUTME: Converts beep float frames to interleaved 24-bit samples
package decode

import (
	"fmt"
	"io"

	"github.com/faiface/beep"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

const beepChunkFrames = 4096

// readerOnly hides Close so beep decoders never close the caller's reader
type readerOnly struct {
	io.Reader
}

func drainBeep(codec string, s beep.StreamSeekCloser, format beep.Format) (*audio.Buffer, error) {
	defer s.Close()

	channels := format.NumChannels
	if channels < 1 || channels > 2 {
		return nil, decodeErr(codec, fmt.Errorf("unsupported channel count: %d", channels))
	}

	capacity := 0
	if n := s.Len(); n > 0 {
		capacity = n * channels
	}
	samples := make([]int32, 0, capacity)

	chunk := make([][2]float64, beepChunkFrames)
	for {
		n, ok := s.Stream(chunk)
		for i := 0; i < n; i++ {
			samples = append(samples, audio.SampleFromFloat(chunk[i][0]))
			if channels == 2 {
				samples = append(samples, audio.SampleFromFloat(chunk[i][1]))
			}
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, decodeErr(codec, err)
	}

	return finish(&audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      codec,
			SampleRate: int(format.SampleRate),
			Channels:   channels,
			BitDepth:   format.Precision * 8,
		},
	})
}
