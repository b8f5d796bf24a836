// ABOUTME: Whole-clip sample rate conversion with selectable engines
// ABOUTME: Wraps the Linear engine and the beep Lagrange resampler behind one call
package resample

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
	"github.com/faiface/beep"
)

// Engine selects the interpolation algorithm used by Convert
type Engine int

const (
	// EngineLagrange delegates to beep.Resample (polynomial interpolation)
	EngineLagrange Engine = iota
	// EngineLinear uses the in-tree Linear engine
	EngineLinear
)

// lagrangeQuality is the beep interpolation window (number of neighbours per side)
const lagrangeQuality = 4

// chunkFrames is the per-call frame count pulled from the beep resampler
const chunkFrames = 1024

// ErrInvalidRate is returned when either rate is not positive
var ErrInvalidRate = errors.New("resample: invalid sample rate")

func (e Engine) String() string {
	switch e {
	case EngineLinear:
		return "linear"
	default:
		return "lagrange"
	}
}

// ParseEngine maps a config value to an Engine. Empty selects the default.
func ParseEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lagrange", "beep":
		return EngineLagrange, nil
	case "linear":
		return EngineLinear, nil
	default:
		return EngineLagrange, fmt.Errorf("unknown resample engine: %s (supported: lagrange, linear)", name)
	}
}

// Convert resamples interleaved samples from fromRate to toRate and returns
// exactly frames frames.
func Convert(samples []int32, channels, fromRate, toRate, frames int, engine Engine) ([]int32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, fromRate, toRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("resample: invalid channel count: %d", channels)
	}
	if frames < 0 {
		return nil, fmt.Errorf("resample: invalid output length: %d", frames)
	}

	out := make([]int32, frames*channels)
	if frames == 0 || len(samples) < channels {
		return out, nil
	}

	var written int
	switch engine {
	case EngineLinear:
		written = convertLinear(samples, out, channels, fromRate, toRate)
	default:
		written = convertLagrange(samples, out, channels, fromRate, toRate, frames)
	}

	holdLastFrame(out, samples, channels, written)
	return out, nil
}

func convertLinear(samples, out []int32, channels, fromRate, toRate int) int {
	if fromRate == toRate {
		return copy(out, samples) / channels
	}
	return NewLinear(fromRate, toRate, channels).Resample(samples, out)
}

// convertLagrange runs channels through beep two at a time, since beep
// streams stereo frames.
func convertLagrange(samples, out []int32, channels, fromRate, toRate, frames int) int {
	chunk := make([][2]float64, chunkFrames)
	minWritten := frames

	for left := 0; left < channels; left += 2 {
		right := left + 1
		if right >= channels {
			right = left
		}

		src := &pairStreamer{samples: samples, channels: channels, left: left, right: right}
		r := beep.Resample(lagrangeQuality, beep.SampleRate(fromRate), beep.SampleRate(toRate), src)

		written := 0
		for written < frames {
			want := frames - written
			if want > len(chunk) {
				want = len(chunk)
			}
			n, ok := r.Stream(chunk[:want])
			for i := 0; i < n; i++ {
				base := (written + i) * channels
				out[base+left] = audio.SampleFromFloat(chunk[i][0])
				if right != left {
					out[base+right] = audio.SampleFromFloat(chunk[i][1])
				}
			}
			written += n
			if !ok || n == 0 {
				break
			}
		}
		if written < minWritten {
			minWritten = written
		}
	}

	return minWritten
}

// holdLastFrame fills out from frame `from` onwards with the final input frame
func holdLastFrame(out, samples []int32, channels, from int) {
	last := samples[len(samples)/channels*channels-channels:]
	for i := from * channels; i < len(out); i += channels {
		copy(out[i:i+channels], last[:channels])
	}
}

// pairStreamer exposes two channels of an interleaved clip as a beep.Streamer
type pairStreamer struct {
	samples  []int32
	channels int
	left     int
	right    int
	pos      int
}

func (s *pairStreamer) Stream(out [][2]float64) (int, bool) {
	frames := len(s.samples) / s.channels
	if s.pos >= frames {
		return 0, false
	}

	n := 0
	for n < len(out) && s.pos < frames {
		base := s.pos * s.channels
		out[n][0] = audio.SampleToFloat(s.samples[base+s.left])
		out[n][1] = audio.SampleToFloat(s.samples[base+s.right])
		n++
		s.pos++
	}
	return n, true
}

func (s *pairStreamer) Err() error {
	return nil
}
