// ABOUTME: Linear interpolation engine for whole clips
// ABOUTME: Maps every output frame to an exact source position and blends its neighbours
package resample

import "math"

// Linear resamples interleaved clips by straight-line interpolation between
// the two source frames around each output position.
type Linear struct {
	fromRate int
	toRate   int
	channels int
}

// NewLinear creates a linear engine for one rate pair
func NewLinear(fromRate, toRate, channels int) *Linear {
	return &Linear{
		fromRate: fromRate,
		toRate:   toRate,
		channels: channels,
	}
}

// Position returns the fractional source frame that output frame i samples
func (l *Linear) Position(i int) float64 {
	return float64(i) * float64(l.fromRate) / float64(l.toRate)
}

// Resample fills out from input and returns the number of frames written.
// Writing stops at the last source frame; callers pad any remainder.
func (l *Linear) Resample(input, out []int32) int {
	ch := l.channels
	inFrames := len(input) / ch
	outFrames := len(out) / ch
	if inFrames == 0 {
		return 0
	}

	for i := 0; i < outFrames; i++ {
		pos := l.Position(i)
		idx := int(pos)
		if idx >= inFrames-1 {
			if idx == inFrames-1 && pos == float64(idx) {
				copy(out[i*ch:(i+1)*ch], input[idx*ch:(idx+1)*ch])
				return i + 1
			}
			return i
		}

		frac := pos - float64(idx)
		a := input[idx*ch : (idx+1)*ch]
		b := input[(idx+1)*ch : (idx+2)*ch]
		for c := 0; c < ch; c++ {
			out[i*ch+c] = int32(math.Round(float64(a[c])*(1-frac) + float64(b[c])*frac))
		}
	}
	return outFrames
}

// FramesFor reports how many output frames cover inFrames source frames
func (l *Linear) FramesFor(inFrames int) int {
	return int(math.Round(float64(inFrames) * float64(l.toRate) / float64(l.fromRate)))
}
