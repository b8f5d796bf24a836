// ABOUTME: Speed and pitch transform
// ABOUTME: Two compounding rate relabels followed by a resample back to the source rate
package voicechanger

import (
	"errors"
	"math"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/resample"
)

// Transformer applies speed and pitch changes with a fixed configuration
type Transformer struct {
	engine resample.Engine
	strict bool
}

// Option configures a Transformer
type Option func(*Transformer)

// WithEngine selects the resampling engine
func WithEngine(engine resample.Engine) Option {
	return func(t *Transformer) {
		t.engine = engine
	}
}

// WithStrictRange rejects factors outside the slider ranges instead of clamping them
func WithStrictRange() Option {
	return func(t *Transformer) {
		t.strict = true
	}
}

// New creates a Transformer. The default engine is resample.EngineLagrange.
func New(opts ...Option) *Transformer {
	t := &Transformer{engine: resample.EngineLagrange}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Engine reports the configured resampling engine
func (t *Transformer) Engine() resample.Engine {
	return t.engine
}

// Transform applies speed and pitch with a default Transformer
func Transform(in *audio.Buffer, speed, pitch float64, opts ...Option) (*audio.Buffer, error) {
	return New(opts...).Transform(in, speed, pitch)
}

// TransformRequest applies a Request
func (t *Transformer) TransformRequest(in *audio.Buffer, req Request) (*audio.Buffer, error) {
	return t.Transform(in, req.Speed, req.Pitch)
}

// Transform returns a new buffer at the input's sample rate whose content was
// relabelled to round(rate*speed), then round(that*pitch), and resampled back.
// The input is left untouched.
func (t *Transformer) Transform(in *audio.Buffer, speed, pitch float64) (*audio.Buffer, error) {
	req := Request{Speed: speed, Pitch: pitch}
	if err := req.checkUsable(); err != nil {
		return nil, err
	}
	if t.strict {
		if err := req.Validate(); err != nil {
			return nil, err
		}
	} else {
		req = req.Clamp()
	}

	if in == nil {
		return nil, &InvalidBufferError{Err: errors.New("nil buffer")}
	}
	if len(in.Samples) == 0 {
		return nil, &EmptyBufferError{}
	}
	if err := in.Validate(); err != nil {
		return nil, &InvalidBufferError{Err: err}
	}

	rate := in.Format.SampleRate
	rate1 := math.Round(float64(rate) * req.Speed)
	if rate1 <= 0 {
		return nil, &InvalidParameterError{Name: "speed", Value: speed, Reason: "sample rate rounds to zero"}
	}
	rate2 := math.Round(rate1 * req.Pitch)
	if rate2 <= 0 {
		return nil, &InvalidParameterError{Name: "pitch", Value: pitch, Reason: "sample rate rounds to zero"}
	}

	frames := OutputFrames(in.Frames(), rate, int(rate2))
	samples, err := resample.Convert(in.Samples, in.Format.Channels, int(rate2), rate, frames, t.engine)
	if err != nil {
		return nil, &InvalidBufferError{Err: err}
	}

	return &audio.Buffer{
		Samples: samples,
		Format:  in.Format,
	}, nil
}

// OutputFrames is round(frames*rate/relabelled), never less than one frame
func OutputFrames(frames, rate, relabelled int) int {
	n := int(math.Round(float64(frames) * float64(rate) / float64(relabelled)))
	if n < 1 {
		return 1
	}
	return n
}
