// ABOUTME: Tests for the speed and pitch transform
// ABOUTME: Duration, layout, error and purity properties for both engines
package voicechanger

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/resample"
)

var engines = []resample.Engine{resample.EngineLagrange, resample.EngineLinear}

// sineBuffer builds a 16-bit style clip (samples left-justified in 24-bit range)
func sineBuffer(rate, channels int, seconds, freq float64) *audio.Buffer {
	frames := int(seconds * float64(rate))
	samples := make([]int32, frames*channels)
	for i := 0; i < frames; i++ {
		v := 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
		s := audio.SampleFromInt16(int16(v * 32767))
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = s
		}
	}
	return &audio.Buffer{
		Samples: samples,
		Format:  audio.Format{Codec: "pcm", SampleRate: rate, Channels: channels, BitDepth: 16},
	}
}

func zeroCrossings(samples []int32, channels int) int {
	count := 0
	for i := channels; i < len(samples); i += channels {
		if (samples[i-channels] < 0) != (samples[i] < 0) {
			count++
		}
	}
	return count
}

func TestTransformIdentity(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine.String(), func(t *testing.T) {
			in := sineBuffer(44100, 2, 1.0, 440)
			out, err := Transform(in, 1.0, 1.0, WithEngine(engine))
			if err != nil {
				t.Fatalf("Transform failed: %v", err)
			}

			if diff := out.Frames() - in.Frames(); diff < -1 || diff > 1 {
				t.Errorf("frames = %d, want %d (±1)", out.Frames(), in.Frames())
			}
			if out.Format.SampleRate != in.Format.SampleRate {
				t.Errorf("sample rate = %d, want %d", out.Format.SampleRate, in.Format.SampleRate)
			}
		})
	}
}

func TestTransformIdentityLinearIsExact(t *testing.T) {
	in := sineBuffer(16000, 1, 0.25, 300)
	out, err := Transform(in, 1.0, 1.0, WithEngine(resample.EngineLinear))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	for i := range in.Samples {
		if out.Samples[i] != in.Samples[i] {
			t.Fatalf("sample %d: got %d, want %d", i, out.Samples[i], in.Samples[i])
		}
	}
}

func TestTransformPreservesLayout(t *testing.T) {
	factors := []Request{
		{0.5, 0.5}, {0.5, 1.5}, {1.0, 1.0}, {1.3, 0.7}, {2.0, 0.5}, {2.0, 1.5},
	}
	layouts := []audio.Format{
		{Codec: "mp3", SampleRate: 44100, Channels: 2, BitDepth: 16},
		{Codec: "flac", SampleRate: 96000, Channels: 1, BitDepth: 24},
		{Codec: "pcm", SampleRate: 8000, Channels: 3, BitDepth: 16},
	}

	for _, engine := range engines {
		for _, format := range layouts {
			for _, req := range factors {
				t.Run(engine.String()+"/"+format.String()+"/"+req.String(), func(t *testing.T) {
					in := sineBuffer(format.SampleRate, format.Channels, 0.1, 220)
					in.Format = format

					out, err := Transform(in, req.Speed, req.Pitch, WithEngine(engine))
					if err != nil {
						t.Fatalf("Transform failed: %v", err)
					}
					if out.Format != in.Format {
						t.Errorf("format = %v, want %v", out.Format, in.Format)
					}
					if out.Format.SampleWidth() != in.Format.SampleWidth() {
						t.Errorf("sample width = %d, want %d", out.Format.SampleWidth(), in.Format.SampleWidth())
					}
					if err := out.Validate(); err != nil {
						t.Errorf("output buffer invalid: %v", err)
					}
				})
			}
		}
	}
}

func TestTransformDoubleSpeed(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine.String(), func(t *testing.T) {
			in := sineBuffer(44100, 1, 10.0, 220)
			out, err := Transform(in, 2.0, 1.0, WithEngine(engine))
			if err != nil {
				t.Fatalf("Transform failed: %v", err)
			}

			if out.Format.SampleRate != 44100 {
				t.Errorf("sample rate = %d, want 44100", out.Format.SampleRate)
			}
			got := out.Duration()
			if got < 4990*time.Millisecond || got > 5010*time.Millisecond {
				t.Errorf("duration = %v, want ~5s", got)
			}
		})
	}
}

// The output keeps the source rate while its length comes from the final
// rate: frames = round(inFrames * sr / rate2) with rate2 = round(round(sr*speed)*pitch).
// Duration therefore scales by 1/(speed*pitch), not 1/speed alone. With
// pitch = 1 it reduces to input / speed.
func TestTransformDurationFollowsCombinedRate(t *testing.T) {
	tests := []struct {
		speed, pitch float64
		wantFrames   int
	}{
		{1.0, 1.5, 29400}, // rate2 = 66150
		{1.0, 0.5, 88200}, // rate2 = 22050
		{0.5, 1.0, 88200}, // rate2 = 22050
		{2.0, 1.5, 14700}, // rate2 = 132300
		{1.2, 0.9, 40833}, // rate1 = 52920, rate2 = 47628
	}

	in := sineBuffer(44100, 1, 1.0, 440)
	for _, tt := range tests {
		t.Run(Request{tt.speed, tt.pitch}.String(), func(t *testing.T) {
			for _, engine := range engines {
				out, err := Transform(in, tt.speed, tt.pitch, WithEngine(engine))
				if err != nil {
					t.Fatalf("%s: Transform failed: %v", engine, err)
				}
				if out.Frames() != tt.wantFrames {
					t.Errorf("%s: frames = %d, want %d", engine, out.Frames(), tt.wantFrames)
				}
			}
		})
	}
}

func TestTransformRaisesPitch(t *testing.T) {
	in := sineBuffer(44100, 1, 1.0, 440)
	out, err := Transform(in, 2.0, 1.0)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	// Half a second of 880 Hz crosses zero ~880 times
	crossings := zeroCrossings(out.Samples, 1)
	if crossings < 870 || crossings > 890 {
		t.Errorf("zero crossings = %d, want ~880", crossings)
	}
}

func TestTransformRoundTripDuration(t *testing.T) {
	tests := []Request{{2.0, 1.0}, {1.5, 1.2}, {0.7, 0.9}, {0.5, 1.5}}

	for _, engine := range engines {
		for _, req := range tests {
			t.Run(engine.String()+"/"+req.String(), func(t *testing.T) {
				in := sineBuffer(44100, 1, 2.0, 330)
				mid, err := Transform(in, req.Speed, req.Pitch, WithEngine(engine))
				if err != nil {
					t.Fatalf("forward transform failed: %v", err)
				}
				back, err := Transform(mid, 1/req.Speed, 1/req.Pitch, WithEngine(engine))
				if err != nil {
					t.Fatalf("inverse transform failed: %v", err)
				}

				ratio := float64(back.Frames()) / float64(in.Frames())
				if math.Abs(ratio-1) > 0.01 {
					t.Errorf("round trip duration ratio = %.4f, want within 1%%", ratio)
				}
			})
		}
	}
}

func TestTransformExtremes(t *testing.T) {
	tests := []Request{{0.5, 0.5}, {2.0, 1.5}}

	for _, engine := range engines {
		for _, req := range tests {
			t.Run(engine.String()+"/"+req.String(), func(t *testing.T) {
				in := sineBuffer(44100, 1, 5.0, 200)
				out, err := Transform(in, req.Speed, req.Pitch, WithEngine(engine))
				if err != nil {
					t.Fatalf("Transform failed: %v", err)
				}
				if out.Frames() == 0 {
					t.Error("expected non-empty output")
				}
			})
		}
	}
}

func TestTransformInvalidParameters(t *testing.T) {
	in := sineBuffer(44100, 1, 0.1, 440)
	tests := []struct {
		name         string
		speed, pitch float64
	}{
		{"zero speed", 0, 1},
		{"negative speed", -1.5, 1},
		{"zero pitch", 1, 0},
		{"negative pitch", 1, -0.2},
		{"NaN speed", math.NaN(), 1},
		{"infinite pitch", 1, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Transform(in, tt.speed, tt.pitch)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
			if out != nil {
				t.Error("expected nil buffer on error")
			}

			var ipe *InvalidParameterError
			if !errors.As(err, &ipe) {
				t.Fatalf("expected *InvalidParameterError, got %T", err)
			}
		})
	}
}

func TestTransformEmptyBuffer(t *testing.T) {
	in := &audio.Buffer{Format: audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 16}}
	out, err := Transform(in, 1.0, 1.0)
	if !errors.Is(err, ErrEmptyBuffer) {
		t.Fatalf("expected ErrEmptyBuffer, got %v", err)
	}
	if out != nil {
		t.Error("expected nil buffer on error")
	}
}

func TestTransformInvalidBuffer(t *testing.T) {
	tests := []struct {
		name string
		buf  *audio.Buffer
	}{
		{"nil", nil},
		{"ragged", &audio.Buffer{Samples: []int32{1, 2, 3}, Format: audio.Format{SampleRate: 44100, Channels: 2}}},
		{"zero rate", &audio.Buffer{Samples: []int32{1, 2}, Format: audio.Format{Channels: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transform(tt.buf, 1.0, 1.0)
			if !errors.Is(err, ErrInvalidBuffer) {
				t.Fatalf("expected ErrInvalidBuffer, got %v", err)
			}
		})
	}
}

func TestTransformClampsOutOfRange(t *testing.T) {
	in := sineBuffer(44100, 1, 0.5, 440)

	clamped, err := Transform(in, 3.0, 0.1)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	edge, err := Transform(in, MaxSpeed, MinPitch)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if clamped.Frames() != edge.Frames() {
		t.Fatalf("clamped frames = %d, want %d", clamped.Frames(), edge.Frames())
	}
	for i := range edge.Samples {
		if clamped.Samples[i] != edge.Samples[i] {
			t.Fatalf("sample %d differs after clamping", i)
		}
	}
}

func TestTransformStrictRange(t *testing.T) {
	in := sineBuffer(44100, 1, 0.1, 440)
	tr := New(WithStrictRange())

	if _, err := tr.Transform(in, 2.5, 1.0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("speed 2.5: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := tr.Transform(in, 1.0, 1.6); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("pitch 1.6: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := tr.Transform(in, 2.0, 1.5); err != nil {
		t.Errorf("in-range factors rejected: %v", err)
	}
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine.String(), func(t *testing.T) {
			in := sineBuffer(22050, 2, 0.2, 500)
			orig := in.Clone()

			if _, err := Transform(in, 1.7, 0.6, WithEngine(engine)); err != nil {
				t.Fatalf("Transform failed: %v", err)
			}

			if in.Format != orig.Format || len(in.Samples) != len(orig.Samples) {
				t.Fatal("input buffer header changed")
			}
			for i := range orig.Samples {
				if in.Samples[i] != orig.Samples[i] {
					t.Fatalf("input sample %d changed", i)
				}
			}
		})
	}
}

func TestTransformIsDeterministic(t *testing.T) {
	in := sineBuffer(48000, 2, 0.3, 123)
	tr := New()

	a, err := tr.TransformRequest(in, Request{Speed: 1.4, Pitch: 1.1})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	b, err := tr.TransformRequest(in, Request{Speed: 1.4, Pitch: 1.1})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if len(a.Samples) != len(b.Samples) {
		t.Fatalf("lengths differ: %d vs %d", len(a.Samples), len(b.Samples))
	}
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatalf("sample %d differs: %d vs %d", i, a.Samples[i], b.Samples[i])
		}
	}
}

func TestTransformConcurrent(t *testing.T) {
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(i int) {
			in := sineBuffer(44100, 1, 0.2, float64(200+i*50))
			_, err := Transform(in, 0.5+float64(i)*0.2, 1.0)
			done <- err
		}(i)
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent Transform failed: %v", err)
		}
	}
}

func TestTransformSingleFrame(t *testing.T) {
	in := &audio.Buffer{Samples: []int32{1000}, Format: audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 16}}
	out, err := Transform(in, 2.0, 1.5)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if out.Frames() != 1 {
		t.Errorf("frames = %d, want 1", out.Frames())
	}
}

func TestOutputFrames(t *testing.T) {
	tests := []struct {
		frames, rate, relabelled, want int
	}{
		{441000, 44100, 88200, 220500},
		{100, 44100, 44100, 100},
		{3, 10, 7, 4},
		{1, 44100, 132300, 1},
	}
	for _, tt := range tests {
		if got := OutputFrames(tt.frames, tt.rate, tt.relabelled); got != tt.want {
			t.Errorf("OutputFrames(%d, %d, %d) = %d, want %d", tt.frames, tt.rate, tt.relabelled, got, tt.want)
		}
	}
}
