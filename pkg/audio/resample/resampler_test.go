// ABOUTME: Tests for the linear interpolation engine
// ABOUTME: Checks source positions, interpolated values and the end-of-clip stop
package resample

import (
	"testing"
)

func TestLinearPosition(t *testing.T) {
	tests := []struct {
		name string
		from int
		to   int
		i    int
		want float64
	}{
		{"identity", 44100, 44100, 7, 7},
		{"half rate", 88200, 44100, 3, 6},
		{"double rate", 22050, 44100, 3, 1.5},
		{"speed 1.2", 52920, 44100, 5, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLinear(tt.from, tt.to, 1)
			if got := l.Position(tt.i); got != tt.want {
				t.Errorf("Position(%d) = %v, want %v", tt.i, got, tt.want)
			}
		})
	}
}

func TestLinearResampleRamp(t *testing.T) {
	// A ramp stays a ramp under linear interpolation
	input := []int32{0, 100, 200, 300, 400}
	out := make([]int32, 9)

	n := NewLinear(1, 2, 1).Resample(input, out)
	if n != 9 {
		t.Fatalf("expected 9 frames, got %d", n)
	}
	for i, v := range out {
		if want := int32(i * 50); v != want {
			t.Errorf("frame %d: expected %d, got %d", i, want, v)
		}
	}
}

func TestLinearResampleStereo(t *testing.T) {
	input := make([]int32, 20)
	for i := 0; i < 10; i++ {
		input[i*2] = 1000
		input[i*2+1] = -1000
	}
	out := make([]int32, 2*12)

	n := NewLinear(10, 12, 2).Resample(input, out)
	if n == 0 {
		t.Fatal("no frames written")
	}
	for i := 0; i < n; i++ {
		if out[i*2] != 1000 || out[i*2+1] != -1000 {
			t.Fatalf("frame %d: channels mixed: %d/%d", i, out[i*2], out[i*2+1])
		}
	}
}

func TestLinearResampleStopsAtLastFrame(t *testing.T) {
	input := []int32{10, 20, 30, 40}
	out := make([]int32, 10)

	// Position 1.5 per frame: 0, 1.5, 3 land inside the clip, 4.5 does not
	n := NewLinear(3, 2, 1).Resample(input, out)
	if n != 3 {
		t.Fatalf("expected 3 frames, got %d", n)
	}
	if out[2] != 40 {
		t.Errorf("expected the final frame to be copied, got %d", out[2])
	}
}

func TestLinearResampleEmpty(t *testing.T) {
	if n := NewLinear(44100, 48000, 2).Resample(nil, make([]int32, 10)); n != 0 {
		t.Errorf("expected 0 frames from empty input, got %d", n)
	}
}

func TestLinearFramesFor(t *testing.T) {
	l := NewLinear(52920, 44100, 1)
	if got := l.FramesFor(44100); got != 36750 {
		t.Errorf("FramesFor(44100) = %d, want 36750", got)
	}
}
