// ABOUTME: Transform request parameters and their ranges
// ABOUTME: Validation, clamping, slider stepping and output naming
package voicechanger

import (
	"fmt"
	"math"
)

// Slider ranges shared by every host
const (
	MinSpeed     = 0.5
	MaxSpeed     = 2.0
	MinPitch     = 0.5
	MaxPitch     = 1.5
	DefaultSpeed = 1.0
	DefaultPitch = 1.0
	Step         = 0.1
)

// Request holds the two user-supplied factors
type Request struct {
	Speed float64 `json:"speed"`
	Pitch float64 `json:"pitch"`
}

// DefaultRequest returns the neutral request
func DefaultRequest() Request {
	return Request{Speed: DefaultSpeed, Pitch: DefaultPitch}
}

// checkUsable rejects factors no transform can work with
func (r Request) checkUsable() error {
	if err := usable("speed", r.Speed); err != nil {
		return err
	}
	return usable("pitch", r.Pitch)
}

func usable(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidParameterError{Name: name, Value: v, Reason: "not a finite number"}
	}
	if v <= 0 {
		return &InvalidParameterError{Name: name, Value: v, Reason: "must be greater than zero"}
	}
	return nil
}

// Validate rejects unusable factors and factors outside the slider ranges
func (r Request) Validate() error {
	if err := r.checkUsable(); err != nil {
		return err
	}
	if r.Speed < MinSpeed || r.Speed > MaxSpeed {
		return &InvalidParameterError{Name: "speed", Value: r.Speed,
			Reason: fmt.Sprintf("must be between %.1f and %.1f", MinSpeed, MaxSpeed)}
	}
	if r.Pitch < MinPitch || r.Pitch > MaxPitch {
		return &InvalidParameterError{Name: "pitch", Value: r.Pitch,
			Reason: fmt.Sprintf("must be between %.1f and %.1f", MinPitch, MaxPitch)}
	}
	return nil
}

// Clamp returns a copy with both factors forced into the slider ranges
func (r Request) Clamp() Request {
	return Request{
		Speed: clamp(r.Speed, MinSpeed, MaxSpeed),
		Pitch: clamp(r.Pitch, MinPitch, MaxPitch),
	}
}

// Nudge moves the factors by whole slider steps, snapping to one decimal
func (r Request) Nudge(speedSteps, pitchSteps int) Request {
	return Request{
		Speed: clamp(snap(r.Speed+float64(speedSteps)*Step), MinSpeed, MaxSpeed),
		Pitch: clamp(snap(r.Pitch+float64(pitchSteps)*Step), MinPitch, MaxPitch),
	}
}

// Filename is the download name for a clip produced with these factors
func (r Request) Filename() string {
	return OutputFilename(r.Speed, r.Pitch)
}

// Summary is the completion message shown to users
func (r Request) Summary() string {
	return fmt.Sprintf("Complete! Speed: %.1fx | Pitch: %.1fx", r.Speed, r.Pitch)
}

func (r Request) String() string {
	return fmt.Sprintf("speed=%.2f pitch=%.2f", r.Speed, r.Pitch)
}

// OutputFilename encodes the applied factors in a WAV file name
func OutputFilename(speed, pitch float64) string {
	return fmt.Sprintf("voice_modified_%.1fx_%.1fp.wav", speed, pitch)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func snap(v float64) float64 {
	return math.Round(v*10) / 10
}
