// ABOUTME: Audio resampling package with linear and Lagrange engines
// ABOUTME: Converts interleaved PCM between sample rates
// Package resample provides audio sample rate conversion.
//
// Two engines are available:
//   - EngineLinear: linear interpolation in the int32 domain (Linear)
//   - EngineLagrange: polynomial interpolation delegated to faiface/beep
//
// Convert runs a whole clip through an engine and always returns exactly the
// requested number of frames, padding the tail with the last input frame if
// the engine stops short.
//
// Example:
//
//	out, err := resample.Convert(samples, 2, 88200, 44100, frames, resample.EngineLagrange)
//
//	l := resample.NewLinear(44100, 48000, 2)
//	written := l.Resample(input, make([]int32, l.FramesFor(frames)*2))
package resample
