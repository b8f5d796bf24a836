// ABOUTME: Voice changer core package
// ABOUTME: Speed and pitch transformation of decoded audio by resampling
// Package voicechanger changes the perceived speed and pitch of a decoded clip.
//
// Transform relabels the clip at sampleRate*speed, relabels again at that rate
// times pitch, then resamples back to the original rate. The two controls
// compound: both shorten or lengthen the clip and both shift its pitch.
//
// Transform is pure. It never mutates its input and keeps no state, so calls
// may run in parallel on separate buffers.
//
// Example:
//
//	out, err := voicechanger.Transform(buf, 1.2, 0.9)
//	if errors.Is(err, voicechanger.ErrInvalidParameter) {
//		// reject the request
//	}
package voicechanger
