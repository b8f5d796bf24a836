// ABOUTME: In-memory plumbing for beep's streaming encoder
// ABOUTME: Adapts audio.Buffer to beep.Streamer and provides a growable io.WriteSeeker
package encode

import (
	"errors"
	"io"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

// bufferStreamer plays a mono or stereo buffer as beep frames
type bufferStreamer struct {
	buf *audio.Buffer
	pos int // frame index
}

func newBufferStreamer(buf *audio.Buffer) *bufferStreamer {
	return &bufferStreamer{buf: buf}
}

func (s *bufferStreamer) Stream(samples [][2]float64) (int, bool) {
	frames := s.buf.Frames()
	if s.pos >= frames {
		return 0, false
	}

	channels := s.buf.Format.Channels
	n := 0
	for n < len(samples) && s.pos < frames {
		l := audio.SampleToFloat(s.buf.Samples[s.pos*channels])
		r := l
		if channels == 2 {
			r = audio.SampleToFloat(s.buf.Samples[s.pos*channels+1])
		}
		samples[n] = [2]float64{l, r}
		n++
		s.pos++
	}
	return n, true
}

func (s *bufferStreamer) Err() error {
	return nil
}

// writeSeeker is an in-memory io.WriteSeeker
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	end := w.pos + len(p)
	if end > len(w.buf) {
		if end > cap(w.buf) {
			grown := make([]byte, end, 2*end)
			copy(grown, w.buf)
			w.buf = grown
		} else {
			w.buf = w.buf[:end]
		}
	}
	copy(w.buf[w.pos:], p)
	w.pos = end
	return len(p), nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(w.pos) + offset
	case io.SeekEnd:
		abs = int64(len(w.buf)) + offset
	default:
		return 0, errors.New("writeSeeker: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("writeSeeker: negative position")
	}
	w.pos = int(abs)
	return abs, nil
}

// Bytes returns everything written so far
func (w *writeSeeker) Bytes() []byte {
	return w.buf
}
