// ABOUTME: Decoder interface definition and codec dispatch
// ABOUTME: Common interface for all audio decoders plus file helpers
package decode

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

// Decoder decodes a complete encoded clip to PCM
type Decoder interface {
	// Decode reads the whole clip from r
	Decode(r io.Reader) (*audio.Buffer, error)
}

// Options carries settings that cannot be recovered from the bytes
type Options struct {
	// Raw PCM layout; zero values default to 44100 Hz mono 16-bit
	SampleRate int
	Channels   int
	BitDepth   int

	// FFmpegTimeout bounds the ffmpeg subprocess; zero means DefaultFFmpegTimeout
	FFmpegTimeout time.Duration
}

func (o Options) pcmFormat() audio.Format {
	f := audio.Format{Codec: CodecPCM, SampleRate: o.SampleRate, Channels: o.Channels, BitDepth: o.BitDepth}
	if f.SampleRate == 0 {
		f.SampleRate = 44100
	}
	if f.Channels == 0 {
		f.Channels = 1
	}
	if f.BitDepth == 0 {
		f.BitDepth = 16
	}
	return f
}

// New creates the decoder for a codec name returned by Sniff
func New(codec string, opts Options) (Decoder, error) {
	switch codec {
	case CodecWAV:
		return NewWAV(), nil
	case CodecMP3:
		return NewMP3(), nil
	case CodecFLAC:
		return NewFLAC(), nil
	case CodecVorbis:
		return NewVorbis(), nil
	case CodecOpus:
		return NewOpus(), nil
	case CodecM4A:
		return NewFFmpeg(opts.FFmpegTimeout), nil
	case CodecPCM:
		d, err := NewPCM(opts.pcmFormat())
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, &UnsupportedFormatError{MIME: codec}
	}
}

// File sniffs and decodes the clip stored at path
func File(path string, opts Options) (*audio.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	head := make([]byte, SniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	codec, err := Sniff(head[:n], path)
	if err != nil {
		return nil, err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind audio file: %w", err)
	}

	decoder, err := New(codec, opts)
	if err != nil {
		return nil, err
	}
	return decoder.Decode(f)
}

// Bytes sniffs and decodes an in-memory clip
func Bytes(data []byte, filename string, opts Options) (*audio.Buffer, error) {
	codec, err := Sniff(data, filename)
	if err != nil {
		return nil, err
	}

	decoder, err := New(codec, opts)
	if err != nil {
		return nil, err
	}
	return decoder.Decode(bytes.NewReader(data))
}

// finish validates a decoded buffer before handing it to callers
func finish(buf *audio.Buffer) (*audio.Buffer, error) {
	if len(buf.Samples) == 0 {
		return nil, decodeErr(buf.Format.Codec, fmt.Errorf("no audio samples in stream"))
	}
	if err := buf.Validate(); err != nil {
		return nil, decodeErr(buf.Format.Codec, err)
	}
	return buf, nil
}
