// ABOUTME: ffmpeg-backed decoder for containers without a native Go decoder
// ABOUTME: Runs ffmpeg as a subprocess and reads raw PCM from its stdout
package decode

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

const (
	// DefaultFFmpegTimeout bounds a single ffmpeg decode
	DefaultFFmpegTimeout = 2 * time.Minute

	// Fixed output format for consistency
	ffmpegSampleRate = 44100
	ffmpegChannels   = 2
)

// FFmpegDecoder decodes any container ffmpeg understands (M4A, AAC, MP4 audio)
type FFmpegDecoder struct {
	timeout time.Duration
}

// NewFFmpeg creates a new ffmpeg decoder
func NewFFmpeg(timeout time.Duration) Decoder {
	if timeout <= 0 {
		timeout = DefaultFFmpegTimeout
	}
	return &FFmpegDecoder{timeout: timeout}
}

// Decode runs ffmpeg over the clip and collects its PCM output
func (d *FFmpegDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	// Check if ffmpeg is available
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, decodeErr(CodecM4A, fmt.Errorf("ffmpeg not found in PATH: %w (install with: brew install ffmpeg)", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	// Seekable files are handed over by path so ffmpeg can find the moov atom
	input := "pipe:0"
	if f, ok := r.(*os.File); ok {
		input = f.Name()
	}

	// -f s16le: output format (signed 16-bit little-endian PCM)
	// -ar/-ac: fixed output rate and channel count
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-loglevel", "error",
		"-i", input,
		"-f", "s16le",
		"-ar", strconv.Itoa(ffmpegSampleRate),
		"-ac", strconv.Itoa(ffmpegChannels),
		"pipe:1",
	)
	if input == "pipe:0" {
		cmd.Stdin = r
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if ctx.Err() != nil {
			return nil, decodeErr(CodecM4A, fmt.Errorf("ffmpeg timed out after %s", d.timeout))
		}
		return nil, decodeErr(CodecM4A, fmt.Errorf("ffmpeg failed: %w: %s", err, msg))
	}

	pcm := stdout.Bytes()
	pcm = pcm[:len(pcm)-len(pcm)%(ffmpegChannels*2)]

	numSamples := len(pcm) / 2
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	return finish(&audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      CodecM4A,
			SampleRate: ffmpegSampleRate,
			Channels:   ffmpegChannels,
			BitDepth:   16,
		},
	})
}
