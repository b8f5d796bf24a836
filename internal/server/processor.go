// ABOUTME: Upload staging and the decode, transform, encode pipeline
// ABOUTME: Each upload owns one temp file that is removed on every exit path
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Jeffail/tunny"
	"github.com/dhowden/tag"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/voicechanger-go/internal/metrics"
	"github.com/Resonate-Protocol/voicechanger-go/internal/protocol"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/resample"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/voicechanger"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit
	ErrTooLarge = errors.New("upload too large")
	// ErrBadRequest marks malformed form or websocket input
	ErrBadRequest = errors.New("bad request")
)

// ProcessorConfig configures a Processor
type ProcessorConfig struct {
	TempDir        string
	MaxUploadBytes int64
	Workers        int
	Engine         resample.Engine
	StrictRange    bool
	OutputBitDepth int
	Timeout        time.Duration
	Decode         decode.Options
}

// Processor runs uploads through the voice changer on a bounded worker pool
type Processor struct {
	config      ProcessorConfig
	transformer *voicechanger.Transformer
	pool        *tunny.Pool
	closeOnce   sync.Once
}

// Upload is a staged client file
type Upload struct {
	Path     string
	Filename string
	Size     int64
}

// Close removes the staged file
func (u *Upload) Close() error {
	if u == nil || u.Path == "" {
		return nil
	}
	err := os.Remove(u.Path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Job describes one transform
type Job struct {
	ID      string
	Request voicechanger.Request
	Format  string // wav or pcm
}

// Result is an encoded transform output
type Result struct {
	Data        []byte
	ContentType string
	Filename    string
	Summary     string
	Codec       string
	Input       time.Duration
	Output      time.Duration
}

// NewProcessor creates a processor and its worker pool
func NewProcessor(config ProcessorConfig) *Processor {
	if config.Workers < 1 {
		config.Workers = 1
	}

	opts := []voicechanger.Option{voicechanger.WithEngine(config.Engine)}
	if config.StrictRange {
		opts = append(opts, voicechanger.WithStrictRange())
	}

	return &Processor{
		config:      config,
		transformer: voicechanger.New(opts...),
		pool: tunny.NewFunc(config.Workers, func(payload interface{}) interface{} {
			payload.(func())()
			return nil
		}),
	}
}

// Close stops the worker pool
func (p *Processor) Close() {
	p.closeOnce.Do(p.pool.Close)
}

// QueueLength reports jobs waiting for a worker
func (p *Processor) QueueLength() int64 {
	return p.pool.QueueLength()
}

// Stage copies an upload into a fresh temp file, enforcing the size limit.
// The caller must Close the returned Upload.
func (p *Processor) Stage(ctx context.Context, r io.Reader, filename string) (*Upload, error) {
	name := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(name))

	f, err := os.CreateTemp(p.config.TempDir, "voicechanger-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	upload := &Upload{Path: f.Name(), Filename: name}

	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: io.LimitReader(r, p.config.MaxUploadBytes+1)})
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = upload.Close()
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, fmt.Errorf("%w: limit is %s", ErrTooLarge, humanize.Bytes(uint64(p.config.MaxUploadBytes)))
		}
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	if n > p.config.MaxUploadBytes {
		_ = upload.Close()
		return nil, fmt.Errorf("%w: limit is %s", ErrTooLarge, humanize.Bytes(uint64(p.config.MaxUploadBytes)))
	}

	upload.Size = n
	metrics.UploadBytes.Observe(float64(n))
	return upload, nil
}

// Inspect decodes a staged upload and reports its layout and tags
func (p *Processor) Inspect(ctx context.Context, upload *Upload) (*protocol.AudioInfo, error) {
	var buf *audio.Buffer
	err := p.run(ctx, func() error {
		var err error
		buf, err = decode.File(upload.Path, p.config.Decode)
		return err
	})
	if err != nil {
		return nil, err
	}

	seconds := buf.Duration().Seconds()
	info := &protocol.AudioInfo{
		Filename:   upload.Filename,
		Codec:      buf.Format.Codec,
		Seconds:    seconds,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.Channels,
		BitDepth:   buf.Format.BitDepth,
		Size:       upload.Size,
		HumanSize:  humanize.Bytes(uint64(upload.Size)),
		Message:    fmt.Sprintf("Loaded: %.1f seconds", seconds),
	}
	readTags(upload.Path, info)
	return info, nil
}

// Process decodes, transforms and encodes a staged upload
func (p *Processor) Process(ctx context.Context, upload *Upload, job Job) (*Result, error) {
	log := logrus.WithFields(logrus.Fields{"request_id": job.ID, "file": upload.Filename})

	encoder, err := encode.New(job.Format, p.config.OutputBitDepth)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	var result *Result
	err = p.run(ctx, func() error {
		start := time.Now()

		in, err := decode.File(upload.Path, p.config.Decode)
		if err != nil {
			return err
		}
		log.Debugf("Decoded %s (%s)", in.Format, in.Duration())

		out, err := p.transformer.TransformRequest(in, job.Request)
		if err != nil {
			return err
		}

		data, err := encoder.Encode(out)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}

		engine := p.transformer.Engine().String()
		metrics.TransformDuration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
		metrics.TransformsCompleted.WithLabelValues(in.Format.Codec, engine).Inc()
		metrics.AudioSecondsIn.Add(in.Duration().Seconds())
		metrics.AudioSecondsOut.Add(out.Duration().Seconds())

		result = &Result{
			Data:        data,
			ContentType: encoder.ContentType(),
			Filename:    outputFilename(job),
			Summary:     job.Request.Summary(),
			Codec:       in.Format.Codec,
			Input:       in.Duration(),
			Output:      out.Duration(),
		}
		return nil
	})
	if err != nil {
		metrics.TransformsFailed.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"input":  result.Input,
		"output": result.Output,
		"bytes":  humanize.Bytes(uint64(len(result.Data))),
	}).Infof("Transformed with %s", job.Request)
	return result, nil
}

// run executes fn on the worker pool under the processing timeout.
// Panics inside fn are returned as errors.
func (p *Processor) run(ctx context.Context, fn func() error) error {
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()

	errCh := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("processing panic: %v", r)
			}
		}()
		errCh <- fn()
	}

	if _, err := p.pool.ProcessCtx(ctx, task); err != nil {
		return err
	}
	return <-errCh
}

func outputFilename(job Job) string {
	name := job.Request.Filename()
	if job.Format == encode.FormatPCM {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".pcm"
	}
	return name
}

// readTags fills title, artist and album when the container carries them
func readTags(path string, info *protocol.AudioInfo) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// Most voice memos carry no tags
		return
	}
	info.Title = m.Title()
	info.Artist = m.Artist()
	info.Album = m.Album()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, voicechanger.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, decode.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, decode.ErrDecode), errors.Is(err, voicechanger.ErrEmptyBuffer):
		return "decode"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, tunny.ErrJobTimedOut):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// ctxReader stops copying once the request context is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
