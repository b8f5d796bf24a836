// ABOUTME: Entry point for the terminal voice changer
// ABOUTME: One-shot file conversion or an interactive TUI with playback
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/voicechanger-go/internal/client"
	"github.com/Resonate-Protocol/voicechanger-go/internal/discovery"
	"github.com/Resonate-Protocol/voicechanger-go/internal/logging"
	"github.com/Resonate-Protocol/voicechanger-go/internal/player"
	"github.com/Resonate-Protocol/voicechanger-go/internal/protocol"
	"github.com/Resonate-Protocol/voicechanger-go/internal/ui"
	"github.com/Resonate-Protocol/voicechanger-go/internal/version"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/resample"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/voicechanger"
)

const processingHint = "Try a different audio file (MP3/WAV recommended)"

var (
	inFile   = flag.String("in", "", "Input audio file (MP3, WAV, M4A, FLAC, OGG, Opus)")
	outFile  = flag.String("out", "", "Output file (default: voice_modified_<speed>x_<pitch>p.wav)")
	speed    = flag.Float64("speed", voicechanger.DefaultSpeed, "Speed factor, 0.5 = 50% slower, 2.0 = 2x faster")
	pitch    = flag.Float64("pitch", voicechanger.DefaultPitch, "Pitch factor, 0.5 = deeper voice, 1.5 = higher voice")
	engine   = flag.String("engine", "lagrange", "Resampling engine: lagrange or linear")
	format   = flag.String("format", encode.FormatWAV, "Output format: wav or pcm")
	bitDepth = flag.Int("bit-depth", 0, "Output bit depth (default: same as input)")
	useTUI   = flag.Bool("tui", false, "Interactive mode with sliders and playback")
	logDir   = flag.String("log-dir", "", "Directory for rotating log files (TUI mode logs only there)")
	debug    = flag.Bool("debug", false, "Enable debug logging")
	remote   = flag.String("remote", "", "Send the clip to a voice changer host (host:port, or auto to find one via mDNS) instead of converting locally")
)

func main() {
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	if err := logging.Setup(logging.Options{Dir: *logDir, Level: level, Quiet: *useTUI}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "Upload an audio file (MP3, WAV, M4A) to start modifying!")
		flag.Usage()
		os.Exit(2)
	}

	if *remote != "" && !*useTUI {
		if err := runRemote(); err != nil {
			fail(err)
		}
		return
	}

	eng, err := resample.ParseEngine(*engine)
	if err != nil {
		logrus.Fatal(err)
	}
	transformer := voicechanger.New(voicechanger.WithEngine(eng))

	original, err := decode.File(*inFile, decode.Options{})
	if err != nil {
		fail(err)
	}
	logrus.Infof("Loaded: %.1f seconds (%s)", original.Duration().Seconds(), original.Format)

	if *useTUI {
		runTUI(original, transformer)
		return
	}

	req := voicechanger.Request{Speed: *speed, Pitch: *pitch}
	if err := req.Validate(); err != nil {
		fail(err)
	}

	out, err := transformer.TransformRequest(original, req)
	if err != nil {
		fail(err)
	}

	path := outputPath(req, *format, *outFile)
	n, err := writeClip(out, *format, *bitDepth, path)
	if err != nil {
		fail(err)
	}

	logrus.Info(req.Summary())
	logrus.Infof("Saved %s (%s, %.1f seconds)", path, humanize.Bytes(uint64(n)), out.Duration().Seconds())
}

// runRemote converts the input on a remote host over its WebSocket API
func runRemote() error {
	data, err := os.ReadFile(*inFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	addr := *remote
	if addr == "auto" {
		host, err := discovery.Find(ctx, 3*time.Second)
		if err != nil {
			return err
		}
		logrus.Infof("Found %s at %s", host.Name, host.Addr)
		addr = host.Addr
	}

	c := client.NewClient(client.Config{ServerAddr: addr})
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()

	req := voicechanger.Request{Speed: *speed, Pitch: *pitch}
	res, err := c.Transform(ctx, protocol.TransformRequest{
		Speed:    req.Speed,
		Pitch:    req.Pitch,
		Filename: filepath.Base(*inFile),
		Format:   *format,
	}, data)
	if err != nil {
		var re *client.RemoteError
		if errors.As(err, &re) && re.Hint != "" {
			logrus.Info(re.Hint)
		}
		return err
	}

	path := *outFile
	if path == "" {
		path = res.Done.Filename
	}
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	logrus.Info(res.Done.Message)
	logrus.Infof("Saved %s (%s, %.1f seconds) from %s", path, humanize.Bytes(uint64(len(res.Data))), res.Done.OutputSeconds, addr)
	return nil
}

func fail(err error) {
	logrus.Errorf("Audio processing error: %v", err)
	var ipe *voicechanger.InvalidParameterError
	if !errors.As(err, &ipe) {
		logrus.Info(processingHint)
	}
	os.Exit(1)
}

// outputPath picks the destination for a clip
func outputPath(req voicechanger.Request, format, out string) string {
	if out != "" {
		return out
	}
	name := req.Filename()
	if format == encode.FormatPCM {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".pcm"
	}
	return name
}

// writeClip encodes buf and writes it to path, returning the byte count
func writeClip(buf *audio.Buffer, format string, bitDepth int, path string) (int, error) {
	encoder, err := encode.New(format, bitDepth)
	if err != nil {
		return 0, err
	}
	data, err := encoder.Encode(buf)
	if err != nil {
		return 0, fmt.Errorf("failed to encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return len(data), nil
}

func runTUI(original *audio.Buffer, transformer *voicechanger.Transformer) {
	output := player.NewOutput()
	if err := output.Initialize(); err != nil {
		logrus.Warnf("Playback disabled: %v", err)
		output = nil
	}

	control := ui.NewControl()
	tuiProg, err := ui.Run(control, ui.StatusMsg{
		Filename:   filepath.Base(*inFile),
		Codec:      original.Format.Codec,
		SampleRate: original.Format.SampleRate,
		Channels:   original.Format.Channels,
		BitDepth:   original.Format.BitDepth,
		Seconds:    original.Duration().Seconds(),
		Message:    fmt.Sprintf("Loaded: %.1f seconds", original.Duration().Seconds()),
	})
	if err != nil {
		logrus.Fatalf("Failed to start TUI: %v", err)
	}

	go func() {
		if _, err := tuiProg.Run(); err != nil {
			logrus.Errorf("TUI error: %v", err)
		}
	}()

	sess := &session{
		original:    original,
		transformer: transformer,
		output:      output,
		send:        func(msg ui.StatusMsg) { tuiProg.Send(msg) },
	}
	stop := make(chan struct{})
	go sess.handleActions(control, stop)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-control.Quit:
		logrus.Info("Received quit signal from TUI")
	case <-sigChan:
		logrus.Info("Shutdown signal received")
		tuiProg.Quit()
	}

	close(stop)
	if output != nil {
		output.Close()
	}
	logrus.Infof("%s stopped", version.Product)
}

// session carries out TUI actions against one loaded clip
type session struct {
	original    *audio.Buffer
	transformer *voicechanger.Transformer
	output      *player.Output
	send        func(ui.StatusMsg)

	lastReq voicechanger.Request
	last    *audio.Buffer
	playing string
}

func (s *session) handleActions(control *ui.Control, stop <-chan struct{}) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case action := <-control.Actions:
			s.handle(action)
		case <-ticker.C:
			s.checkPlayback()
		case <-stop:
			return
		}
	}
}

// checkPlayback clears the playing label once the device drains the clip
func (s *session) checkPlayback() {
	if s.playing == "" || (s.output != nil && s.output.IsPlaying()) {
		return
	}
	s.playing = ""
	none := ""
	s.send(ui.StatusMsg{Playing: &none})
}

func (s *session) handle(action ui.Action) {
	switch action.Kind {
	case ui.ActionProcess:
		out, err := s.transform(action.Request)
		if err != nil {
			s.reportError(err)
			return
		}
		logrus.Info(action.Request.Summary())
		s.send(ui.StatusMsg{
			Done:          true,
			OutputSeconds: out.Duration().Seconds(),
			Message:       action.Request.Summary(),
			Playing:       s.play(out, "modified"),
		})

	case ui.ActionPlayOriginal:
		s.send(ui.StatusMsg{Playing: s.play(s.original, "original")})

	case ui.ActionSave:
		out, err := s.transform(action.Request)
		if err != nil {
			s.reportError(err)
			return
		}
		path := outputPath(action.Request, *format, *outFile)
		n, err := writeClip(out, *format, *bitDepth, path)
		if err != nil {
			s.reportError(err)
			return
		}
		logrus.Infof("Saved %s (%s)", path, humanize.Bytes(uint64(n)))
		s.send(ui.StatusMsg{Saved: fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(n)))})

	case ui.ActionStop:
		if s.output != nil {
			s.output.Stop()
		}
		s.checkPlayback()

	case ui.ActionVolume:
		if s.output == nil {
			return
		}
		s.output.SetVolume(action.Volume)
		s.output.SetMuted(action.Muted)
		volume, muted := s.output.GetVolume(), s.output.IsMuted()
		s.send(ui.StatusMsg{Volume: &volume, Muted: &muted})
	}
}

// transform reuses the previous result when the factors are unchanged
func (s *session) transform(req voicechanger.Request) (*audio.Buffer, error) {
	if s.last != nil && req == s.lastReq {
		return s.last, nil
	}
	out, err := s.transformer.TransformRequest(s.original, req)
	if err != nil {
		return nil, err
	}
	s.last, s.lastReq = out, req
	return out, nil
}

func (s *session) play(buf *audio.Buffer, label string) *string {
	none := ""
	s.playing = ""
	if s.output == nil {
		return &none
	}
	if err := s.output.Play(buf); err != nil {
		logrus.Warnf("Playback failed: %v", err)
		return &none
	}
	s.playing = label
	return &label
}

func (s *session) reportError(err error) {
	logrus.Errorf("Audio processing error: %v", err)
	s.send(ui.StatusMsg{
		Err:  "Audio processing error: " + err.Error(),
		Hint: processingHint,
	})
}
