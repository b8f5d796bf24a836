// ABOUTME: Tests for the terminal voice changer helpers
// ABOUTME: Covers output naming, clip writing and TUI action handling
package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/voicechanger-go/internal/player"
	"github.com/Resonate-Protocol/voicechanger-go/internal/ui"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/resample"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/voicechanger"
)

func testClip(rate, frames int) *audio.Buffer {
	samples := make([]int32, frames)
	for i := range samples {
		samples[i] = int32((i%100)-50) << 12
	}
	return &audio.Buffer{
		Samples: samples,
		Format:  audio.Format{Codec: "wav", SampleRate: rate, Channels: 1, BitDepth: 16},
	}
}

func TestOutputPath(t *testing.T) {
	req := voicechanger.Request{Speed: 1.2, Pitch: 0.8}

	tests := []struct {
		name   string
		format string
		out    string
		want   string
	}{
		{"default wav", encode.FormatWAV, "", "voice_modified_1.2x_0.8p.wav"},
		{"default pcm", encode.FormatPCM, "", "voice_modified_1.2x_0.8p.pcm"},
		{"explicit", encode.FormatWAV, "custom.wav", "custom.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(req, tt.format, tt.out); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestWriteClip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	in := testClip(8000, 800)

	n, err := writeClip(in, encode.FormatWAV, 0, path)
	if err != nil {
		t.Fatalf("writeClip failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected file: %v", err)
	}
	if int(info.Size()) != n {
		t.Errorf("reported %d bytes, wrote %d", n, info.Size())
	}

	out, err := decode.File(path, decode.Options{})
	if err != nil {
		t.Fatalf("failed to decode written clip: %v", err)
	}
	if out.Frames() != 800 {
		t.Errorf("expected 800 frames, got %d", out.Frames())
	}
}

func TestWriteClip_BadFormat(t *testing.T) {
	if _, err := writeClip(testClip(8000, 10), "mp3", 0, filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("expected error for unsupported output format")
	}
}

func newTestSession(t *testing.T) (*session, *[]ui.StatusMsg) {
	t.Helper()
	var sent []ui.StatusMsg
	s := &session{
		original:    testClip(8000, 8000),
		transformer: voicechanger.New(voicechanger.WithEngine(resample.EngineLinear)),
		send:        func(msg ui.StatusMsg) { sent = append(sent, msg) },
	}
	return s, &sent
}

func TestSession_Process(t *testing.T) {
	s, sent := newTestSession(t)

	s.handle(ui.Action{Kind: ui.ActionProcess, Request: voicechanger.Request{Speed: 2.0, Pitch: 1.0}})

	if len(*sent) != 1 {
		t.Fatalf("expected one status, got %d", len(*sent))
	}
	msg := (*sent)[0]
	if !msg.Done {
		t.Error("expected Done")
	}
	if msg.OutputSeconds != 0.5 {
		t.Errorf("expected 0.5s, got %f", msg.OutputSeconds)
	}
	if msg.Message != "Complete! Speed: 2.0x | Pitch: 1.0x" {
		t.Errorf("unexpected message %q", msg.Message)
	}
	if msg.Playing == nil || *msg.Playing != "" {
		t.Error("expected no playback without an output device")
	}
}

func TestSession_ReusesResult(t *testing.T) {
	s, _ := newTestSession(t)
	req := voicechanger.Request{Speed: 1.5, Pitch: 0.5}

	first, err := s.transform(req)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	second, err := s.transform(req)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if first != second {
		t.Error("expected cached result for identical factors")
	}

	third, err := s.transform(voicechanger.Request{Speed: 1.0, Pitch: 1.0})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if third == first {
		t.Error("expected a new result for different factors")
	}
}

func TestSession_ReportsErrors(t *testing.T) {
	s, sent := newTestSession(t)
	s.original = &audio.Buffer{Format: audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 16}}

	s.handle(ui.Action{Kind: ui.ActionProcess, Request: voicechanger.DefaultRequest()})

	if len(*sent) != 1 || (*sent)[0].Err == "" {
		t.Fatalf("expected an error status, got %+v", *sent)
	}
	if (*sent)[0].Hint != processingHint {
		t.Errorf("unexpected hint %q", (*sent)[0].Hint)
	}
}

func TestSession_VolumeEchoesDevice(t *testing.T) {
	s, sent := newTestSession(t)
	s.output = player.NewOutput()

	s.handle(ui.Action{Kind: ui.ActionVolume, Volume: 140, Muted: true})

	if len(*sent) != 1 {
		t.Fatalf("expected one status, got %d", len(*sent))
	}
	msg := (*sent)[0]
	if msg.Volume == nil || *msg.Volume != 100 {
		t.Errorf("expected clamped volume 100, got %v", msg.Volume)
	}
	if msg.Muted == nil || !*msg.Muted {
		t.Errorf("expected muted, got %v", msg.Muted)
	}
}

func TestSession_PlaybackFinished(t *testing.T) {
	s, sent := newTestSession(t)
	s.output = player.NewOutput()
	s.playing = "modified"

	s.checkPlayback()

	if len(*sent) != 1 || (*sent)[0].Playing == nil || *(*sent)[0].Playing != "" {
		t.Fatalf("expected the playing label to clear, got %+v", *sent)
	}
	if s.playing != "" {
		t.Errorf("expected session to forget %q", s.playing)
	}

	s.checkPlayback()
	if len(*sent) != 1 {
		t.Errorf("expected no further status once idle, got %d", len(*sent))
	}
}
