// ABOUTME: Tests for WebSocket client implementation
// ABOUTME: Runs transforms against an in-process host
package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/voicechanger-go/internal/protocol"
	"github.com/Resonate-Protocol/voicechanger-go/internal/server"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/resample"
)

func startHost(t *testing.T) string {
	t.Helper()
	srv := server.New(server.Config{
		MaxUploadBytes:    1 << 20,
		ProcessingTimeout: 30 * time.Second,
		Engine:            resample.EngineLinear,
		Workers:           1,
		TempDir:           t.TempDir(),
	})
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return strings.TrimPrefix(ts.URL, "http://")
}

func wavClip(t *testing.T) []byte {
	t.Helper()
	buf := &audio.Buffer{
		Samples: make([]int32, 8000),
		Format:  audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 16},
	}
	data, err := encode.NewWAV(16).Encode(buf)
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return data
}

func TestNewClient(t *testing.T) {
	config := Config{
		ServerAddr: "localhost:8501",
	}

	client := NewClient(config)
	if client == nil {
		t.Fatal("expected client to be created")
	}

	if client.config.ServerAddr != "localhost:8501" {
		t.Errorf("expected server addr localhost:8501, got %s", client.config.ServerAddr)
	}
	if client.config.Path != "/ws" {
		t.Errorf("expected default path /ws, got %s", client.config.Path)
	}
}

func TestTransform(t *testing.T) {
	addr := startHost(t)
	c := NewClient(Config{ServerAddr: addr})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer c.Close()

	res, err := c.Transform(context.Background(), protocol.TransformRequest{Speed: 2.0, Pitch: 1.0, Filename: "memo.wav"}, wavClip(t))
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	if res.Done.Filename != "voice_modified_2.0x_1.0p.wav" {
		t.Errorf("unexpected filename %q", res.Done.Filename)
	}

	out, err := decode.Bytes(res.Data, res.Done.Filename, decode.Options{})
	if err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if out.Frames() != 4000 {
		t.Errorf("expected 4000 frames, got %d", out.Frames())
	}
}

func TestTransform_RemoteError(t *testing.T) {
	addr := startHost(t)
	c := NewClient(Config{ServerAddr: addr})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer c.Close()

	_, err := c.Transform(context.Background(), protocol.TransformRequest{Speed: 9, Pitch: 1}, wavClip(t))

	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if !strings.HasPrefix(remote.Error(), "Audio processing error: ") {
		t.Errorf("unexpected error text %q", remote.Error())
	}
}

func TestTransform_NotConnected(t *testing.T) {
	c := NewClient(Config{ServerAddr: "localhost:1"})
	if _, err := c.Transform(context.Background(), protocol.TransformRequest{}, nil); err == nil {
		t.Error("expected error when not connected")
	}
	if err := c.Close(); err != nil {
		t.Errorf("close on unconnected client should be nil, got %v", err)
	}
}

// stallingHost acknowledges the request and the clip, then never answers
func stallingHost(t *testing.T) string {
	t.Helper()
	stop := make(chan struct{})
	upgrader := websocket.Upgrader{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		msg, _ := protocol.Encode(protocol.TypeTransformStatus, protocol.TransformStatus{State: "receiving"})
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
		conn.ReadMessage()
		<-stop
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(stop) })
	return strings.TrimPrefix(ts.URL, "http://")
}

func TestTransform_Cancelled(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration // zero cancels before Transform starts
	}{
		{"before the exchange", 0},
		{"while waiting for the host", 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(Config{ServerAddr: stallingHost(t), Timeout: time.Minute})
			if err := c.Connect(context.Background()); err != nil {
				t.Fatalf("connect failed: %v", err)
			}
			defer c.Close()

			ctx, cancel := context.WithCancel(context.Background())
			if tt.delay == 0 {
				cancel()
			} else {
				time.AfterFunc(tt.delay, cancel)
			}
			defer cancel()

			errc := make(chan error, 1)
			go func() {
				_, err := c.Transform(ctx, protocol.TransformRequest{Speed: 1, Pitch: 1}, []byte("clip"))
				errc <- err
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, context.Canceled) {
					t.Errorf("expected context.Canceled, got %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("Transform did not return after cancellation")
			}
		})
	}
}
