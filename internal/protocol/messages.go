// ABOUTME: Voice changer websocket and JSON API message definitions
// ABOUTME: Typed envelope plus the payloads exchanged during a transform session
package protocol

import (
	"encoding/json"
	"fmt"
)

// Message types
const (
	TypeTransformRequest = "transform/request"
	TypeTransformStatus  = "transform/status"
	TypeTransformDone    = "transform/done"
	TypeTransformError   = "transform/error"
)

// Session states reported in TransformStatus
const (
	StateReceiving  = "receiving"
	StateProcessing = "processing"
)

// Message is the top-level wrapper for all websocket text messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// TransformRequest opens a websocket session; the audio follows as one binary message
type TransformRequest struct {
	Speed    float64 `json:"speed"`
	Pitch    float64 `json:"pitch"`
	Filename string  `json:"filename"`
	Format   string  `json:"format,omitempty"` // wav (default) or pcm
}

// TransformStatus reports progress
type TransformStatus struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

// TransformDone follows the binary result message
type TransformDone struct {
	Filename      string  `json:"filename"`
	ContentType   string  `json:"content_type"`
	Bytes         int     `json:"bytes"`
	InputSeconds  float64 `json:"input_seconds"`
	OutputSeconds float64 `json:"output_seconds"`
	Message       string  `json:"message"`
}

// ErrorResponse is used both as a websocket payload and an HTTP error body
type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// AudioInfo describes an uploaded clip
type AudioInfo struct {
	Filename   string  `json:"filename"`
	Codec      string  `json:"codec"`
	Seconds    float64 `json:"seconds"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth"`
	Size       int64   `json:"size"`
	HumanSize  string  `json:"human_size"`
	Title      string  `json:"title,omitempty"`
	Artist     string  `json:"artist,omitempty"`
	Album      string  `json:"album,omitempty"`
	Message    string  `json:"message"`
}

// Encode wraps a payload in the typed envelope
func Encode(msgType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: msgType, Payload: payload})
}

// Decode reads the envelope and unmarshals the payload into out when the type matches
func Decode(data []byte, wantType string, out interface{}) error {
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if env.Type != wantType {
		return fmt.Errorf("expected %s, got %q", wantType, env.Type)
	}
	if len(env.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", wantType)
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return fmt.Errorf("invalid %s payload: %w", wantType, err)
	}
	return nil
}
