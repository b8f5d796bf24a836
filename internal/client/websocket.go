// ABOUTME: WebSocket client for remote voice changer hosts
// ABOUTME: Sends a clip with its factors and collects the transformed result
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/voicechanger-go/internal/protocol"
)

// Config holds client configuration
type Config struct {
	ServerAddr string        // host:port
	Path       string        // default /ws
	Timeout    time.Duration // per-message read timeout, default 2m
}

// Client is a connection to a voice changer host
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.Mutex
}

// Result is a transformed clip returned by the host
type Result struct {
	Data []byte
	Done protocol.TransformDone
}

// RemoteError is a failure reported by the host
type RemoteError struct {
	protocol.ErrorResponse
}

func (e *RemoteError) Error() string {
	return e.ErrorResponse.Error
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.Path == "" {
		config.Path = "/ws"
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}
	return &Client{config: config}
}

// Connect dials the host
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: c.config.Path}
	logrus.Debugf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Transform runs one request and clip exchange. The connection stays usable
// for further calls unless the host reports an error.
func (c *Client) Transform(ctx context.Context, req protocol.TransformRequest, clip []byte) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("not connected")
	}

	// Unblock pending reads when ctx ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	if err := c.sendJSON(protocol.TypeTransformRequest, req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var status protocol.TransformStatus
	if err := c.expect(ctx, protocol.TypeTransformStatus, &status); err != nil {
		return nil, err
	}

	if err := c.conn.WriteMessage(websocket.BinaryMessage, clip); err != nil {
		return nil, fmt.Errorf("failed to send audio: %w", err)
	}

	if err := c.expect(ctx, protocol.TypeTransformStatus, &status); err != nil {
		return nil, err
	}
	logrus.Debugf("Host status: %s", status.State)

	data, err := c.readBinary(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Data: data}
	if err := c.expect(ctx, protocol.TypeTransformDone, &result.Done); err != nil {
		return nil, err
	}
	return result, nil
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msgType string, payload interface{}) error {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// armRead extends the read deadline for the next message. The ctx check
// comes after the reset so a cancellation that already moved the deadline
// to now is not overwritten.
func (c *Client) armRead(ctx context.Context) error {
	c.conn.SetReadDeadline(time.Now().Add(c.config.Timeout))
	return ctx.Err()
}

func readErr(ctx context.Context, what string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("failed to read %s: %w", what, err)
}

// expect reads one text message, turning transform/error into a RemoteError
func (c *Client) expect(ctx context.Context, msgType string, out interface{}) error {
	if err := c.armRead(ctx); err != nil {
		return err
	}
	kind, data, err := c.conn.ReadMessage()
	if err != nil {
		return readErr(ctx, msgType, err)
	}
	if kind != websocket.TextMessage {
		return fmt.Errorf("expected %s, got a binary message", msgType)
	}

	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if env.Type == protocol.TypeTransformError {
		var remote RemoteError
		if err := protocol.Decode(data, protocol.TypeTransformError, &remote.ErrorResponse); err != nil {
			return err
		}
		return &remote
	}
	return protocol.Decode(data, msgType, out)
}

func (c *Client) readBinary(ctx context.Context) ([]byte, error) {
	if err := c.armRead(ctx); err != nil {
		return nil, err
	}
	kind, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, readErr(ctx, "result", err)
	}
	if kind == websocket.TextMessage {
		var remote RemoteError
		if protocol.Decode(data, protocol.TypeTransformError, &remote.ErrorResponse) == nil {
			return nil, &remote
		}
		return nil, fmt.Errorf("expected audio, got text message")
	}
	return data, nil
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil
	return err
}
