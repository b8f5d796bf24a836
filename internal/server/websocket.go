// ABOUTME: WebSocket transform sessions
// ABOUTME: JSON envelopes for control, one binary message each way for audio
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/voicechanger-go/internal/metrics"
	"github.com/Resonate-Protocol/voicechanger-go/internal/protocol"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/voicechanger"
)

const (
	wsWriteWait = 10 * time.Second
	// wsIdleTimeout bounds the wait for the next request or clip
	wsIdleTimeout = 2 * time.Minute
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	metrics.WebsocketSessions.Inc()
	log.Infof("New WebSocket session from %s", r.RemoteAddr)

	// Leave room past the upload limit so Stage reports ErrTooLarge itself
	conn.SetReadLimit(s.config.MaxUploadBytes + formOverhead)

	sess := &wsSession{server: s, conn: conn, log: log}
	for round := 1; ; round++ {
		if err := sess.round(r, round); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("WebSocket session closed by client")
			} else if !sess.reported {
				log.Warnf("WebSocket session ended: %v", err)
			}
			return
		}
	}
}

type wsSession struct {
	server   *Server
	conn     *websocket.Conn
	log      *logrus.Entry
	reported bool
}

// round runs one request, clip, result exchange
func (ws *wsSession) round(r *http.Request, n int) error {
	ctx := r.Context()

	ws.conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	msgType, data, err := ws.conn.ReadMessage()
	if err != nil {
		return err
	}
	if msgType != websocket.TextMessage {
		return ws.fail(fmt.Errorf("%w: expected %s message", ErrBadRequest, protocol.TypeTransformRequest))
	}

	var tr protocol.TransformRequest
	if err := protocol.Decode(data, protocol.TypeTransformRequest, &tr); err != nil {
		return ws.fail(fmt.Errorf("%w: %v", ErrBadRequest, err))
	}
	req := voicechanger.Request{Speed: tr.Speed, Pitch: tr.Pitch}
	if err := req.Validate(); err != nil {
		return ws.fail(err)
	}
	filename := tr.Filename
	if filename == "" {
		filename = "upload"
	}

	if err := ws.send(protocol.TypeTransformStatus, protocol.TransformStatus{State: protocol.StateReceiving}); err != nil {
		return err
	}

	ws.conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	msgType, reader, err := ws.conn.NextReader()
	if err != nil {
		return err
	}
	if msgType != websocket.BinaryMessage {
		return ws.fail(fmt.Errorf("%w: expected a binary audio message", ErrBadRequest))
	}

	upload, err := ws.server.processor.Stage(ctx, reader, filename)
	if err != nil {
		return ws.fail(err)
	}
	defer upload.Close()

	if err := ws.send(protocol.TypeTransformStatus, protocol.TransformStatus{
		State:   protocol.StateProcessing,
		Message: "Processing audio...",
	}); err != nil {
		return err
	}

	job := Job{ID: fmt.Sprintf("%s-%d", requestID(ctx), n), Request: req, Format: tr.Format}
	start := time.Now()
	res, err := ws.server.processor.Process(ctx, upload, job)
	ws.server.recordJob(upload.Filename, req, time.Since(start), err)
	if err != nil {
		return ws.fail(err)
	}

	ws.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := ws.conn.WriteMessage(websocket.BinaryMessage, res.Data); err != nil {
		return err
	}

	return ws.send(protocol.TypeTransformDone, protocol.TransformDone{
		Filename:      res.Filename,
		ContentType:   res.ContentType,
		Bytes:         len(res.Data),
		InputSeconds:  res.Input.Seconds(),
		OutputSeconds: res.Output.Seconds(),
		Message:       res.Summary,
	})
}

func (ws *wsSession) send(msgType string, payload interface{}) error {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		return err
	}
	ws.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return ws.conn.WriteMessage(websocket.TextMessage, data)
}

// fail reports err to the client and returns it so the session ends
func (ws *wsSession) fail(err error) error {
	ws.reported = true
	if statusFor(err) >= http.StatusInternalServerError {
		ws.log.Errorf("WebSocket transform failed: %v", err)
	} else {
		ws.log.Warnf("WebSocket transform rejected: %v", err)
	}
	if sendErr := ws.send(protocol.TypeTransformError, errorBody(err)); sendErr != nil {
		ws.log.Debugf("Failed to send error: %v", sendErr)
	}
	return err
}
