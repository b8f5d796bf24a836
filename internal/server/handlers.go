// ABOUTME: HTTP handlers for inspecting and transforming uploads
// ABOUTME: Maps processing failures to status codes with a user-facing hint
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Jeffail/tunny"
	"github.com/getsentry/sentry-go"

	"github.com/Resonate-Protocol/voicechanger-go/internal/protocol"
	"github.com/Resonate-Protocol/voicechanger-go/internal/version"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/voicechanger"
)

// SummaryHeader carries the completion message of a transform
const SummaryHeader = "X-Voicechanger-Summary"

const (
	processingHint = "Try a different audio file (MP3/WAV recommended)"
	rangeHint      = "Speed must be between 0.5 and 2.0, pitch between 0.5 and 1.5"
	sizeHint       = "Trim the recording; 5-30 second clips are recommended"
)

// multipart framing allowance on top of the file limit
const formOverhead = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.Version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
		"queued":  s.processor.QueueLength(),
	})
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	_, upload, err := s.readUpload(w, r)
	defer upload.Close()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	info, err := s.processor.Inspect(r.Context(), upload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	requestLogger(r.Context()).Infof("%s: %s", upload.Filename, info.Message)
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r.Context())

	form, upload, err := s.readUpload(w, r)
	defer upload.Close()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	req, err := parseRequest(form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	job := Job{ID: requestID(r.Context()), Request: req, Format: form["format"]}
	start := time.Now()
	res, err := s.processor.Process(r.Context(), upload, job)
	s.recordJob(upload.Filename, req, time.Since(start), err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	log.Info(res.Summary)

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set(SummaryHeader, res.Summary)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		log.Warnf("Failed to write response: %v", err)
	}
}

// readUpload streams a multipart form, staging the "file" part to disk and
// collecting the remaining fields. The returned Upload is never nil.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (map[string]string, *Upload, error) {
	form := make(map[string]string)
	upload := &Upload{}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+formOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		return form, upload, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return form, upload, tooLarge(err)
		}

		name := part.FormName()
		if name == "file" && part.FileName() != "" {
			if upload.Path != "" {
				part.Close()
				return form, upload, fmt.Errorf("%w: only one file may be uploaded", ErrBadRequest)
			}
			staged, err := s.processor.Stage(r.Context(), part, part.FileName())
			part.Close()
			if err != nil {
				return form, upload, err
			}
			upload = staged
			continue
		}

		value, err := io.ReadAll(io.LimitReader(part, 1024))
		part.Close()
		if err != nil {
			return form, upload, tooLarge(err)
		}
		form[name] = strings.TrimSpace(string(value))
	}

	if upload.Path == "" {
		return form, upload, fmt.Errorf("%w: missing file", ErrBadRequest)
	}
	return form, upload, nil
}

// parseRequest reads speed and pitch, defaulting each to 1.0 when absent
func parseRequest(form map[string]string) (voicechanger.Request, error) {
	req := voicechanger.DefaultRequest()
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"speed", &req.Speed},
		{"pitch", &req.Pitch},
	} {
		raw, ok := form[f.name]
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, &voicechanger.InvalidParameterError{Name: f.name, Value: 0, Reason: fmt.Sprintf("%q is not a number", raw)}
		}
		*f.dst = v
	}
	return req, nil
}

func tooLarge(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("%w: %v", ErrTooLarge, err)
	}
	return fmt.Errorf("%w: %v", ErrBadRequest, err)
}

// statusFor maps a processing error to an HTTP status
func statusFor(err error) int {
	var tooMany *http.MaxBytesError
	switch {
	case errors.Is(err, ErrTooLarge), errors.As(err, &tooMany):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBadRequest), errors.Is(err, voicechanger.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, decode.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, decode.ErrDecode), errors.Is(err, voicechanger.ErrEmptyBuffer), errors.Is(err, voicechanger.ErrInvalidBuffer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, tunny.ErrJobTimedOut):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) protocol.ErrorResponse {
	resp := protocol.ErrorResponse{Error: "Audio processing error: " + err.Error(), Hint: processingHint}
	switch statusFor(err) {
	case http.StatusBadRequest:
		resp.Hint = rangeHint
	case http.StatusRequestEntityTooLarge:
		resp.Hint = sizeHint
	}
	return resp
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := requestLogger(r.Context()).WithField("status", status)
	if status >= 500 {
		log.Errorf("Request failed: %v", err)
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub()
		}
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("request_id", requestID(r.Context()))
			hub.CaptureException(err)
		})
	} else {
		log.Warnf("Request rejected: %v", err)
	}
	writeJSON(w, status, errorBody(err))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
