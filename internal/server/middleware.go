// ABOUTME: Per-request instrumentation for the web host
// ABOUTME: Request IDs, access logging, Prometheus counters and panic recovery
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/voicechanger-go/internal/metrics"
)

type contextKey int

const loggerKey contextKey = iota

// RequestIDHeader carries the per-request ID back to the client
const RequestIDHeader = "X-Request-Id"

// statusRecorder captures the response code. It passes Hijack through so
// WebSocket upgrades still work behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) instrument(action string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()

		log := logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"action":     action,
			"method":     r.Method,
			"remote":     r.RemoteAddr,
		})
		r = r.WithContext(context.WithValue(r.Context(), loggerKey, log))

		metrics.HttpRequests.With(map[string]string{"action": action, "method": r.Method}).Inc()

		w.Header().Set(RequestIDHeader, requestID)
		rec := &statusRecorder{ResponseWriter: w}

		defer func() {
			if e := recover(); e != nil {
				log.Errorf("Panic serving request: %v", e)
				hub := sentry.GetHubFromContext(r.Context())
				if hub == nil {
					hub = sentry.CurrentHub()
				}
				hub.Recover(e)
				if rec.status == 0 {
					writeJSON(rec, http.StatusInternalServerError, errorBody(fmt.Errorf("%v", e)))
				}
			}

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			elapsed := time.Since(start)
			metrics.HttpResponses.With(map[string]string{
				"action":     action,
				"method":     r.Method,
				"statusCode": strconv.Itoa(rec.status),
			}).Inc()
			metrics.HttpResponseTime.With(map[string]string{"action": action, "method": r.Method}).Observe(elapsed.Seconds())

			entry := log.WithFields(logrus.Fields{"status": rec.status, "elapsed": elapsed})
			if s.config.Debug || rec.status >= 500 {
				entry.Info(r.URL.Path)
			} else {
				entry.Debug(r.URL.Path)
			}
		}()

		next.ServeHTTP(rec, r)
	})
}

// requestLogger returns the request-scoped logger set by instrument
func requestLogger(ctx context.Context) *logrus.Entry {
	if log, ok := ctx.Value(loggerKey).(*logrus.Entry); ok {
		return log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func requestID(ctx context.Context) string {
	if id, ok := requestLogger(ctx).Data["request_id"].(string); ok {
		return id
	}
	return ""
}
