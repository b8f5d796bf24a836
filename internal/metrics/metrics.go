// ABOUTME: Prometheus instruments for the voice changer host
// ABOUTME: Registered once on the default registry and exposed at /metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var HttpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "voicechanger_http_requests_total",
}, []string{"action", "method"})
var HttpResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "voicechanger_http_responses_total",
}, []string{"action", "method", "statusCode"})
var HttpResponseTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name: "voicechanger_http_response_time_seconds",
}, []string{"action", "method"})
var UploadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
	Name:    "voicechanger_upload_bytes",
	Buckets: prometheus.ExponentialBuckets(64<<10, 4, 8),
})
var TransformsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "voicechanger_transforms_total",
}, []string{"codec", "engine"})
var TransformsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "voicechanger_transforms_failed_total",
}, []string{"reason"})
var TransformDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name: "voicechanger_transform_duration_seconds",
}, []string{"engine"})
var AudioSecondsIn = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "voicechanger_audio_seconds_in_total",
})
var AudioSecondsOut = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "voicechanger_audio_seconds_out_total",
})
var ActiveJobs = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "voicechanger_active_jobs",
})
var WebsocketSessions = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "voicechanger_websocket_sessions_total",
})

func init() {
	prometheus.MustRegister(HttpRequests)
	prometheus.MustRegister(HttpResponses)
	prometheus.MustRegister(HttpResponseTime)
	prometheus.MustRegister(UploadBytes)
	prometheus.MustRegister(TransformsCompleted)
	prometheus.MustRegister(TransformsFailed)
	prometheus.MustRegister(TransformDuration)
	prometheus.MustRegister(AudioSecondsIn)
	prometheus.MustRegister(AudioSecondsOut)
	prometheus.MustRegister(ActiveJobs)
	prometheus.MustRegister(WebsocketSessions)
}
