package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecognitionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facelink",
		Name:      "recognition_attempts_total",
		Help:      "Total number of recognition attempts by result",
	}, []string{"result"})

	Announcements = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facelink",
		Name:      "announcements_total",
		Help:      "Total number of matches that passed the announcement gate",
	})

	MatcherFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facelink",
		Name:      "matcher_failures_total",
		Help:      "Face matcher errors and timeouts treated as no match",
	}, []string{"reason"})

	MatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "facelink",
		Name:      "match_duration_seconds",
		Help:      "Duration of a single face matcher invocation",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facelink",
		Name:      "inference_duration_seconds",
		Help:      "ONNX inference duration by stage",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"stage"})

	TimelinePublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facelink",
		Name:      "timeline_publish_failures_total",
		Help:      "Timeline events that were stored but could not be published",
	})

	PollTicksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facelink",
		Name:      "poll_ticks_skipped_total",
		Help:      "Visitor mode ticks skipped because an attempt was still in flight",
	})

	VisitorSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "facelink",
		Name:      "visitor_sessions",
		Help:      "Number of devices with visitor mode enabled",
	})

	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facelink",
		Name:      "reminders_sent_total",
		Help:      "Task reminders pushed to connected devices",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facelink",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "facelink",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
