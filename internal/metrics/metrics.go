package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusLabelSuccess = "success"
	statusLabelFailure = "failure"

	metricsEndpointPath = "/metrics"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	inquiriesSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquiries_submitted_total",
			Help: "Total number of customer inquiries submitted",
		},
		[]string{"origin"},
	)

	visitRequestsSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visit_requests_submitted_total",
			Help: "Total number of property visit requests submitted",
		},
	)

	subscriptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_subscriptions_total",
			Help: "Total number of newsletter subscription events",
		},
		[]string{"event"},
	)

	noticesDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notices_dispatched_total",
			Help: "Total number of outbound email notices by delivery outcome",
		},
		[]string{"kind", "status"},
	)
)

// RequestMetrics records per-request counters and latency histograms. The
// metrics endpoint itself is excluded.
func RequestMetrics() gin.HandlerFunc {
	return func(ginContext *gin.Context) {
		if ginContext.Request.URL.Path == metricsEndpointPath {
			ginContext.Next()
			return
		}

		startedAt := time.Now()
		ginContext.Next()

		endpoint := ginContext.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		statusCode := strconv.Itoa(ginContext.Writer.Status())

		httpRequestsTotal.WithLabelValues(ginContext.Request.Method, endpoint, statusCode).Inc()
		httpRequestDuration.WithLabelValues(ginContext.Request.Method, endpoint, statusCode).Observe(time.Since(startedAt).Seconds())
	}
}

// RecordInquirySubmitted records a customer inquiry by origin.
func RecordInquirySubmitted(origin string) {
	inquiriesSubmittedTotal.WithLabelValues(origin).Inc()
}

// RecordVisitRequestSubmitted records a property visit request.
func RecordVisitRequestSubmitted() {
	visitRequestsSubmittedTotal.Inc()
}

// RecordSubscriptionEvent records a newsletter subscription event such as
// "subscribed" or "confirmed".
func RecordSubscriptionEvent(event string) {
	subscriptionsTotal.WithLabelValues(event).Inc()
}

// RecordNoticeDispatched records an outbound notice delivery outcome.
func RecordNoticeDispatched(kind string, delivered bool) {
	status := statusLabelFailure
	if delivered {
		status = statusLabelSuccess
	}
	noticesDispatchedTotal.WithLabelValues(kind, status).Inc()
}
