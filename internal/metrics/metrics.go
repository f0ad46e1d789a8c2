// Package metrics exposes Prometheus metrics for function invocations and
// the dev server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"twilio-functions-utils/pkg/response"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "functions_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "functions_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "functions_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	functionInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "functions_invocations_total",
			Help: "Total number of function invocations",
		},
		[]string{"function", "kind", "status"},
	)

	functionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "functions_invocation_duration_seconds",
			Help:    "Function execution time in seconds",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"function"},
	)

	rejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "functions_token_rejections_total",
			Help: "Invocations rejected with 401 by function",
		},
		[]string{"function"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func IncrementInFlight() {
	httpRequestsInFlight.Inc()
}

func DecrementInFlight() {
	httpRequestsInFlight.Dec()
}

// RecordInvocation matches injection.Options.OnComplete
func RecordInvocation(name string, resp *response.Response, elapsed time.Duration) {
	if resp == nil {
		return
	}
	status := resp.StatusCode()
	functionInvocations.WithLabelValues(name, resp.Kind().String(), strconv.Itoa(status)).Inc()
	functionDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if status == http.StatusUnauthorized {
		rejectionsTotal.WithLabelValues(name).Inc()
	}
}
