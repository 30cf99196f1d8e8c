package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// apiMetrics holds the server's Prometheus instruments. Each server gets its
// own registry to avoid collector conflicts across instances.
type apiMetrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	predictions *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

func newAPIMetrics() *apiMetrics {
	m := &apiMetrics{registry: prometheus.NewRegistry()}

	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "defectscan_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "defectscan_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	m.predictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "defectscan_predictions_total",
		Help: "Predictions served by label and model state.",
	}, []string{"label", "model_state"})
	m.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "defectscan_prediction_cache_hits_total",
		Help: "Prediction cache hits.",
	})
	m.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "defectscan_prediction_cache_misses_total",
		Help: "Prediction cache misses.",
	})

	m.registry.MustRegister(m.requests, m.duration, m.predictions, m.cacheHits, m.cacheMisses)
	return m
}

// middleware records request counts and latency per matched route.
func (m *apiMetrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// handler serves the scrape endpoint for this server's registry.
func (m *apiMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
