// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic. Labels are
// chosen to keep cardinality bounded:
//
//   - method: HTTP method verb
//   - path:   the registered Gin route, or the raw URL path when no route
//     matched
//   - status: numeric status code as a string
//   - code:   the envelope code written by the responder ("raw" when the
//     response bypassed the envelope)
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const envelopeCodeKey = "response.code"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// Status is omitted to keep histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// Envelope codes come from configuration, so the code label is bounded.
	httpEnvelopes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_response_envelopes_total",
			Help: "Responses by envelope code.",
		},
		[]string{"path", "code"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpEnvelopes)
}

// SetEnvelopeCode records the envelope code written for this request.
func SetEnvelopeCode(c *gin.Context, code string) {
	c.Set(envelopeCodeKey, code)
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
//
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		code := "raw"
		if v, ok := c.Get(envelopeCodeKey); ok {
			if s, ok := v.(string); ok && s != "" {
				code = s
			}
		}
		httpEnvelopes.WithLabelValues(path, code).Inc()
	}
}
