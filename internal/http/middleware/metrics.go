package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// unmatchedPath labels every request that hit no route, keeping the label
// set bounded no matter what paths scanners probe.
const unmatchedPath = "unmatched"

var (
	httpFactory = promauto.With(prometheus.DefaultRegisterer)

	httpReqs = httpFactory.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})

	httpLat = httpFactory.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	httpInflight = httpFactory.NewGauge(prometheus.GaugeOpts{
		Subsystem: "http",
		Name:      "requests_inflight",
		Help:      "HTTP requests currently being served.",
	})

	httpRespSize = httpFactory.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response body size by method and route.",
		Buckets:   prometheus.ExponentialBuckets(128, 4, 7),
	}, []string{"method", "path"})
)

// Metrics records request count, latency, size and concurrency per route.
// Routes in skip (e.g. "/metrics", "/health") are not recorded.
func Metrics(skip ...string) gin.HandlerFunc {
	ignored := make(map[string]bool, len(skip))
	for _, p := range skip {
		ignored[p] = true
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if ignored[route] {
			c.Next()
			return
		}
		if route == "" {
			route = unmatchedPath
		}

		httpInflight.Inc()
		defer httpInflight.Dec()
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		m := c.Request.Method
		httpReqs.WithLabelValues(m, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(m, route).Observe(elapsed.Seconds())
		if n := c.Writer.Size(); n >= 0 {
			httpRespSize.WithLabelValues(m, route).Observe(float64(n))
		}
	}
}
