package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "demcache",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "demcache",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
	}, []string{"method", "path"})

	// Pipeline metrics
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "demcache",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Requests served from an existing artifact",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "demcache",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Requests that had to build an artifact",
	})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "demcache",
		Subsystem: "pipeline",
		Name:      "build_duration_seconds",
		Help:      "Time spent fetching and merging one artifact",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	BuildFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "demcache",
		Subsystem: "pipeline",
		Name:      "build_failures_total",
		Help:      "Failed artifact builds by terminal state",
	}, []string{"state"})

	LockWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "demcache",
		Subsystem: "pipeline",
		Name:      "lock_wait_seconds",
		Help:      "Time spent waiting for a per-key lock",
		Buckets:   []float64{0.001, 0.01, 0.1, 1, 10, 60, 300},
	})

	// Fetch metrics
	TileDownloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "demcache",
		Subsystem: "fetch",
		Name:      "tile_downloads_total",
		Help:      "Tile download attempts by result",
	}, []string{"result"})

	TileBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "demcache",
		Subsystem: "fetch",
		Name:      "tile_bytes_total",
		Help:      "Bytes of tile data downloaded",
	})

	SamplesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "demcache",
		Subsystem: "sampler",
		Name:      "samples_total",
		Help:      "Elevation samples by result",
	}, []string{"result"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
