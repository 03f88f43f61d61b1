package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpLabels = []string{"surface", "method", "route", "status"}

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP 请求耗时（秒），按接口面与路由模板区分。",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		httpLabels,
	)

	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP 请求总数。",
		},
		httpLabels,
	)

	requestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "正在处理的 HTTP 请求数。",
		},
		[]string{"surface"},
	)
)

// Surface 把路由模板归到求职者、雇主、管理员等接口面，未匹配的路由记为 "unmatched"。
func Surface(route string) string {
	rest, ok := strings.CutPrefix(route, "/v1/")
	if !ok {
		if route == "" {
			return "unmatched"
		}
		return "system"
	}
	segment, _, _ := strings.Cut(rest, "/")
	switch segment {
	case "admin", "employer", "auth", "ai":
		return segment
	case "applications":
		return "applications"
	case "users":
		return "account"
	default:
		return "public"
	}
}

// GinMiddleware 采集 HTTP 指标，路由以模板计以控制标签基数。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		surface := Surface(route)

		requestsInFlight.WithLabelValues(surface).Inc()
		defer requestsInFlight.WithLabelValues(surface).Dec()

		c.Next()

		if route == "" {
			route = "unmatched"
		}
		labels := prometheus.Labels{
			"surface": surface,
			"method":  c.Request.Method,
			"route":   route,
			"status":  strconv.Itoa(c.Writer.Status()),
		}
		requestDuration.With(labels).Observe(time.Since(start).Seconds())
		requestTotal.With(labels).Inc()
	}
}
