// Package metrics exposes Prometheus counters for the cache, outgoing
// email and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aussiebroadwan/explorer/pkg/cachex"
	"github.com/aussiebroadwan/explorer/pkg/httpx"
	"github.com/aussiebroadwan/explorer/pkg/mailx"
)

// Collector implements cachex.Observer and mailx.Observer.
type Collector struct {
	cacheRequests *prometheus.CounterVec
	cachePurges   *prometheus.CounterVec
	emails        *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

var (
	_ cachex.Observer = (*Collector)(nil)
	_ mailx.Observer  = (*Collector)(nil)
)

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_cache_requests_total",
			Help: "Cache lookups by key namespace and result.",
		}, []string{"cache", "result"}),
		cachePurges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_cache_purges_total",
			Help: "Cache entries purged by key namespace.",
		}, []string{"cache"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_emails_total",
			Help: "Email delivery attempts by template and result.",
		}, []string{"template", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "explorer_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(
		c.cacheRequests,
		c.cachePurges,
		c.emails,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

func (c *Collector) CacheHit(namespace string) {
	c.cacheRequests.WithLabelValues(namespace, "hit").Inc()
}

func (c *Collector) CacheMiss(namespace string) {
	c.cacheRequests.WithLabelValues(namespace, "miss").Inc()
}

func (c *Collector) CachePurge(namespace string) {
	c.cachePurges.WithLabelValues(namespace).Inc()
}

func (c *Collector) EmailSent(template string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	c.emails.WithLabelValues(template, result).Inc()
}

// Middleware counts every request and observes its latency.
func (c *Collector) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			c.httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
			c.httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
