/*
Package metrics owns the Prometheus collectors for the folio server.

Collectors live on a private registry so tests can build as many instances as they like.
All recording methods are safe on a nil *Collector.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector groups every metric the server records.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	commentsCreated prometheus.Counter
	likesToggled    *prometheus.CounterVec
	chatReplies     *prometheus.CounterVec
	completionFails prometheus.Counter
	liveClients     prometheus.Gauge
	authEvents      *prometheus.CounterVec
}

// New builds a Collector registered under namespace.
func New(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		commentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_created_total",
			Help:      "Comments posted.",
		}),
		likesToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comment_likes_toggled_total",
			Help:      "Like toggles by resulting state.",
		}, []string{"state"}),
		chatReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_replies_total",
			Help:      "Chat replies by source (remote or fallback).",
		}, []string{"source"}),
		completionFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_completion_failures_total",
			Help:      "Completion calls that failed and fell back to canned replies.",
		}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_clients",
			Help:      "Connected live-feed sockets.",
		}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Auth state transitions by kind.",
		}, []string{"kind"}),
	}

	c.registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.commentsCreated,
		c.likesToggled,
		c.chatReplies,
		c.completionFails,
		c.liveClients,
		c.authEvents,
	)

	return c
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Middleware records request count and latency per chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		c.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		c.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// CommentCreated counts one new comment.
func (c *Collector) CommentCreated() {
	if c == nil {
		return
	}
	c.commentsCreated.Inc()
}

// LikeToggled counts one toggle; liked is the state after the toggle.
func (c *Collector) LikeToggled(liked bool) {
	if c == nil {
		return
	}
	state := "unliked"
	if liked {
		state = "liked"
	}
	c.likesToggled.WithLabelValues(state).Inc()
}

// ChatReply counts one reply from source.
func (c *Collector) ChatReply(source string) {
	if c == nil {
		return
	}
	c.chatReplies.WithLabelValues(source).Inc()
}

// CompletionFailed counts one failed completion call.
func (c *Collector) CompletionFailed() {
	if c == nil {
		return
	}
	c.completionFails.Inc()
}

// LiveClientsDelta moves the connected-socket gauge.
func (c *Collector) LiveClientsDelta(delta float64) {
	if c == nil {
		return
	}
	c.liveClients.Add(delta)
}

// AuthEvent counts one auth-state transition.
func (c *Collector) AuthEvent(kind string) {
	if c == nil {
		return
	}
	c.authEvents.WithLabelValues(kind).Inc()
}
