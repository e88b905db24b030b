package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// EnvLatencyBuckets overrides the latency buckets, formatted like "100,200,300,400" (milliseconds).
	EnvLatencyBuckets     = "KAAMSETU_HTTP_LATENCY_BUCKETS"
	RequestsCollectorName = "kaamsetu_http_requests_total"
	LatencyCollectorName  = "kaamsetu_http_request_duration_milliseconds"
	InFlightCollectorName = "kaamsetu_http_requests_in_flight"

	eventStreamContentType = "text/event-stream"
	unmatchedRoute         = "unmatched"
)

var defaultBuckets = []float64{10, 50, 100, 300, 500, 1000, 5000}

// Middleware exposes the number of requests and their latency partitioned by status code,
// method and route pattern, plus the requests in flight. Subscription streams are counted
// but kept out of the latency histogram.
type Middleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

func latencyBuckets() ([]float64, error) {
	conf, ok := os.LookupEnv(EnvLatencyBuckets)
	if !ok || conf == "" {
		return defaultBuckets, nil
	}
	var buckets []float64
	for _, v := range strings.Split(conf, ",") {
		f64v, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvLatencyBuckets, err)
		}
		buckets = append(buckets, f64v)
	}
	return buckets, nil
}

// NewMiddleware returns a new prometheus middleware for the provided service name.
func NewMiddleware(name string) (*Middleware, error) {
	buckets, err := latencyBuckets()
	if err != nil {
		return nil, err
	}

	labels := prometheus.Labels{"service": name}
	return &Middleware{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        RequestsCollectorName,
			Help:        "Number of HTTP requests partitioned by status code, method and route.",
			ConstLabels: labels,
		}, []string{"code", "method", "path"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        LatencyCollectorName,
			Help:        "Time spent on the request partitioned by status code, method and route.",
			ConstLabels: labels,
			Buckets:     buckets,
		}, []string{"code", "method", "path"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        InFlightCollectorName,
			Help:        "Requests being served, open subscription streams included.",
			ConstLabels: labels,
		}, []string{"method"}),
	}, nil
}

// Handler returns a handler for the middleware pattern.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		inFlight := m.inFlight.WithLabelValues(r.Method)
		inFlight.Inc()
		defer inFlight.Dec()

		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := strconv.Itoa(ww.Status())

		m.requests.WithLabelValues(code, r.Method, route).Inc()
		if strings.HasPrefix(ww.Header().Get("Content-Type"), eventStreamContentType) {
			return
		}
		m.latency.WithLabelValues(code, r.Method, route).Observe(float64(time.Since(start).Milliseconds()))
	}
	return http.HandlerFunc(fn)
}

// Collectors returns the collectors for a custom registry.
func (m *Middleware) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.latency, m.inFlight}
}

// Register adds the collectors to the default registerer. Collectors registered by an
// earlier server of the same process are reused.
func (m *Middleware) Register() error {
	for i, c := range m.Collectors() {
		if err := prometheus.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
			switch i {
			case 0:
				m.requests = already.ExistingCollector.(*prometheus.CounterVec)
			case 1:
				m.latency = already.ExistingCollector.(*prometheus.HistogramVec)
			case 2:
				m.inFlight = already.ExistingCollector.(*prometheus.GaugeVec)
			}
		}
	}
	return nil
}
