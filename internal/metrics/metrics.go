package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"

	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// Metrics groups the collectors for one viewer process. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	fetches        *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	staleResponses prometheus.Counter
	bookmarkToggle *prometheus.CounterVec
	itemsLoaded    prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "headlines_fetch_total",
			Help: "Page fetches by category and outcome",
		}, []string{"category", "outcome"}),
		fetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "headlines_fetch_duration_seconds",
			Help:    "Latency of page fetches",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		}, []string{"category"}),
		staleResponses: f.NewCounter(prometheus.CounterOpts{
			Name: "headlines_stale_responses_total",
			Help: "Fetch results discarded because the session changed",
		}),
		bookmarkToggle: f.NewCounterVec(prometheus.CounterOpts{
			Name: "headlines_bookmark_toggles_total",
			Help: "Bookmark additions and removals",
		}, []string{"action"}),
		itemsLoaded: f.NewGauge(prometheus.GaugeOpts{
			Name: "headlines_items_loaded",
			Help: "Articles currently held by the feed session",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveFetch(category string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.fetches.WithLabelValues(category, outcome).Inc()
	m.fetchDuration.WithLabelValues(category).Observe(d.Seconds())
}

func (m *Metrics) StaleResponse() {
	if m == nil {
		return
	}
	m.staleResponses.Inc()
}

func (m *Metrics) BookmarkToggled(added bool) {
	if m == nil {
		return
	}
	action := ActionRemoved
	if added {
		action = ActionAdded
	}
	m.bookmarkToggle.WithLabelValues(action).Inc()
}

func (m *Metrics) SetItemsLoaded(n int) {
	if m == nil {
		return
	}
	m.itemsLoaded.Set(float64(n))
}

// Handler exposes the private registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve blocks serving /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
