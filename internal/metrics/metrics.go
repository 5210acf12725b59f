// Package metrics exposes Prometheus counters for the compost coach. The
// collectors live in the default registry and are served only when a
// metrics address is configured.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hammamikhairi/compostcoach/internal/domain"
)

const namespace = "compostcoach"

var (
	// mixMutations counts mix changes.
	// Labels: op (add, adjust, remove, clear)
	mixMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mix",
		Name:      "mutations_total",
		Help:      "Total mix mutations by operation",
	}, []string{"op"})

	// ratioStatus counts computed results by classification.
	// Labels: status (EMPTY, TOO_GREEN, IDEAL, TOO_BROWN)
	ratioStatus = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ratio",
		Name:      "computed_total",
		Help:      "Total ratio computations by status",
	}, []string{"status"})

	// advisoryRequests counts generative calls.
	// Labels: method (mix, search, news, ...), outcome (ok, error, fallback)
	advisoryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "advisor",
		Name:      "requests_total",
		Help:      "Total advisory requests by method and outcome",
	}, []string{"method", "outcome"})

	// advisoryLatency measures generative call latency.
	// Labels: method
	advisoryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "advisor",
		Name:      "latency_seconds",
		Help:      "Advisory request latency in seconds",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45, 90},
	}, []string{"method"})

	// staleAdvice counts advice discarded because the mix changed in flight.
	staleAdvice = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "advisor",
		Name:      "stale_discarded_total",
		Help:      "Advice responses discarded because the mix changed",
	})
)

// Outcome labels for RecordAdvisory.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

// RecordMixMutation counts one mix change.
func RecordMixMutation(op string) {
	mixMutations.WithLabelValues(op).Inc()
}

// RecordRatio counts one computed ratio.
func RecordRatio(s domain.Status) {
	ratioStatus.WithLabelValues(s.String()).Inc()
}

// RecordAdvisory counts one generative call and its latency.
func RecordAdvisory(method, outcome string, elapsed time.Duration) {
	advisoryRequests.WithLabelValues(method, outcome).Inc()
	advisoryLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RecordFallback counts a reply that came back empty and was replaced.
func RecordFallback(method string) {
	advisoryRequests.WithLabelValues(method, OutcomeFallback).Inc()
}

// RecordStaleAdvice counts one discarded response.
func RecordStaleAdvice() {
	staleAdvice.Inc()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
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
