// Package searchmetrics exports orchestrator telemetry as Prometheus metrics.
package searchmetrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/beeper/medsearch/pkg/search"
	"github.com/beeper/medsearch/pkg/searcherr"
)

const namespace = "medsearch"

// Observer implements search.Observer on top of a Prometheus registerer.
type Observer struct {
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	searches        *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	providerOutcome *prometheus.CounterVec
}

var _ search.Observer = (*Observer)(nil)

// New registers the search metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Observer{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_attempts_total",
				Help:      "Provider call attempts by provider, attempt number and outcome",
			},
			[]string{"provider", "attempt", "outcome"},
		),
		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_attempt_duration_seconds",
				Help:      "Duration of a single provider attempt",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		searches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Completed searches by mode and status",
			},
			[]string{"mode", "status"},
		),
		searchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "End-to-end search duration by mode",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		providerOutcome: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_providers_total",
				Help:      "Providers that succeeded or failed per search",
			},
			[]string{"mode", "result"},
		),
	}
}

func (o *Observer) ProviderAttempt(provider search.ProviderID, attempt int, took time.Duration, err error) {
	o.attempts.WithLabelValues(string(provider), strconv.Itoa(attempt), outcome(err)).Inc()
	o.attemptDuration.WithLabelValues(string(provider)).Observe(took.Seconds())
}

func (o *Observer) SearchCompleted(mode string, took time.Duration, succeeded, failed int) {
	status := string(search.StatusSuccess)
	switch {
	case succeeded == 0:
		status = string(search.StatusError)
	case failed > 0:
		status = string(search.StatusPartial)
	}
	o.searches.WithLabelValues(mode, status).Inc()
	o.searchDuration.WithLabelValues(mode).Observe(took.Seconds())
	o.providerOutcome.WithLabelValues(mode, "succeeded").Add(float64(succeeded))
	o.providerOutcome.WithLabelValues(mode, "failed").Add(float64(failed))
}

// outcome buckets an attempt error into a low-cardinality label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case searcherr.IsAuthError(err):
		return "auth"
	case searcherr.IsRateLimitError(err):
		return "rate_limit"
	case searcherr.IsTimeoutError(err):
		return "timeout"
	case searcherr.IsServerError(err):
		return "server"
	default:
		return "error"
	}
}
