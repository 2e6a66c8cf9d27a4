package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheLookups  *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	upstreamCalls *prometheus.HistogramVec
	upstreamErrs  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a Prometheus recorder registered on reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "traderblock_cache_lookups_total",
				Help: "Cache lookups by namespace and result",
			},
			[]string{"namespace", "result"},
		),
		rateLimited: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "traderblock_rate_limited_total",
				Help: "Inbound requests rejected by the rate limiter",
			},
			[]string{"scope"},
		),
		upstreamCalls: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "traderblock_upstream_call_duration_seconds",
				Help:    "Duration of market data provider calls",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),
		upstreamErrs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "traderblock_upstream_errors_total",
				Help: "Failed market data provider calls",
			},
			[]string{"provider"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "traderblock_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "traderblock_last_price",
				Help: "Last analysed close for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "traderblock_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordCacheLookup(namespace string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(namespace, result).Inc()
}

func (r *Recorder) RecordRateLimited(scope string) {
	r.rateLimited.WithLabelValues(scope).Inc()
}

// RecordUpstreamCall observes one provider call; err marks it failed.
func (r *Recorder) RecordUpstreamCall(provider string, seconds float64, err error) {
	r.upstreamCalls.WithLabelValues(provider).Observe(seconds)
	if err != nil {
		r.upstreamErrs.WithLabelValues(provider).Inc()
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Noop discards all measurements.
type Noop struct{}

func (Noop) RecordCacheLookup(string, bool)            {}
func (Noop) RecordRateLimited(string)                  {}
func (Noop) RecordUpstreamCall(string, float64, error) {}
func (Noop) RecordError(string)                        {}
func (Noop) RecordLastPrice(string, float64)           {}
func (Noop) RecordLatency(string, float64)             {}
