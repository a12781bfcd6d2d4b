package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ShippingMetrics records carrier call outcomes and rate cache behavior.
type ShippingMetrics struct {
	callDuration *prometheus.HistogramVec
	callSuccess  *prometheus.CounterVec
	callFailure  *prometheus.CounterVec
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
}

// NewShippingMetrics registers the shipping metrics on the provided registerer.
func NewShippingMetrics(reg prometheus.Registerer) *ShippingMetrics {
	if reg == nil {
		return &ShippingMetrics{}
	}
	callDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carrier_call_duration_seconds",
		Help:    "Duration of carrier API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	callSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carrier_call_success",
		Help: "Successful carrier API calls.",
	}, []string{"operation", "mail_class"})
	callFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carrier_call_failure",
		Help: "Failed carrier API calls.",
	}, []string{"operation", "mail_class"})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_cache_hits",
		Help: "Rate quote requests served from the in-memory cache.",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_cache_misses",
		Help: "Rate quote requests that required carrier calls.",
	})
	reg.MustRegister(callDuration, callSuccess, callFailure, cacheHits, cacheMisses)
	return &ShippingMetrics{
		callDuration: callDuration,
		callSuccess:  callSuccess,
		callFailure:  callFailure,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
	}
}

// ObserveCallDuration records the duration of the named carrier operation.
func (s *ShippingMetrics) ObserveCallDuration(operation string, duration time.Duration) {
	if s == nil || s.callDuration == nil {
		return
	}
	s.callDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncCallSuccess increments the success counter for an operation/mail class pair.
func (s *ShippingMetrics) IncCallSuccess(operation, mailClass string) {
	if s == nil || s.callSuccess == nil {
		return
	}
	s.callSuccess.WithLabelValues(normalizeLabel(operation), normalizeLabel(mailClass)).Inc()
}

// IncCallFailure increments the failure counter for an operation/mail class pair.
func (s *ShippingMetrics) IncCallFailure(operation, mailClass string) {
	if s == nil || s.callFailure == nil {
		return
	}
	s.callFailure.WithLabelValues(normalizeLabel(operation), normalizeLabel(mailClass)).Inc()
}

// IncCacheHit increments the rate cache hit counter.
func (s *ShippingMetrics) IncCacheHit() {
	if s == nil || s.cacheHits == nil {
		return
	}
	s.cacheHits.Inc()
}

// IncCacheMiss increments the rate cache miss counter.
func (s *ShippingMetrics) IncCacheMiss() {
	if s == nil || s.cacheMisses == nil {
		return
	}
	s.cacheMisses.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
