// Package metrics holds the Prometheus collectors for letter generation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache outcomes for suggestion lookups.
const (
	CacheHit      = "hit"
	CacheMiss     = "miss"
	CacheDisabled = "disabled"
)

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	LettersGenerated   *prometheus.CounterVec
	Fallbacks          *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec
	SuggestionRequests *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LettersGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "letters_generated_total",
			Help: "Cancellation letters produced, by source.",
		}, []string{"source"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "letter_fallbacks_total",
			Help: "Letters drafted from the template instead of the model, by reason.",
		}, []string{"reason"}),
		LLMRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "letter_llm_request_duration_seconds",
			Help:    "Latency of language model calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"provider", "outcome"}),
		SuggestionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suggestions_requests_total",
			Help: "Service name suggestion lookups, by cache outcome.",
		}, []string{"cache"}),
	}
	if reg != nil {
		reg.MustRegister(m.LettersGenerated, m.Fallbacks, m.LLMRequestDuration, m.SuggestionRequests)
	}
	return m
}

// LetterGenerated counts a finished letter.
func (m *Metrics) LetterGenerated(source string) {
	if m == nil {
		return
	}
	m.LettersGenerated.WithLabelValues(source).Inc()
}

// Fallback counts a template fallback.
func (m *Metrics) Fallback(reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(reason).Inc()
}

// ObserveLLM records how long a model call took.
func (m *Metrics) ObserveLLM(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequestDuration.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

// Suggestion counts a suggestion lookup.
func (m *Metrics) Suggestion(cache string) {
	if m == nil {
		return
	}
	m.SuggestionRequests.WithLabelValues(cache).Inc()
}
