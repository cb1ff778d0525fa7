package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.LetterGenerated("llm")
	m.LetterGenerated("template")
	m.LetterGenerated("template")
	m.Fallback("timeout")
	m.Suggestion(CacheHit)
	m.ObserveLLM("openai", "ok", 1500*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LettersGenerated.WithLabelValues("llm")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LettersGenerated.WithLabelValues("template")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SuggestionRequests.WithLabelValues(CacheHit)))

	count, err := testutil.GatherAndCount(reg, "letter_llm_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LetterGenerated("llm")
		m.Fallback("requested")
		m.ObserveLLM("openai", "error", time.Second)
		m.Suggestion(CacheMiss)
	})
}
