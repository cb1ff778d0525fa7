package suggest

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/cancellation-letters/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(s []Suggestion) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Name
	}
	return out
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestEmbeddedCatalogLoads(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	all := s.Names()
	assert.Contains(t, all, "Netflix")
	assert.Contains(t, all, "Spotify")
	assert.IsIncreasing(t, lowerAll(all))
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.ToLower(v)
	}
	return out
}

func TestSuggestRanking(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		query string
		limit int
		want  []string
	}{
		{query: "net", want: []string{"Netflix", "Planet Fitness"}},
		{query: "  NETFLIX ", want: []string{"Netflix"}},
		{query: "ap", want: []string{"Apple Music", "Apple TV+"}},
		{query: "pl", want: []string{"Planet Fitness", "PlayStation Plus", "Apple Music", "Apple TV+", "Disney+"}},
		{query: "pl", limit: 2, want: []string{"Planet Fitness", "PlayStation Plus"}},
		{query: "wsj", want: []string{"The Wall Street Journal"}},
		{query: "zzz", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := s.Suggest(ctx, tt.query, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestSuggestShortQuery(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	for _, q := range []string{"", " ", "n", " a "} {
		got, err := s.Suggest(context.Background(), q, 5)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got, q)
	}
}

func TestSuggestLimits(t *testing.T) {
	catalog := make([]Suggestion, 0, 30)
	for i := 0; i < 30; i++ {
		catalog = append(catalog, Suggestion{Name: "Service " + string(rune('A'+i%26)) + string(rune('a'+i/26))})
	}
	s := NewWithCatalog(catalog, WithDefaultLimit(3))
	ctx := context.Background()

	got, err := s.Suggest(ctx, "service", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = s.Suggest(ctx, "service", 100)
	require.NoError(t, err)
	assert.Len(t, got, MaxLimit)
}

func TestSuggestCaches(t *testing.T) {
	mr, client := setupTestRedis(t)
	m := metrics.New(prometheus.NewRegistry())
	s, err := New(WithCache(client, time.Hour), WithMetrics(m))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := s.Suggest(ctx, "Spot", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Spotify"}, names(first))

	key := "suggest:spot:5"
	require.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	// Replace the cached value to prove the second call reads from Redis.
	cached, _ := json.Marshal([]Suggestion{{Name: "Cached Service"}})
	require.NoError(t, mr.Set(key, string(cached)))

	second, err := s.Suggest(ctx, "spot", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cached Service"}, names(second))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SuggestionRequests.WithLabelValues(metrics.CacheMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SuggestionRequests.WithLabelValues(metrics.CacheHit)))
}

func TestSuggestIgnoresCacheErrors(t *testing.T) {
	mr, client := setupTestRedis(t)
	s, err := New(WithCache(client, time.Minute))
	require.NoError(t, err)
	mr.Close()

	got, err := s.Suggest(context.Background(), "hulu", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hulu"}, names(got))
}

func TestSuggestIgnoresCorruptCacheEntry(t *testing.T) {
	mr, client := setupTestRedis(t)
	s, err := New(WithCache(client, time.Minute))
	require.NoError(t, err)
	require.NoError(t, mr.Set("suggest:hulu:5", "{not json"))

	got, err := s.Suggest(context.Background(), "hulu", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hulu"}, names(got))
}

func TestLoadCatalogInvalid(t *testing.T) {
	_, err := LoadCatalog([]byte("services: [\n"))
	assert.Error(t, err)
}
