// Package suggest offers service-name autocompletion from a built-in catalog
// of common subscription services.
package suggest

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ignite/cancellation-letters/internal/metrics"
	"github.com/ignite/cancellation-letters/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

const (
	// MinQueryLength is the shortest query that produces suggestions.
	MinQueryLength = 2
	// DefaultLimit is used when the caller passes a non-positive limit.
	DefaultLimit = 5
	// MaxLimit caps the number of returned suggestions.
	MaxLimit = 20
)

//go:embed services.yaml
var catalogYAML []byte

// Suggestion is one catalog entry returned to the caller.
type Suggestion struct {
	Name     string   `json:"name" yaml:"name"`
	Category string   `json:"category" yaml:"category"`
	Aliases  []string `json:"aliases,omitempty" yaml:"aliases"`
	Plans    []string `json:"plans,omitempty" yaml:"plans"`
}

type catalogFile struct {
	Services []Suggestion `yaml:"services"`
}

// Service answers suggestion queries. Redis caching is optional.
type Service struct {
	catalog      []Suggestion
	redis        *redis.Client
	ttl          time.Duration
	defaultLimit int
	metrics      *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithCache caches results in Redis for ttl.
func WithCache(client *redis.Client, ttl time.Duration) Option {
	return func(s *Service) {
		s.redis = client
		s.ttl = ttl
	}
}

// WithMetrics records lookups on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDefaultLimit overrides DefaultLimit.
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// LoadCatalog parses a YAML catalog.
func LoadCatalog(data []byte) ([]Suggestion, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	sort.Slice(f.Services, func(i, j int) bool {
		return strings.ToLower(f.Services[i].Name) < strings.ToLower(f.Services[j].Name)
	})
	return f.Services, nil
}

// New creates a Service over the embedded catalog.
func New(opts ...Option) (*Service, error) {
	catalog, err := LoadCatalog(catalogYAML)
	if err != nil {
		return nil, err
	}
	return NewWithCatalog(catalog, opts...), nil
}

// NewWithCatalog creates a Service over the given entries.
func NewWithCatalog(catalog []Suggestion, opts ...Option) *Service {
	s := &Service{catalog: catalog, defaultLimit: DefaultLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Names returns every service name in the catalog.
func (s *Service) Names() []string {
	names := make([]string, len(s.catalog))
	for i, c := range s.catalog {
		names[i] = c.Name
	}
	return names
}

// Suggest returns up to limit catalog entries matching query. Name prefix
// matches come first, then substring and alias matches, each alphabetical.
func (s *Service) Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < MinQueryLength {
		return []Suggestion{}, nil
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if s.redis == nil {
		s.metrics.Suggestion(metrics.CacheDisabled)
		return s.match(q, limit), nil
	}

	key := fmt.Sprintf("suggest:%s:%d", q, limit)
	if cached, ok := s.fromCache(ctx, key); ok {
		s.metrics.Suggestion(metrics.CacheHit)
		return cached, nil
	}

	s.metrics.Suggestion(metrics.CacheMiss)
	results := s.match(q, limit)
	s.store(ctx, key, results)
	return results, nil
}

func (s *Service) match(q string, limit int) []Suggestion {
	var prefix, other []Suggestion
	for _, c := range s.catalog {
		name := strings.ToLower(c.Name)
		switch {
		case strings.HasPrefix(name, q):
			prefix = append(prefix, c)
		case strings.Contains(name, q) || aliasMatch(c.Aliases, q):
			other = append(other, c)
		}
	}

	results := append(prefix, other...)
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []Suggestion{}
	}
	return results
}

func aliasMatch(aliases []string, q string) bool {
	for _, a := range aliases {
		if strings.Contains(strings.ToLower(a), q) {
			return true
		}
	}
	return false
}

func (s *Service) fromCache(ctx context.Context, key string) ([]Suggestion, bool) {
	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("suggestion cache read failed", "key", key, "error", err.Error())
		}
		return nil, false
	}
	var out []Suggestion
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Warn("suggestion cache entry unreadable", "key", key, "error", err.Error())
		return nil, false
	}
	return out, true
}

func (s *Service) store(ctx context.Context, key string, results []Suggestion) {
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		logger.Warn("suggestion cache write failed", "key", key, "error", err.Error())
	}
}
