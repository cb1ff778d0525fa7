// Package compose produces cancellation letters. It asks the configured
// language model first and drops to the deterministic template whenever the
// model is unavailable, refuses, times out or answers with nothing usable.
package compose

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/cancellation-letters/internal/letter"
	"github.com/ignite/cancellation-letters/internal/llm"
	"github.com/ignite/cancellation-letters/internal/metrics"
	"github.com/ignite/cancellation-letters/internal/pkg/logger"
	"github.com/ignite/cancellation-letters/internal/prompt"
	"github.com/microcosm-cc/bluemonday"
)

// Letter sources.
const (
	SourceLLM      = "llm"
	SourceTemplate = "template"
)

// Fallback reasons.
const (
	ReasonNoCredentials = "no_credentials"
	ReasonRateLimited   = "rate_limited"
	ReasonProviderError = "provider_error"
	ReasonTimeout       = "timeout"
	ReasonEmptyResponse = "empty_response"
	ReasonRequested     = "requested"
)

// RateLimiter gates model calls per caller.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Options tweak a single Compose call.
type Options struct {
	// TemplateOnly skips the model entirely.
	TemplateOnly bool
	// CallerKey identifies the caller for rate limiting (client IP, user).
	CallerKey string
	// Date overrides the letter date. Zero means today.
	Date time.Time
}

// Result is a finished letter and how it was produced.
type Result struct {
	ID             string    `json:"id"`
	Letter         string    `json:"letter"`
	Source         string    `json:"source"`
	Provider       string    `json:"provider,omitempty"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Config wires a Service. Provider, Limiter and Metrics are optional.
type Config struct {
	Provider   llm.Provider
	Limiter    RateLimiter
	Metrics    *metrics.Metrics
	Timeout    time.Duration
	DateLayout string
}

// Service composes letters.
type Service struct {
	provider  llm.Provider
	limiter   RateLimiter
	metrics   *metrics.Metrics
	timeout   time.Duration
	layout    string
	builder   *prompt.Builder
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	builder, err := prompt.NewBuilder()
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	s := &Service{
		provider:  cfg.Provider,
		limiter:   cfg.Limiter,
		metrics:   cfg.Metrics,
		timeout:   cfg.Timeout,
		layout:    cfg.DateLayout,
		builder:   builder,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
	return s, nil
}

// ProviderName returns the configured provider or "" when none is set.
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// Compose drafts a letter for req. It only fails when ctx itself is done;
// every model problem is absorbed by the template fallback.
func (s *Service) Compose(ctx context.Context, req letter.Request, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	dated := now
	if !opts.Date.IsZero() {
		dated = opts.Date
	}
	gen := &letter.TemplateGenerator{Now: func() time.Time { return dated }, DateLayout: s.layout}

	res := &Result{
		ID:          uuid.NewString(),
		GeneratedAt: now.UTC(),
	}

	text, reason := s.draft(ctx, req, gen.Date(), opts)
	if reason == "" {
		res.Letter = text
		res.Source = SourceLLM
		res.Provider = s.provider.Name()
	} else {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, _ := gen.Generate(ctx, req)
		res.Letter = body
		res.Source = SourceTemplate
		res.FallbackReason = reason
		s.metrics.Fallback(reason)
	}

	s.metrics.LetterGenerated(res.Source)
	logger.Info("letter composed",
		"letter_id", res.ID, "source", res.Source, "provider", res.Provider,
		"fallback_reason", res.FallbackReason, "tone", req.Tone.Slug())
	return res, nil
}

// draft returns model text, or the reason the template must be used instead.
func (s *Service) draft(ctx context.Context, req letter.Request, date string, opts Options) (string, string) {
	if opts.TemplateOnly {
		return "", ReasonRequested
	}
	if s.provider == nil {
		return "", ReasonNoCredentials
	}

	if s.limiter != nil {
		// Limiter errors fail open; the limiter logs them.
		if ok, _ := s.limiter.Allow(ctx, opts.CallerKey); !ok {
			return "", ReasonRateLimited
		}
	}

	p, err := s.builder.Build(req, date)
	if err != nil {
		logger.Error("failed to build prompt", "error", err.Error())
		return "", ReasonProviderError
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.provider.Complete(callCtx, p)
	elapsed := time.Since(start)

	if err != nil {
		reason := classify(err, callCtx)
		s.metrics.ObserveLLM(s.provider.Name(), reason, elapsed)
		logger.Warn("model call failed, using template",
			"provider", s.provider.Name(), "reason", reason, "error", err.Error(), "duration", elapsed)
		return "", reason
	}

	text := s.clean(raw)
	if text == "" {
		s.metrics.ObserveLLM(s.provider.Name(), ReasonEmptyResponse, elapsed)
		return "", ReasonEmptyResponse
	}
	s.metrics.ObserveLLM(s.provider.Name(), "ok", elapsed)
	return text, ""
}

// clean strips any markup from model output and normalizes whitespace.
func (s *Service) clean(raw string) string {
	text := s.sanitizer.Sanitize(raw)
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text)
}

func classify(err error, callCtx context.Context) string {
	switch {
	case errors.Is(err, llm.ErrNoCredentials):
		return ReasonNoCredentials
	case errors.Is(err, llm.ErrEmptyResponse):
		return ReasonEmptyResponse
	case errors.Is(err, context.DeadlineExceeded), errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonProviderError
	}
}
