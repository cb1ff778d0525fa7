// Package app wires configuration into the running collaborators shared by
// the HTTP server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/cancellation-letters/internal/compose"
	"github.com/ignite/cancellation-letters/internal/config"
	"github.com/ignite/cancellation-letters/internal/delivery"
	"github.com/ignite/cancellation-letters/internal/llm"
	"github.com/ignite/cancellation-letters/internal/metrics"
	"github.com/ignite/cancellation-letters/internal/pkg/logger"
	"github.com/ignite/cancellation-letters/internal/pkg/ratelimit"
	"github.com/ignite/cancellation-letters/internal/suggest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// App holds the wired collaborators.
type App struct {
	Config    *config.Config
	Redis     *redis.Client
	Metrics   *metrics.Metrics
	Composer  *compose.Service
	Suggester *suggest.Service
	Mailer    *delivery.Mailer
}

// ConfigureLogging applies the log section of cfg to the package logger.
func ConfigureLogging(cfg config.LogConfig) {
	logger.SetLevel(logger.ParseLevel(cfg.Level))
	logger.SetRedactPII(cfg.ShouldRedact())
}

// New builds an App. reg may be nil to skip metric registration. A Redis
// server that cannot be reached is logged and skipped.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New(reg)}

	if cfg.Redis.Enabled {
		a.Redis = connectRedis(ctx, cfg.Redis)
	}

	provider, err := llm.New(ctx, cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrNoCredentials):
		logger.Info("no model credentials configured, letters will use the template", "provider", cfg.LLM.Provider)
		provider = nil
	case err != nil:
		return nil, fmt.Errorf("configuring model provider: %w", err)
	default:
		logger.Info("model provider configured", "provider", provider.Name(), "model", cfg.LLM.Model)
	}

	composeCfg := compose.Config{
		Provider:   provider,
		Metrics:    a.Metrics,
		Timeout:    cfg.LLM.Timeout(),
		DateLayout: cfg.Letter.DateLayout,
	}
	if cfg.RateLimit.Enabled && a.Redis != nil {
		composeCfg.Limiter = ratelimit.New(a.Redis, cfg.RateLimit.RequestsPerMinute, time.Minute)
	}
	a.Composer, err = compose.New(composeCfg)
	if err != nil {
		return nil, fmt.Errorf("configuring composer: %w", err)
	}

	suggestOpts := []suggest.Option{
		suggest.WithMetrics(a.Metrics),
		suggest.WithDefaultLimit(cfg.Suggest.DefaultLimit),
	}
	if a.Redis != nil {
		suggestOpts = append(suggestOpts, suggest.WithCache(a.Redis, cfg.Suggest.CacheTTL()))
	}
	a.Suggester, err = suggest.New(suggestOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading suggestion catalog: %w", err)
	}

	a.Mailer, err = delivery.NewMailer(ctx, cfg.Delivery)
	if err != nil {
		return nil, fmt.Errorf("configuring delivery: %w", err)
	}

	return a, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, continuing without cache and rate limiting", "addr", cfg.Addr, "error", err.Error())
		client.Close()
		return nil
	}

	logger.Info("connected to redis", "addr", cfg.Addr)
	return client
}

// Close releases the Redis connection.
func (a *App) Close() error {
	if a.Redis == nil {
		return nil
	}
	return a.Redis.Close()
}
