// Package llm drafts cancellation letters with a hosted generative model.
// Providers are tried by the compose service first; any error they return
// sends the caller down the template fallback path.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/ignite/cancellation-letters/internal/config"
	"github.com/ignite/cancellation-letters/internal/pkg/httpretry"
	"github.com/ignite/cancellation-letters/internal/prompt"
)

var (
	// ErrNoCredentials means no provider is usable with the current config.
	ErrNoCredentials = errors.New("llm: no credentials configured")
	// ErrEmptyResponse means the model answered without any text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// APIError is a non-success answer from a provider API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Provider completes a prompt into letter text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, p prompt.Prompt) (string, error)
}

// New builds the provider selected by cfg.Provider. It returns
// ErrNoCredentials when the provider is disabled or lacks its API key.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderNone, "":
		return nil, ErrNoCredentials

	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, ErrNoCredentials
		}
		doer := httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout() + 5*time.Second}, cfg.MaxRetries)
		return NewOpenAIProvider(cfg, doer), nil

	case config.ProviderBedrock:
		opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
		if cfg.AccessKey != "" && cfg.SecretKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return NewBedrockProvider(cfg, bedrockruntime.NewFromConfig(awsCfg)), nil

	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
