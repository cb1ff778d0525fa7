package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/ignite/cancellation-letters/internal/config"
	"github.com/ignite/cancellation-letters/internal/pkg/httpretry"
	"github.com/ignite/cancellation-letters/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrompt = prompt.Prompt{System: "system text", User: "user text"}

func openAIAgainst(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.LLMConfig{APIKey: "sk-test", Model: "gpt-test", BaseURL: srv.URL + "/", MaxTokens: 500}
	doer := httpretry.NewRetryClient(srv.Client(), 0)
	return NewOpenAIProvider(cfg, doer)
}

func TestOpenAIComplete(t *testing.T) {
	var captured openAIRequest
	p := openAIAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Dear team,\nplease cancel.  "},"finish_reason":"stop"}]}`))
	})

	out, err := p.Complete(context.Background(), testPrompt)
	require.NoError(t, err)
	assert.Equal(t, "Dear team,\nplease cancel.", out)

	assert.Equal(t, "gpt-test", captured.Model)
	assert.Equal(t, 500, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, openAIMessage{Role: "system", Content: "system text"}, captured.Messages[0])
	assert.Equal(t, openAIMessage{Role: "user", Content: "user text"}, captured.Messages[1])
}

func TestOpenAIAPIError(t *testing.T) {
	p := openAIAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	_, err := p.Complete(context.Background(), testPrompt)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "bad key", apiErr.Message)
	assert.Contains(t, err.Error(), "status 401")
}

func TestOpenAIEmptyResponse(t *testing.T) {
	tests := map[string]string{
		"no choices":    `{"choices":[]}`,
		"blank content": `{"choices":[{"message":{"role":"assistant","content":"   "}}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			p := openAIAgainst(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := p.Complete(context.Background(), testPrompt)
			assert.ErrorIs(t, err, ErrEmptyResponse)
		})
	}
}

func TestOpenAIMalformedResponse(t *testing.T) {
	p := openAIAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := p.Complete(context.Background(), testPrompt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestOpenAIRespectsContext(t *testing.T) {
	p := openAIAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Complete(ctx, testPrompt)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenAIWithoutKey(t *testing.T) {
	p := NewOpenAIProvider(config.LLMConfig{}, http.DefaultClient)
	_, err := p.Complete(context.Background(), testPrompt)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestBedrockComplete(t *testing.T) {
	inv := &fakeInvoker{body: `{"content":[{"type":"text","text":"Dear team,"},{"type":"text","text":" please cancel."}],"stop_reason":"end_turn"}`}
	p := NewBedrockProvider(config.LLMConfig{Model: "anthropic.test", MaxTokens: 800}, inv)

	out, err := p.Complete(context.Background(), testPrompt)
	require.NoError(t, err)
	assert.Equal(t, "Dear team, please cancel.", out)

	require.NotNil(t, inv.input)
	assert.Equal(t, "anthropic.test", aws.ToString(inv.input.ModelId))

	var sent bedrockRequest
	require.NoError(t, json.Unmarshal(inv.input.Body, &sent))
	assert.Equal(t, "bedrock-2023-05-31", sent.AnthropicVersion)
	assert.Equal(t, 800, sent.MaxTokens)
	assert.Equal(t, "system text", sent.System)
	require.Len(t, sent.Messages, 1)
	assert.Equal(t, "user text", sent.Messages[0].Content[0].Text)
}

func TestBedrockErrors(t *testing.T) {
	p := NewBedrockProvider(config.LLMConfig{}, &fakeInvoker{err: errors.New("throttled")})
	_, err := p.Complete(context.Background(), testPrompt)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "bedrock", apiErr.Provider)

	p = NewBedrockProvider(config.LLMConfig{}, &fakeInvoker{body: `{"content":[]}`})
	_, err = p.Complete(context.Background(), testPrompt)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewProviderSelection(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: config.ProviderNone})
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = New(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI})
	assert.ErrorIs(t, err, ErrNoCredentials)

	p, err := New(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI, APIKey: "sk", BaseURL: "http://localhost"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = New(context.Background(), config.LLMConfig{Provider: "gemini"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCredentials)
}
