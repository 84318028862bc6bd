package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// errorServer answers every request with status and a JSON body, counting hits.
func errorServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func requireModelError(t *testing.T, err error) *ModelError {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelCallFailed)
	var merr *ModelError
	require.True(t, errors.As(err, &merr), "got %T", err)
	return merr
}

func TestGeminiProvider_StatusCode(t *testing.T) {
	srv, _ := errorServer(t, http.StatusTooManyRequests,
		`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	require.NoError(t, err)
	p := &GeminiProvider{client: client, model: DefaultGeminiModel}

	_, err = p.Complete(context.Background(), "heal #a")
	merr := requireModelError(t, err)
	assert.Equal(t, "gemini", merr.Provider)
	assert.Equal(t, http.StatusTooManyRequests, merr.StatusCode)
}

func TestClaudeProvider_StatusCode(t *testing.T) {
	srv, hits := errorServer(t, http.StatusTooManyRequests,
		`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	t.Setenv("ANTHROPIC_BASE_URL", srv.URL)

	p, err := NewClaudeProvider("test-key", "")
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "heal #a")
	merr := requireModelError(t, err)
	assert.Equal(t, "claude", merr.Provider)
	assert.Equal(t, http.StatusTooManyRequests, merr.StatusCode)
	assert.Equal(t, int32(1), hits.Load(), "exactly one request, no retry")
}

func newTestOpenAI(baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = baseURL + "/v1"
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), model: "gpt-4o"}
}

func TestOpenAIProvider_StatusCode(t *testing.T) {
	srv, hits := errorServer(t, http.StatusUnauthorized,
		`{"error":{"message":"bad key","type":"invalid_request_error"}}`)

	_, err := newTestOpenAI(srv.URL).Complete(context.Background(), "heal #a")
	merr := requireModelError(t, err)
	assert.Equal(t, "openai", merr.Provider)
	assert.Equal(t, http.StatusUnauthorized, merr.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestOpenAIProvider_EmptyReply(t *testing.T) {
	srv, _ := errorServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`)

	_, err := newTestOpenAI(srv.URL).Complete(context.Background(), "heal #a")
	merr := requireModelError(t, err)
	assert.ErrorIs(t, merr, ErrEmptyResponse)
	assert.Zero(t, merr.StatusCode)
}
