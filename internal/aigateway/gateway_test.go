// internal/aigateway/gateway_test.go
package aigateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wateryu2030/yykhotdog-sub001/internal/common/config"
	apperrors "github.com/wateryu2030/yykhotdog-sub001/internal/common/errors"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/logger"
)

func openAIServer(t *testing.T, hits *int32, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

func providerCfg(name, url string, enabled bool) config.ProviderConfig {
	return config.ProviderConfig{
		Name:      name,
		Enabled:   enabled,
		APIKey:    "test-key",
		BaseURL:   url,
		Model:     "test-model",
		Format:    "openai",
		TimeoutMs: 2000,
	}
}

func simpleRequest() *CompletionRequest {
	return &CompletionRequest{
		Messages:    []Message{{Role: "user", Content: "evaluate this location"}},
		Temperature: 0.7,
		MaxTokens:   256,
	}
}

func TestGateway_FailoverStopsAtFirstSuccess(t *testing.T) {
	var hitsA, hitsB, hitsC int32
	serverA := openAIServer(t, &hitsA, http.StatusInternalServerError, "")
	defer serverA.Close()
	serverB := openAIServer(t, &hitsB, http.StatusOK, "looks promising")
	defer serverB.Close()
	serverC := openAIServer(t, &hitsC, http.StatusOK, "never seen")
	defer serverC.Close()

	gw := New([]config.ProviderConfig{
		providerCfg("alpha", serverA.URL, true),
		providerCfg("beta", serverB.URL, true),
		providerCfg("gamma", serverC.URL, true),
	}, logger.NewTestLogger(t))

	completion, err := gw.Complete(context.Background(), simpleRequest())
	require.NoError(t, err)
	assert.Equal(t, "beta", completion.ProviderUsed)
	assert.Equal(t, "looks promising", completion.Content)
	assert.Equal(t, 15, completion.Usage.TotalTokens)

	assert.EqualValues(t, 1, atomic.LoadInt32(&hitsA))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hitsB))
	assert.EqualValues(t, 0, atomic.LoadInt32(&hitsC), "providers after the first success must not be invoked")
}

func TestGateway_DisabledProvidersSkippedWithoutNetworkCalls(t *testing.T) {
	var hits int32
	server := openAIServer(t, &hits, http.StatusOK, "unused")
	defer server.Close()

	gw := New([]config.ProviderConfig{
		providerCfg("alpha", server.URL, false),
		providerCfg("beta", server.URL, false),
	}, logger.NewTestLogger(t))

	assert.False(t, gw.HasAvailableProvider())

	_, err := gw.Complete(context.Background(), simpleRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAllProvidersExhausted))

	var exhausted *apperrors.ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Empty(t, exhausted.Attempts, "disabled providers must not record attempts")
	assert.EqualValues(t, 0, atomic.LoadInt32(&hits))
}

func TestGateway_ExhaustionCarriesOrderedAttempts(t *testing.T) {
	var hitsA, hitsB int32
	serverA := openAIServer(t, &hitsA, http.StatusBadGateway, "")
	defer serverA.Close()
	serverB := openAIServer(t, &hitsB, http.StatusInternalServerError, "")
	defer serverB.Close()

	gw := New([]config.ProviderConfig{
		providerCfg("alpha", serverA.URL, true),
		providerCfg("beta", serverB.URL, true),
	}, logger.NewTestLogger(t))

	_, err := gw.Complete(context.Background(), simpleRequest())
	require.Error(t, err)

	var exhausted *apperrors.ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	require.Len(t, exhausted.Attempts, 2)
	assert.Equal(t, "alpha", exhausted.Attempts[0].Provider)
	assert.Equal(t, "beta", exhausted.Attempts[1].Provider)
}

func TestGateway_AuthFailureIsSkippedNotRetried(t *testing.T) {
	var hitsA, hitsB int32
	serverA := openAIServer(t, &hitsA, http.StatusUnauthorized, "")
	defer serverA.Close()
	serverB := openAIServer(t, &hitsB, http.StatusOK, "fallback answer")
	defer serverB.Close()

	gw := New([]config.ProviderConfig{
		providerCfg("alpha", serverA.URL, true),
		providerCfg("beta", serverB.URL, true),
	}, logger.NewTestLogger(t))

	completion, err := gw.Complete(context.Background(), simpleRequest())
	require.NoError(t, err)
	assert.Equal(t, "beta", completion.ProviderUsed)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hitsA), "auth failures get exactly one attempt")
}

func TestGateway_TimeoutMovesToNextProvider(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer slow.Close()

	var hitsB int32
	serverB := openAIServer(t, &hitsB, http.StatusOK, "rescued")
	defer serverB.Close()

	slowCfg := providerCfg("slow", slow.URL, true)
	slowCfg.TimeoutMs = 100

	gw := New([]config.ProviderConfig{
		slowCfg,
		providerCfg("beta", serverB.URL, true),
	}, logger.NewTestLogger(t))

	start := time.Now()
	completion, err := gw.Complete(context.Background(), simpleRequest())
	require.NoError(t, err)
	assert.Equal(t, "beta", completion.ProviderUsed)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestGateway_EmptyContentTreatedAsFailure(t *testing.T) {
	var hitsA, hitsB int32
	serverA := openAIServer(t, &hitsA, http.StatusOK, "   ")
	defer serverA.Close()
	serverB := openAIServer(t, &hitsB, http.StatusOK, "real content")
	defer serverB.Close()

	gw := New([]config.ProviderConfig{
		providerCfg("alpha", serverA.URL, true),
		providerCfg("beta", serverB.URL, true),
	}, logger.NewTestLogger(t))

	completion, err := gw.Complete(context.Background(), simpleRequest())
	require.NoError(t, err)
	assert.Equal(t, "beta", completion.ProviderUsed)
}

func TestGateway_ProviderOrderOverride(t *testing.T) {
	var hitsA, hitsB int32
	serverA := openAIServer(t, &hitsA, http.StatusOK, "from alpha")
	defer serverA.Close()
	serverB := openAIServer(t, &hitsB, http.StatusOK, "from beta")
	defer serverB.Close()

	gw := New([]config.ProviderConfig{
		providerCfg("alpha", serverA.URL, true),
		providerCfg("beta", serverB.URL, true),
	}, logger.NewTestLogger(t))

	req := simpleRequest()
	req.ProviderOrder = []string{"beta", "alpha"}

	completion, err := gw.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "beta", completion.ProviderUsed)
	assert.EqualValues(t, 0, atomic.LoadInt32(&hitsA))
}

func TestGateway_RateLimitBumpsThrottle(t *testing.T) {
	var hitsA, hitsB int32
	serverA := openAIServer(t, &hitsA, http.StatusTooManyRequests, "")
	defer serverA.Close()
	serverB := openAIServer(t, &hitsB, http.StatusOK, "ok")
	defer serverB.Close()

	gw := New([]config.ProviderConfig{
		providerCfg("alpha", serverA.URL, true),
		providerCfg("beta", serverB.URL, true),
	}, logger.NewTestLogger(t))

	_, err := gw.Complete(context.Background(), simpleRequest())
	require.NoError(t, err)
	assert.Equal(t, throttleInitial, gw.throttle.current("alpha"))
	assert.Zero(t, gw.throttle.current("beta"))
}

func TestGateway_EmptyRequestRejected(t *testing.T) {
	gw := New(nil, logger.NewTestLogger(t))

	_, err := gw.Complete(context.Background(), &CompletionRequest{})
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeEmptyCompletionRequest, stdErr.Code)
}
