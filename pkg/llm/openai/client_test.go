package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewise/maestro/pkg/interfaces"
	"github.com/pipewise/maestro/pkg/llm/openai"
	"github.com/pipewise/maestro/pkg/resilience"
	"github.com/pipewise/maestro/pkg/retry"
)

func completionResponse(content string) gopenai.ChatCompletionResponse {
	return gopenai.ChatCompletionResponse{
		Choices: []gopenai.ChatCompletionChoice{
			{
				Message: gopenai.ChatCompletionMessage{
					Role:    "assistant",
					Content: content,
				},
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, options ...openai.Option) *openai.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := openai.NewClient("test-key", options...)
	config := gopenai.DefaultConfig("test-key")
	config.BaseURL = server.URL
	client.SetHTTPConfig(config)
	return client
}

func TestGenerate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4", reqBody["model"])

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(completionResponse("test response")))
	}, openai.WithModel("gpt-4"))

	resp, err := client.Generate(context.Background(), "test prompt")
	require.NoError(t, err)
	assert.Equal(t, "test response", resp)
}

func TestGenerateSendsSystemMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var reqBody gopenai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))

		require.Len(t, reqBody.Messages, 2)
		assert.Equal(t, "system", reqBody.Messages[0].Role)
		assert.Equal(t, "You are terse.", reqBody.Messages[0].Content)
		assert.Equal(t, "user", reqBody.Messages[1].Role)
		assert.Equal(t, "test prompt", reqBody.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(completionResponse("ok")))
	})

	_, err := client.Generate(context.Background(), "test prompt",
		interfaces.WithSystemMessage("You are terse."))
	require.NoError(t, err)
}

func TestGenerateClassifiesAPIFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	})

	_, err := client.Generate(context.Background(), "test prompt")
	require.Error(t, err)
	assert.Equal(t, resilience.KindExternalService, resilience.KindOf(err))
	assert.True(t, resilience.IsRetryable(err))
}

func TestGenerateRejectsEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(gopenai.ChatCompletionResponse{}))
	})

	_, err := client.Generate(context.Background(), "test prompt")
	require.Error(t, err)
	assert.Equal(t, resilience.KindExternalService, resilience.KindOf(err))
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(completionResponse("recovered")))
	}, openai.WithRetry(
		retry.WithInitialInterval(time.Millisecond),
		retry.WithMaxInterval(2*time.Millisecond),
		retry.WithMaxAttempts(3),
	))

	resp, err := client.Generate(context.Background(), "test prompt")
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGenerateTripsCircuitBreaker(t *testing.T) {
	var calls int32
	rc := resilience.NewContext(resilience.WithBreakerConfig(resilience.BreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
	}))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}, openai.WithResilience(rc))

	_, err := client.Generate(context.Background(), "test prompt")
	require.Error(t, err)
	_, err = client.Generate(context.Background(), "test prompt")
	require.Error(t, err)

	_, err = client.Generate(context.Background(), "test prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "open breaker must not reach the API")
}

func TestName(t *testing.T) {
	client := openai.NewClient("test-key")
	assert.Equal(t, "openai", client.Name())
	assert.Equal(t, "openai(gpt-4o-mini)", client.String())
}
