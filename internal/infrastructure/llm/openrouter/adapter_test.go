package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webchat-bridge/internal/infrastructure/logger"
)

func completionServer(t *testing.T, handler func(req openai.ChatCompletionRequest) openai.ChatCompletionResponse) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handler(req))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestAdapter(baseURL, system string) *OpenRouterAdapter {
	cfg := DefaultConfig("sk-test", "test-model")
	cfg.BaseURL = baseURL
	cfg.SystemPrompt = system
	cfg.Logger = logger.Nop()
	return NewOpenRouterAdapter(cfg)
}

func TestOpenRouterAdapter_Query(t *testing.T) {
	var got openai.ChatCompletionRequest
	server := completionServer(t, func(req openai.ChatCompletionRequest) openai.ChatCompletionResponse {
		got = req
		return openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "Hello"}},
			},
		}
	})

	answer, err := newTestAdapter(server.URL, "be brief").Query(context.Background(), "Say hello")
	require.NoError(t, err)

	assert.Equal(t, "Hello", answer)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "Say hello", got.Messages[1].Content)
}

func TestOpenRouterAdapter_NoChoices(t *testing.T) {
	server := completionServer(t, func(req openai.ChatCompletionRequest) openai.ChatCompletionResponse {
		return openai.ChatCompletionResponse{}
	})

	answer, err := newTestAdapter(server.URL, "").Query(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "", answer)
}

func TestOpenRouterAdapter_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"auth"}}`))
	}))
	defer server.Close()

	_, err := newTestAdapter(server.URL, "").Query(context.Background(), "hi")
	require.Error(t, err)

	var apiErr *openai.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestOpenRouterAdapter_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestAdapter(server.URL, "").Query(ctx, "hi")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBuildMessages(t *testing.T) {
	assert.Len(t, buildMessages("", "q"), 1)
	msgs := buildMessages("sys", "q")
	require.Len(t, msgs, 2)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)
}
