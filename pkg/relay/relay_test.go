package relay_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-relay-be/internal/config"
	"chat-relay-be/internal/constant"
	"chat-relay-be/internal/dto"
	"chat-relay-be/pkg/relay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func newRelay(baseURL string) *relay.Relay {
	return relay.New(config.UpstreamConfig{
		APIBase:      baseURL,
		APIKey:       "test-key",
		DefaultModel: "gpt-3.5-turbo",
	}, nopLogger{})
}

func userMessage(content string) []dto.ChatMessage {
	return []dto.ChatMessage{{Role: constant.ChatMessageRoleUser, Content: content}}
}

func TestRelay_StreamPassesBytesThrough(t *testing.T) {
	upstreamBody := "data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
		"data: [DONE]\n\n"

	var captured dto.ChatCompletionRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, upstreamBody)
	}))
	defer upstream.Close()

	var out bytes.Buffer
	err := newRelay(upstream.URL).Stream(context.Background(), &dto.ChatCompletionRequest{
		Messages: userMessage("hi"),
	}, &out)
	require.NoError(t, err)

	// Body is forwarded untouched, no reframing.
	assert.Equal(t, upstreamBody, out.String())
	// Streaming is forced and the model defaulted on the way out.
	assert.True(t, captured.Stream)
	assert.Equal(t, "gpt-3.5-turbo", captured.Model)
}

func TestRelay_StreamKeepsExplicitModel(t *testing.T) {
	var captured dto.ChatCompletionRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer upstream.Close()

	var out bytes.Buffer
	err := newRelay(upstream.URL).Stream(context.Background(), &dto.ChatCompletionRequest{
		Messages: userMessage("hi"),
		Model:    "gpt-4o",
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", captured.Model)
}

func TestRelay_UpstreamErrorStatusBecomesErrorFrame(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	var out bytes.Buffer
	err := newRelay(upstream.URL).Stream(context.Background(), &dto.ChatCompletionRequest{
		Messages: userMessage("hi"),
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, "data: {\"error\":\"upstream API returned 429\"}\n\n", out.String())
}

func TestRelay_UnreachableUpstreamBecomesErrorFrame(t *testing.T) {
	// Reserve a port and close it so nothing is listening there.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	var out bytes.Buffer
	err := newRelay(upstream.URL).Stream(context.Background(), &dto.ChatCompletionRequest{
		Messages: userMessage("hi"),
	}, &out)
	require.NoError(t, err)

	var frame dto.ErrorResponse
	line := out.String()
	require.True(t, len(line) > len("data: "), "expected an error frame, got %q", line)
	require.NoError(t, json.Unmarshal([]byte(line[len("data: "):]), &frame))
	assert.Contains(t, frame.Error, "failed to reach upstream API")
}
