package client_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-relay-be/internal/dto"
	"chat-relay-be/pkg/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubBackend(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
}

func collectDeltas(t *testing.T, backend *httptest.Server) ([]string, error) {
	t.Helper()
	api := client.NewAPIClient(backend.URL)
	var deltas []string
	err := api.StreamChatCompletion(context.Background(), "tok", &dto.ChatCompletionRequest{
		Messages: []dto.ChatMessage{{Role: "user", Content: "hi"}},
	}, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	return deltas, err
}

func TestAPIClient_StreamDecodesDeltas(t *testing.T) {
	backend := stubBackend(t, http.StatusOK,
		"data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n"+
			"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n"+
			"data: [DONE]\n\n"+
			"data: {\"choices\":[{\"delta\":{\"content\":\"after done\"}}]}\n\n")
	defer backend.Close()

	deltas, err := collectDeltas(t, backend)
	require.NoError(t, err)
	// Nothing past the DONE sentinel is delivered.
	assert.Equal(t, []string{"hel", "lo"}, deltas)
}

func TestAPIClient_StreamSurfacesInlineErrorFrame(t *testing.T) {
	backend := stubBackend(t, http.StatusOK,
		"data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n"+
			"data: {\"error\":\"upstream API returned 500\"}\n\n")
	defer backend.Close()

	deltas, err := collectDeltas(t, backend)
	assert.Equal(t, []string{"partial"}, deltas)

	var upstreamErr *client.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, "upstream API returned 500", upstreamErr.Message)
}

func TestAPIClient_StreamPassesPlainTextThrough(t *testing.T) {
	backend := stubBackend(t, http.StatusOK, "data: just words\n\ndata: [DONE]\n\n")
	defer backend.Close()

	deltas, err := collectDeltas(t, backend)
	require.NoError(t, err)
	assert.Equal(t, []string{"just words"}, deltas)
}

func TestAPIClient_NonOKStatusIsAnError(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid username or password"}`)
	}))
	defer backend.Close()

	api := client.NewAPIClient(backend.URL)
	err := api.StreamChatCompletion(context.Background(), "tok", &dto.ChatCompletionRequest{
		Messages: []dto.ChatMessage{{Role: "user", Content: "hi"}},
	}, func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid username or password")
}
