// Package client drives the backend HTTP surface on behalf of a UI: auth
// calls, and the streaming chat endpoint with event-stream decoding.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"chat-relay-be/internal/dto"

	"github.com/sashabaranov/go-openai"
)

const doneSentinel = "[DONE]"

// UpstreamError is an inline error frame surfaced by the relay inside an
// otherwise successful stream.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Connect timeout only; a completion stream may stay open for as
		// long as the model keeps generating.
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			},
		},
	}
}

func (c *APIClient) Signup(ctx context.Context, username, password string) (*dto.AuthResponse, error) {
	return c.postAuth(ctx, "/api/v1/auth/signup", username, password)
}

func (c *APIClient) Login(ctx context.Context, username, password string) (*dto.AuthResponse, error) {
	return c.postAuth(ctx, "/api/v1/auth/login", username, password)
}

func (c *APIClient) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/logout", nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout returned %d", resp.StatusCode)
	}
	return nil
}

func (c *APIClient) postAuth(ctx context.Context, path, username, password string) (*dto.AuthResponse, error) {
	body, err := json.Marshal(dto.AuthRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errBody dto.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error == "" {
			errBody.Error = fmt.Sprintf("auth request returned %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%s", errBody.Error)
	}

	var res dto.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

// StreamChatCompletion posts the payload to the chat endpoint and invokes
// onDelta for each assistant content fragment. Inline error frames abort the
// stream with an *UpstreamError; plain-text data frames pass through as-is.
func (c *APIClient) StreamChatCompletion(ctx context.Context, token string, payload *dto.ChatCompletionRequest, onDelta func(delta string) error) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody dto.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error == "" {
			errBody.Error = fmt.Sprintf("chat request returned %d", resp.StatusCode)
		}
		return fmt.Errorf("%s", errBody.Error)
	}

	return decodeStream(resp.Body, onDelta)
}

func decodeStream(body io.Reader, onDelta func(delta string) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == doneSentinel {
			return nil
		}

		var errFrame dto.ErrorResponse
		if err := json.Unmarshal([]byte(data), &errFrame); err == nil && errFrame.Error != "" {
			return &UpstreamError{Message: errFrame.Error}
		}

		var chunk openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Upstream may send plain text chunks; pass them through.
			if err := onDelta(data); err != nil {
				return err
			}
			continue
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if err := onDelta(chunk.Choices[0].Delta.Content); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}
