// Package relay forwards chat completion payloads to an OpenAI-compatible
// upstream and streams the response body back byte-for-byte. Upstream
// failures never surface as transport errors to the downstream caller; they
// are translated into inline event-stream error frames instead.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"chat-relay-be/internal/config"
	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/pkg/logger"
)

const connectTimeout = 10 * time.Second

type flusher interface {
	Flush() error
}

type Relay struct {
	baseURL      string
	apiKey       string
	defaultModel string
	client       *http.Client
	logger       logger.ILogger
}

func New(cfg config.UpstreamConfig, log logger.ILogger) *Relay {
	return &Relay{
		baseURL:      strings.TrimRight(cfg.APIBase, "/"),
		apiKey:       cfg.APIKey,
		defaultModel: cfg.DefaultModel,
		// Connect-phase timeout only. Generation latency is unbounded, so
		// the overall request deliberately has no deadline.
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
		logger: log,
	}
}

// Stream posts the payload to the upstream chat completion endpoint and
// copies the response body to w without buffering. A non-2xx upstream status
// or a network failure ends the stream with a single inline error frame; the
// returned error reports downstream write failures only.
func (r *Relay) Stream(ctx context.Context, payload *dto.ChatCompletionRequest, w io.Writer) error {
	payload.Stream = true
	if payload.Model == "" {
		payload.Model = r.defaultModel
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return r.writeErrorFrame(w, fmt.Sprintf("failed to encode payload: %v", err))
	}

	url := r.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return r.writeErrorFrame(w, fmt.Sprintf("failed to reach upstream API: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		message := fmt.Sprintf("failed to reach upstream API: %v", err)
		r.logger.Error("relay", message, nil)
		return r.writeErrorFrame(w, message)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := fmt.Sprintf("upstream API returned %d", resp.StatusCode)
		r.logger.Error("relay", message, map[string]interface{}{"status": resp.StatusCode})
		return r.writeErrorFrame(w, message)
	}

	return r.copyStream(w, resp.Body)
}

func (r *Relay) copyStream(w io.Writer, body io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if ferr := flush(w); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// Mid-stream upstream failure; the frames already sent stand.
			r.logger.Error("relay", "upstream stream interrupted", map[string]interface{}{"error": err.Error()})
			return r.writeErrorFrame(w, fmt.Sprintf("upstream stream interrupted: %v", err))
		}
	}
}

func (r *Relay) writeErrorFrame(w io.Writer, message string) error {
	payload, err := json.Marshal(dto.ErrorResponse{Error: message})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return flush(w)
}

func flush(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
