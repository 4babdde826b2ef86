// Package llm talks to the OpenAI chat-completions API. The model output is
// treated as untrusted text everywhere downstream; this package only moves
// bytes and classifies failures.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// ErrMissingAPIKey is returned when no API key is configured at call time.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// UpstreamError carries the provider-side failure. Its message must never
// reach an end-user response; callers route it through the fallback responder.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("openai status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("openai request failed (status %d)", e.Status)
}

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options bound a single completion request.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Provider is the reasoning oracle seen by the pipeline: a plain text
// completion over an ordered message sequence.
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

// Config configures the OpenAI client.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// Client implements Provider against the OpenAI chat-completions endpoint
// with bounded retry and exponential backoff.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates an OpenAI client. The model defaults to gpt-4.1 when the
// config leaves it empty; the API key is resolved lazily at call time so a
// missing credential fails the request, not process startup.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = 300 * time.Millisecond
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one chat-completion request and returns the raw assistant
// text. Transport failures and 5xx/429 responses are retried with exponential
// backoff; other statuses fail immediately as *UpstreamError.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	apiKey := c.cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	var lastErr error
	tries := c.cfg.MaxRetries + 1
	for attempt := 0; attempt < tries; attempt++ {
		text, retryable, err := c.send(ctx, apiKey, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
		if attempt < tries-1 {
			select {
			case <-time.After(c.cfg.Backoff * time.Duration(1<<attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", lastErr
}

func (c *Client) send(ctx context.Context, apiKey string, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("send completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, fmt.Errorf("read completion response: %w", err)
	}

	var out chatResponse
	if resp.StatusCode != http.StatusOK {
		msg := ""
		if json.Unmarshal(raw, &out) == nil && out.Error != nil {
			msg = out.Error.Message
		}
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, &UpstreamError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return "", false, fmt.Errorf("parse completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", false, &UpstreamError{Status: resp.StatusCode, Message: "no choices in response"}
	}
	return out.Choices[0].Message.Content, false, nil
}
