// Package llm talks to the third-party model API on behalf of the editor.
// Requests are built from an embedded prompt catalogue keyed by action.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
)

// maxResponseSize limits the upstream response body.
const maxResponseSize = 2 * 1024 * 1024

const anthropicVersion = "2023-06-01"

// Client sends generation requests to an Anthropic-compatible Messages API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     *slog.Logger
	prompts    *Catalogue
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) { client.httpClient = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) { client.logger = logger }
}

func WithMaxTokens(n int) Option {
	return func(client *Client) {
		if n > 0 {
			client.maxTokens = n
		}
	}
}

// NewClient builds a client. An empty baseURL points at the public API.
func NewClient(baseURL, apiKey, model string, opts ...Option) (*Client, error) {
	prompts, err := LoadCatalogue()
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		maxTokens:  2048,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     slog.Default(),
		prompts:    prompts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate asks the model for id's payload and returns the raw text it
// produced. The text is not parsed here.
func (c *Client) Generate(ctx context.Context, id action.ID, input map[string]any, d Difficulty) (string, error) {
	if !id.Valid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, id)
	}
	system, user, err := c.prompts.Build(id, input, d)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	requestID := uuid.NewString()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("anthropic-version", anthropicVersion)
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		c.logger.Warn("llm request failed", "request_id", requestID, "action", id, "error", err)
		return "", &ServiceError{Status: http.StatusBadGateway, Message: "The AI service could not be reached."}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", &ServiceError{Status: http.StatusBadGateway, Message: "The AI service response could not be read."}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("llm api error",
			"request_id", requestID,
			"action", id,
			"status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", classifyHTTPError(resp, respBody)
	}

	var out messagesResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &ServiceError{Status: http.StatusBadGateway, Message: "The AI service returned an unreadable response."}
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	c.logger.Info("llm request completed",
		"request_id", requestID,
		"action", id,
		"difficulty", d,
		"input_tokens", out.Usage.InputTokens,
		"output_tokens", out.Usage.OutputTokens,
		"stop_reason", out.StopReason,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text.String(), nil
}

// classifyHTTPError maps an upstream failure to the error taxonomy.
func classifyHTTPError(resp *http.Response, body []byte) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		retry := 60 * time.Second
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			retry = time.Duration(secs) * time.Second
		}
		return &RateLimitError{RetryAfter: retry}
	}

	msg := fmt.Sprintf("AI service error (status %d)", resp.StatusCode)
	var ae apiError
	if json.Unmarshal(body, &ae) == nil && ae.Error.Message != "" {
		msg = ae.Error.Message
	}
	return &ServiceError{Status: resp.StatusCode, Message: msg}
}
