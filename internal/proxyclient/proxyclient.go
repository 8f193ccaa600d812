// Package proxyclient calls a running server's /api/generate endpoint.
package proxyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/llm"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

type generateRequest struct {
	PromptType string         `json:"promptType"`
	Context    map[string]any `json:"context"`
	Difficulty llm.Difficulty `json:"difficulty,omitempty"`
}

type generateResponse struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// Generate returns the raw model text for id. Error responses map back onto
// the llm error types.
func (c *Client) Generate(ctx context.Context, id action.ID, input map[string]any, d llm.Difficulty) (string, error) {
	if input == nil {
		input = map[string]any{}
	}
	body, err := json.Marshal(generateRequest{PromptType: string(id), Context: input, Difficulty: d})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling generate: %w", err)
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&out); err != nil {
		return "", &llm.ServiceError{Status: resp.StatusCode, Message: fmt.Sprintf("unreadable response (status %d)", resp.StatusCode)}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return out.Result, nil
	case http.StatusTooManyRequests:
		retry := time.Minute
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			retry = time.Duration(secs) * time.Second
		}
		return "", &llm.RateLimitError{RetryAfter: retry}
	case http.StatusBadRequest:
		return "", fmt.Errorf("%w: %s", llm.ErrUnknownAction, out.Error)
	default:
		return "", &llm.ServiceError{Status: resp.StatusCode, Message: out.Error}
	}
}
