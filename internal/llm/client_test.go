package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "test-key", "test-model", WithLogger(quietLogger()))
	require.NoError(t, err)
	return c
}

func TestGenerateReturnsText(t *testing.T) {
	var got messagesRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"content":[{"type":"text","text":"{\"names\":"},{"type":"text","text":"[\"a\",\"b\",\"c\"]}"}],"stop_reason":"end_turn"}`)
	})

	text, err := c.Generate(context.Background(), action.CategoryRename, map[string]any{"categoryTitle": "Rivers"}, Hard)
	require.NoError(t, err)
	assert.Equal(t, `{"names":["a","b","c"]}`, text)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "Rivers")
	assert.NotEmpty(t, got.System)
}

func TestGenerateUnknownAction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.Generate(context.Background(), action.ID("bogus"), nil, Normal)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestGenerateRateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.Generate(context.Background(), action.GameTitle, nil, Normal)
	require.ErrorIs(t, err, ErrRateLimited)

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 17*time.Second, rl.RetryAfter)
	assert.Equal(t, "Too many requests. Please wait 17 seconds and try again.", rl.Error())
}

func TestGenerateServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"type":"api_error","message":"overloaded"}}`)
	})
	_, err := c.Generate(context.Background(), action.GameTitle, nil, Normal)

	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, "overloaded", se.Message)
}

func TestParseDifficulty(t *testing.T) {
	for in, want := range map[string]Difficulty{"": Normal, "easy": Easy, " HARD ": Hard, "normal": Normal} {
		got, err := ParseDifficulty(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseDifficulty("brutal")
	assert.Error(t, err)
}
