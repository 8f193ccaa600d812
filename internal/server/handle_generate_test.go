package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/llm"
	"github.com/Astrocyte74/jeopardy-sub000/internal/ratelimit"
)

func TestGenerateOK(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gen.raw[action.CategoryRename] = `{"names":["a","b","c"]}`

	w := env.do(t, http.MethodPost, "/api/generate", GenerateRequest{
		PromptType: "category-rename",
		Context:    map[string]any{"categoryTitle": "Rivers"},
		Difficulty: "hard",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[GenerateResponse](t, w)
	if resp.Result != `{"names":["a","b","c"]}` {
		t.Errorf("unexpected result %q", resp.Result)
	}
}

func TestGenerateRejectsUnknownPromptType(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodPost, "/api/generate", GenerateRequest{PromptType: "write-my-essay"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env.gen.calls != 0 {
		t.Errorf("generator should not be called for unknown prompt types")
	}
}

func TestGenerateRejectsBadDifficulty(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodPost, "/api/generate", GenerateRequest{PromptType: "game-title", Difficulty: "brutal"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGenerateUpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"rate limited upstream", &llm.RateLimitError{RetryAfter: 4 * time.Second}, http.StatusTooManyRequests, "Too many requests. Please wait 4 seconds and try again."},
		{"service error", &llm.ServiceError{Status: 500, Message: "model overloaded"}, http.StatusBadGateway, "model overloaded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.gen.err = tt.err
			w := env.do(t, http.MethodPost, "/api/generate", GenerateRequest{PromptType: "game-title"})
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := decode[ErrorResponse](t, w).Error; got != tt.wantMsg {
				t.Errorf("error = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestGenerateRateLimitPerClient(t *testing.T) {
	env := newTestEnv(t, ratelimit.NewWindow(2, time.Minute))
	env.gen.raw[action.GameTitle] = "{}"

	for i := range 2 {
		w := env.do(t, http.MethodPost, "/api/generate", GenerateRequest{PromptType: "game-title"})
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := env.do(t, http.MethodPost, "/api/generate", GenerateRequest{PromptType: "game-title"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if env.gen.calls != 2 {
		t.Errorf("expected 2 upstream calls, got %d", env.gen.calls)
	}
}

func TestListActions(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/api/actions", nil)
	items := decode[[]ActionInfo](t, w)
	if len(items) != len(action.All) {
		t.Fatalf("expected %d actions, got %d", len(action.All), len(items))
	}
	if items[0].ID != action.GameTitle || items[0].Level != "game" {
		t.Errorf("unexpected first action %+v", items[0])
	}
}
