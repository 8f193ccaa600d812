package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/editor"
	"github.com/Astrocyte74/jeopardy-sub000/internal/llm"
)

type GenerateRequest struct {
	PromptType string         `json:"promptType"`
	Context    map[string]any `json:"context"`
	Difficulty string         `json:"difficulty,omitempty" enum:"easy,normal,hard"`
}

type GenerateResponse struct {
	Result string `json:"result"`
}

func handleGenerate(logger *slog.Logger, gen editor.Generator, m *metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}

		id, err := action.Parse(req.PromptType)
		if err != nil {
			m.generate.WithLabelValues("unknown", "bad_request").Inc()
			writeError(w, http.StatusBadRequest, "Unknown prompt type")
			return
		}
		d, err := llm.ParseDifficulty(req.Difficulty)
		if err != nil {
			m.generate.WithLabelValues(string(id), "bad_request").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Context == nil {
			req.Context = map[string]any{}
		}

		raw, err := gen.Generate(r.Context(), id, req.Context, d)
		if err != nil {
			var rl *llm.RateLimitError
			var se *llm.ServiceError
			switch {
			case errors.As(err, &rl):
				m.generate.WithLabelValues(string(id), "rate_limited").Inc()
				w.Header().Set("Retry-After", retryAfterSeconds(rl.RetryAfter))
				writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: rl.Error(), Code: "RATE_LIMITED"})
			case errors.Is(err, llm.ErrUnknownAction):
				m.generate.WithLabelValues(string(id), "bad_request").Inc()
				writeError(w, http.StatusBadRequest, "Unknown prompt type")
			case errors.As(err, &se):
				m.generate.WithLabelValues(string(id), "upstream_error").Inc()
				writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: se.Message, Code: "SERVICE_ERROR"})
			default:
				m.generate.WithLabelValues(string(id), "error").Inc()
				logger.Error("generate failed", "action", id, "error", err)
				writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "The AI service failed to respond.", Code: "SERVICE_ERROR"})
			}
			return
		}

		m.generate.WithLabelValues(string(id), "ok").Inc()
		writeJSON(w, http.StatusOK, GenerateResponse{Result: raw})
	}
}

type ActionInfo struct {
	ID          action.ID `json:"id"`
	Label       string    `json:"label"`
	Level       string    `json:"level"`
	Destructive bool      `json:"destructive,omitempty"`
	Advisory    bool      `json:"advisory,omitempty"`
}

func handleListActions() http.HandlerFunc {
	items := make([]ActionInfo, 0, len(action.All))
	for _, id := range action.All {
		items = append(items, ActionInfo{
			ID:          id,
			Label:       id.Label(),
			Level:       id.Level().String(),
			Destructive: id.Destructive(),
			Advisory:    id.Advisory(),
		})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, items)
	}
}
