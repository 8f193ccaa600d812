package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Astrocyte74/jeopardy-sub000/internal/aiparse"
	"github.com/Astrocyte74/jeopardy-sub000/internal/editor"
	"github.com/Astrocyte74/jeopardy-sub000/internal/library"
	"github.com/Astrocyte74/jeopardy-sub000/internal/llm"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeEditorError maps the editor error taxonomy onto HTTP statuses.
func writeEditorError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error(), Code: editor.ErrorCode(err)}
	status := http.StatusInternalServerError

	var pe *aiparse.Error
	var se *llm.ServiceError
	var rl *llm.RateLimitError
	switch {
	case errors.As(err, &pe):
		status = http.StatusUnprocessableEntity
		resp.Detail = pe.Raw
	case errors.Is(err, editor.ErrNoDocument):
		status = http.StatusConflict
	case errors.Is(err, editor.ErrUndoExpired):
		status = http.StatusGone
	case errors.Is(err, editor.ErrInvalidSelection), errors.Is(err, llm.ErrUnknownAction):
		status = http.StatusBadRequest
	case errors.As(err, &rl):
		w.Header().Set("Retry-After", retryAfterSeconds(rl.RetryAfter))
		status = http.StatusTooManyRequests
	case errors.As(err, &se):
		status = http.StatusBadGateway
	case errors.Is(err, library.ErrNotFound):
		status = http.StatusNotFound
		resp.Code = "NOT_FOUND"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
