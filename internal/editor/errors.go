package editor

import (
	"errors"

	"github.com/Astrocyte74/jeopardy-sub000/internal/aiparse"
	"github.com/Astrocyte74/jeopardy-sub000/internal/llm"
)

var (
	ErrNoDocument       = errors.New("no game is loaded")
	ErrUndoExpired      = errors.New("undo is no longer available")
	ErrInvalidSelection = errors.New("selection does not address the action's target")
	ErrNoConfirmer      = errors.New("preview mode needs a confirmer")
)

// ErrorCode maps err to its user-facing taxonomy code.
func ErrorCode(err error) string {
	var se *llm.ServiceError
	switch {
	case err == nil:
		return ""
	case aiparse.KindOf(err) != "":
		return string(aiparse.KindOf(err))
	case errors.Is(err, ErrNoDocument):
		return "NO_DOCUMENT"
	case errors.Is(err, ErrUndoExpired):
		return "UNDO_EXPIRED"
	case errors.Is(err, ErrInvalidSelection):
		return "INVALID_SELECTION"
	case errors.Is(err, llm.ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, llm.ErrUnknownAction):
		return "UNKNOWN_ACTION"
	case errors.As(err, &se):
		return "SERVICE_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
