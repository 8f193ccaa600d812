package server

import (
	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/editor"
	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

type NotificationView struct {
	ID         string `json:"id"`
	Replaces   string `json:"replaces,omitempty"`
	Message    string `json:"message"`
	Kind       string `json:"kind"`
	DurationMs int64  `json:"durationMs"`
	UndoID     string `json:"undoId,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Persistent bool   `json:"persistent,omitempty"`
	Code       string `json:"code,omitempty"`
}

func newNotificationView(n editor.Notification) *NotificationView {
	return &NotificationView{
		ID:         n.ID,
		Replaces:   n.Replaces,
		Message:    n.Message,
		Kind:       string(n.Kind),
		DurationMs: n.Duration.Milliseconds(),
		UndoID:     n.UndoID,
		Detail:     n.Detail,
		Persistent: n.Persistent,
		Code:       n.Code,
	}
}

type PreviewView struct {
	ID     string           `json:"id"`
	Action action.ID        `json:"action"`
	Label  string           `json:"label"`
	Target trivia.Selection `json:"target"`
	Result action.Result    `json:"result"`
}

func newPreviewView(p editor.Preview) *PreviewView {
	return &PreviewView{ID: p.Token, Action: p.Action, Label: p.Action.Label(), Target: p.Target, Result: p.Result}
}

type SessionResponse struct {
	ID        string           `json:"id"`
	GameID    string           `json:"gameId,omitempty"`
	Game      *trivia.Document `json:"game"`
	Selection trivia.Selection `json:"selection"`
	Dirty     bool             `json:"dirty"`
	Revision  uint64           `json:"revision"`
}

func newSessionResponse(v editor.View) SessionResponse {
	return SessionResponse{
		ID:        v.SessionID,
		GameID:    v.GameID,
		Game:      v.Document,
		Selection: v.Selection,
		Dirty:     v.Dirty,
		Revision:  v.Revision,
	}
}

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}
