package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/editor"
	"github.com/Astrocyte74/jeopardy-sub000/internal/llm"
	"github.com/Astrocyte74/jeopardy-sub000/internal/snapshot"
)

type ActionRequest struct {
	Action     string         `json:"action"`
	Scope      string         `json:"scope,omitempty" enum:"game,single"`
	Mode       string         `json:"mode,omitempty" enum:"direct,preview"`
	Difficulty string         `json:"difficulty,omitempty" enum:"easy,normal,hard"`
	Context    map[string]any `json:"context,omitempty"`
}

type ActionResponse struct {
	Applied    bool            `json:"applied"`
	Cancelled  bool            `json:"cancelled,omitempty"`
	SnapshotID string          `json:"snapshotId,omitempty"`
	Scope      string          `json:"scope,omitempty"`
	Result     action.Result   `json:"result,omitempty"`
	Session    SessionResponse `json:"session"`
}

type PreviewAccepted struct {
	PreviewID string `json:"previewId"`
}

func parseActionRequest(req ActionRequest) (editor.Request, error) {
	id, err := action.Parse(req.Action)
	if err != nil {
		return editor.Request{}, err
	}
	mode, err := editor.ParseMode(req.Mode)
	if err != nil {
		return editor.Request{}, err
	}
	d, err := llm.ParseDifficulty(req.Difficulty)
	if err != nil {
		return editor.Request{}, err
	}
	scope := snapshot.ScopeSingle
	if req.Scope == string(snapshot.ScopeGame) {
		scope = snapshot.ScopeGame
	}
	return editor.Request{Action: id, Scope: scope, Mode: mode, Difficulty: d, Extra: req.Context}, nil
}

// handleRunAction runs an AI action on the session. Direct mode answers
// with the outcome. Preview mode answers 202 at once; the preview arrives
// on the event stream and is settled through the previews endpoint.
func handleRunAction(logger *slog.Logger, m *metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body ActionRequest
		if err := readJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		req, err := parseActionRequest(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ls := sessionFrom(r)

		if req.Mode == editor.ModePreview {
			token := uuid.NewString()
			ls.runAsync(req, token, func(out editor.Outcome, err error) {
				m.observeOutcome(req.Action, out, err)
				if err != nil {
					logger.Info("preview action ended", "session", ls.id, "action", req.Action, "error", err)
				}
			})
			writeJSON(w, http.StatusAccepted, PreviewAccepted{PreviewID: token})
			return
		}

		out, err := ls.runner.Run(r.Context(), req)
		m.observeOutcome(req.Action, out, err)
		if err != nil {
			writeEditorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ActionResponse{
			Applied:    out.Applied,
			Cancelled:  out.Cancelled,
			SnapshotID: out.SnapshotID,
			Scope:      string(out.Scope),
			Result:     out.Result,
			Session:    newSessionResponse(ls.session.View()),
		})
	}
}

type PreviewDecision struct {
	Confirm bool `json:"confirm"`
}

func handleResolvePreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body PreviewDecision
		if err := readJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		ls := sessionFrom(r)
		if !ls.gate.Resolve(chi.URLParam(r, "previewID"), body.Confirm) {
			writeError(w, http.StatusNotFound, "no pending preview with that id")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleListPreviews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending := sessionFrom(r).gate.Pending()
		out := make([]*PreviewView, len(pending))
		for i, p := range pending {
			out[i] = newPreviewView(p)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGetPreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := sessionFrom(r).gate.Get(chi.URLParam(r, "previewID"))
		if !ok {
			writeError(w, http.StatusNotFound, "no pending preview with that id")
			return
		}
		writeJSON(w, http.StatusOK, newPreviewView(p))
	}
}

func handleUndo(m *metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ls := sessionFrom(r)
		err := ls.runner.Coordinator().Undo(chi.URLParam(r, "snapshotID"))
		if err != nil {
			m.undo.WithLabelValues(editor.ErrorCode(err)).Inc()
			writeEditorError(w, err)
			return
		}
		m.undo.WithLabelValues("ok").Inc()
		writeJSON(w, http.StatusOK, newSessionResponse(ls.session.View()))
	}
}
