package server

import (
	"errors"
	"net/http"

	"github.com/Astrocyte74/jeopardy-sub000/internal/editor"
	"github.com/Astrocyte74/jeopardy-sub000/internal/library"
	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

type CreateSessionRequest struct {
	GameID     string `json:"gameId,omitempty"`
	Categories int    `json:"categories,omitempty"`
}

func handleCreateSession(sessions *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if r.ContentLength != 0 {
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON")
				return
			}
		}
		if req.Categories < 0 || req.Categories > 12 {
			writeError(w, http.StatusBadRequest, "categories must be between 0 and 12; 0 picks the default of 6")
			return
		}

		ls, err := sessions.Create(r.Context(), req.GameID, req.Categories)
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to open session")
			return
		}
		writeJSON(w, http.StatusCreated, newSessionResponse(ls.session.View()))
	}
}

func handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, newSessionResponse(sessionFrom(r).session.View()))
	}
}

func handleDeleteSession(sessions *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.Delete(sessionFrom(r).id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSelect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel := trivia.NoSelection
		if err := readJSON(r, &sel); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		ls := sessionFrom(r)
		if err := ls.session.Select(sel); err != nil {
			writeEditorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(ls.session.View()))
	}
}

// handleReplaceGame stores a direct edit made in the browser.
func handleReplaceGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc trivia.Document
		if err := readJSON(r, &doc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		ls := sessionFrom(r)
		err := ls.session.Edit(func(live *trivia.Document, _ *trivia.Selection) error {
			*live = *doc.Clone()
			return nil
		})
		if err != nil {
			writeEditorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(ls.session.View()))
	}
}

type SaveSessionRequest struct {
	CategoryID string `json:"categoryId,omitempty"`
}

// handleSaveSession writes the document to the library now, creating a
// record for a game that has none yet.
func handleSaveSession(lib *library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveSessionRequest
		if r.ContentLength != 0 {
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON")
				return
			}
		}
		ls := sessionFrom(r)
		v := ls.session.View()
		if v.Document == nil {
			writeEditorError(w, editor.ErrNoDocument)
			return
		}

		var (
			g   library.Game
			err error
		)
		if v.GameID == "" {
			g, err = lib.CreateGame(r.Context(), req.CategoryID, *v.Document)
			if err == nil {
				ls.session.SetGameID(g.ID)
			}
		} else {
			g, err = lib.SaveDocument(r.Context(), v.GameID, *v.Document)
		}
		if errors.Is(err, library.ErrInvalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeEditorError(w, err)
			return
		}
		ls.session.MarkSaved(v.Revision)
		writeJSON(w, http.StatusOK, newSessionResponse(ls.session.View()))
	}
}
