package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Astrocyte74/jeopardy-sub000/internal/library"
	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

type CategoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

type GameRequest struct {
	CategoryID string           `json:"categoryId,omitempty"`
	Game       *trivia.Document `json:"game"`
}

func writeLibraryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, library.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "library error")
	}
}

func handleListCategories(lib *library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := lib.ListCategories(r.Context())
		if err != nil {
			writeLibraryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cats)
	}
}

func handleCreateCategory(lib *library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CategoryRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		c, err := lib.CreateCategory(r.Context(), req.Name, req.Icon)
		if err != nil {
			writeLibraryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleListGames(lib *library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := lib.ListGames(r.Context(), r.URL.Query().Get("categoryId"))
		if err != nil {
			writeLibraryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func handleCreateGame(lib *library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		doc := req.Game
		if doc == nil {
			doc = trivia.NewDocument(defaultCategories)
		}
		g, err := lib.CreateGame(r.Context(), req.CategoryID, *doc)
		if err != nil {
			writeLibraryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, g)
	}
}

func handleGetGame(lib *library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := lib.GetGame(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeLibraryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

// handleUpdateGame replaces the document when one is sent, then moves the
// game to categoryId.
func handleUpdateGame(lib *library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		id := chi.URLParam(r, "id")
		if req.Game != nil {
			if _, err := lib.SaveDocument(r.Context(), id, *req.Game); err != nil {
				writeLibraryError(w, err)
				return
			}
		}
		g, err := lib.MoveGame(r.Context(), id, req.CategoryID)
		if err != nil {
			writeLibraryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func handleDeleteGame(lib *library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := lib.DeleteGame(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeLibraryError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleExportLibrary(lib *library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exp, err := lib.Export(r.Context())
		if err != nil {
			writeLibraryError(w, err)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="library.json"`)
		writeJSON(w, http.StatusOK, exp)
	}
}
