package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps, sessions *Registry, broker *Broker, m *metrics) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Trivia Editor API", "/openapi.json", "/docs"))
	var db Pinger
	if deps.Library != nil {
		db = deps.Library
	}
	r.Get("/healthz", handleHealth(logger, db, deps.Redis))
	r.Handle("/metrics", m.handler())

	// Proxy to the model API, rate limited per client address.
	r.With(rateLimit(logger, deps.Limiter, m)).Post("/api/generate", handleGenerate(logger, deps.Generator, m))

	r.Get("/api/actions", handleListActions())

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", handleCreateSession(sessions))
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Use(sessionMiddleware(sessions))
			r.Get("/", handleGetSession())
			r.Delete("/", handleDeleteSession(sessions))
			r.Put("/selection", handleSelect())
			r.Put("/game", handleReplaceGame())
			r.Post("/save", handleSaveSession(deps.Library))
			r.With(rateLimit(logger, deps.Limiter, m)).Post("/actions", handleRunAction(logger, m))
			r.Get("/previews", handleListPreviews())
			r.Get("/previews/{previewID}", handleGetPreview())
			r.Post("/previews/{previewID}", handleResolvePreview())
			r.Post("/undo/{snapshotID}", handleUndo(m))
			r.Get("/events", handleEvents(broker))
		})
	})

	r.Route("/api/library", func(r chi.Router) {
		r.Get("/categories", handleListCategories(deps.Library))
		r.Post("/categories", handleCreateCategory(deps.Library))
		r.Get("/games", handleListGames(deps.Library))
		r.Post("/games", handleCreateGame(deps.Library))
		r.Get("/games/{id}", handleGetGame(deps.Library))
		r.Put("/games/{id}", handleUpdateGame(deps.Library))
		r.Delete("/games/{id}", handleDeleteGame(deps.Library))
		r.Get("/export", handleExportLibrary(deps.Library))
	})

	if deps.StaticDir != "" {
		if info, err := os.Stat(deps.StaticDir); err == nil && info.IsDir() {
			logger.Info("serving editor front end", "dir", deps.StaticDir)
			r.NotFound(handleSPA(deps.StaticDir))
		}
	}
}
