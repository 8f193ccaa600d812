package server

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/Astrocyte74/jeopardy-sub000/internal/aiparse"
	"github.com/Astrocyte74/jeopardy-sub000/internal/editor"
	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

const defaultCategories = 6

// liveSession bundles one editor session with the machinery that serves
// it over HTTP.
type liveSession struct {
	id       string
	session  *editor.Session
	runner   *editor.Runner
	autosave *editor.Autosaver
	gate     *previewGate
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// runAsync runs req in the background under the session's lifetime.
func (ls *liveSession) runAsync(req editor.Request, token string, done func(editor.Outcome, error)) {
	ls.wg.Add(1)
	go func() {
		defer ls.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				ls.logger.Error("background action panicked", "panic", rec, "stack", string(debug.Stack()))
				if done != nil {
					done(editor.Outcome{}, fmt.Errorf("action %s panicked: %v", req.Action, rec))
				}
			}
		}()
		ctx := editor.WithPreviewToken(ls.ctx, token)
		out, err := ls.runner.Run(ctx, req)
		if done != nil {
			done(out, err)
		}
	}()
}

// Registry holds the open editor sessions.
type Registry struct {
	logger  *slog.Logger
	deps    Deps
	broker  *Broker
	metrics *metrics
	parser  *aiparse.Parser

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

func NewRegistry(logger *slog.Logger, deps Deps, broker *Broker, m *metrics) *Registry {
	return &Registry{
		logger:   logger,
		deps:     deps,
		broker:   broker,
		metrics:  m,
		parser:   parserFor(logger),
		sessions: make(map[string]*liveSession),
	}
}

// Create opens a session on the library game gameID, or on a blank game
// with the given number of categories when gameID is empty.
func (r *Registry) Create(ctx context.Context, gameID string, categories int) (*liveSession, error) {
	var doc *trivia.Document
	if gameID != "" {
		if r.deps.Library == nil {
			return nil, fmt.Errorf("no library configured")
		}
		g, err := r.deps.Library.GetGame(ctx, gameID)
		if err != nil {
			return nil, err
		}
		doc = &g.Document
	} else {
		if categories <= 0 {
			categories = defaultCategories
		}
		doc = trivia.NewDocument(categories)
	}

	id := uuid.NewString()
	logger := r.logger.With("session", id)

	sess := editor.NewSession(id)
	notifier := editor.NotifierFunc(func(n editor.Notification) {
		r.broker.Publish(id, SSEEvent{Type: "notification", Notification: newNotificationView(n)})
	})
	gate := newPreviewGate(id, r.broker, r.deps.PreviewTimeout)
	coord := editor.NewCoordinator(sess, r.deps.Snapshots, notifier, logger, editor.WithConfirmer(gate))

	sctx, cancel := context.WithCancel(context.Background())
	ls := &liveSession{
		id:      id,
		session: sess,
		runner:  editor.NewRunner(coord, r.deps.Generator, r.parser, logger),
		gate:    gate,
		logger:  logger,
		ctx:     sctx,
		cancel:  cancel,
	}
	if r.deps.Library != nil {
		ls.autosave = editor.NewAutosaver(context.Background(), sess, r.save, r.deps.AutosaveDelay, logger)
		ls.autosave.Attach()
	}

	sess.OnRender(func(v editor.View) {
		r.broker.Publish(id, SSEEvent{Type: "render", Revision: v.Revision})
	})
	sess.Load(gameID, doc)

	r.mu.Lock()
	r.sessions[id] = ls
	r.mu.Unlock()
	r.metrics.activeSessions.Inc()

	logger.Info("editor session opened", "game", gameID)
	return ls, nil
}

func (r *Registry) save(ctx context.Context, gameID string, doc *trivia.Document) error {
	_, err := r.deps.Library.SaveDocument(ctx, gameID, *doc)
	if err == nil {
		r.metrics.autosaves.Inc()
	}
	return err
}

func (r *Registry) Get(id string) (*liveSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ls, ok := r.sessions[id]
	return ls, ok
}

// Delete closes the session. Its snapshots are dropped and a pending
// autosave is flushed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	ls, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	r.close(ls)
	return true
}

func (r *Registry) close(ls *liveSession) {
	ls.cancel()
	ls.wg.Wait()
	if ls.autosave != nil {
		ls.autosave.Stop()
		ls.autosave.Flush()
	}
	if r.deps.Snapshots != nil {
		r.deps.Snapshots.ClearOwner(ls.id)
	}
	r.metrics.activeSessions.Dec()
	r.logger.Info("editor session closed", "session", ls.id)
}

func (r *Registry) Close() {
	r.mu.Lock()
	open := make([]*liveSession, 0, len(r.sessions))
	for id, ls := range r.sessions {
		open = append(open, ls)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, ls := range open {
		r.close(ls)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
