package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/database"
	"github.com/Astrocyte74/jeopardy-sub000/internal/library"
	"github.com/Astrocyte74/jeopardy-sub000/internal/llm"
	"github.com/Astrocyte74/jeopardy-sub000/internal/ratelimit"
	"github.com/Astrocyte74/jeopardy-sub000/internal/snapshot"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubGenerator answers with canned text per action.
type stubGenerator struct {
	mu    sync.Mutex
	raw   map[action.ID]string
	err   error
	calls int
}

func (g *stubGenerator) Generate(_ context.Context, id action.ID, _ map[string]any, _ llm.Difficulty) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.raw[id], nil
}

func setupTestDB(t *testing.T) *library.Store {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	lib, err := library.NewStore(ctx, db)
	if err != nil {
		db.Close()
		t.Fatalf("creating library: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

type testEnv struct {
	srv       *Server
	lib       *library.Store
	snapshots *snapshot.Store
	gen       *stubGenerator
}

func newTestEnv(t *testing.T, limiter ratelimit.Limiter) *testEnv {
	t.Helper()
	env := &testEnv{
		lib:       setupTestDB(t),
		snapshots: snapshot.NewStore(snapshot.DefaultTTL),
		gen:       &stubGenerator{raw: map[action.ID]string{}},
	}
	env.srv = New(":0", quietLogger(), Deps{
		Library:       env.lib,
		Snapshots:     env.snapshots,
		Generator:     env.gen,
		Limiter:       limiter,
		AutosaveDelay: time.Hour,
	})
	t.Cleanup(env.srv.sessions.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v (body %q)", err, w.Body.String())
	}
	return v
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}
