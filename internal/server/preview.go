package server

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Astrocyte74/jeopardy-sub000/internal/editor"
)

const defaultPreviewTimeout = 10 * time.Minute

type pendingPreview struct {
	preview editor.Preview
	since   time.Time
	decide  chan bool
}

// previewGate confirms previews over HTTP. Confirm publishes the preview to
// the session's event stream, keeps it readable through Get and Pending, and
// waits for a matching Resolve. A preview left undecided past the timeout
// counts as cancelled.
type previewGate struct {
	sessionID string
	broker    *Broker
	timeout   time.Duration

	mu      sync.Mutex
	pending map[string]*pendingPreview
}

func newPreviewGate(sessionID string, broker *Broker, timeout time.Duration) *previewGate {
	if timeout <= 0 {
		timeout = defaultPreviewTimeout
	}
	return &previewGate{
		sessionID: sessionID,
		broker:    broker,
		timeout:   timeout,
		pending:   make(map[string]*pendingPreview),
	}
}

func (g *previewGate) Confirm(ctx context.Context, p editor.Preview) (bool, error) {
	pp := &pendingPreview{preview: p, since: time.Now(), decide: make(chan bool, 1)}
	g.mu.Lock()
	g.pending[p.Token] = pp
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.pending, p.Token)
		g.mu.Unlock()
	}()

	g.broker.Publish(g.sessionID, SSEEvent{Type: "preview", Preview: newPreviewView(p)})

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case accepted := <-pp.decide:
		return accepted, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Resolve delivers the user's decision. It reports false when no preview
// with that token is waiting.
func (g *previewGate) Resolve(token string, accept bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	pp, ok := g.pending[token]
	if !ok {
		return false
	}
	delete(g.pending, token)
	pp.decide <- accept
	return true
}

func (g *previewGate) Waiting(token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[token]
	return ok
}

func (g *previewGate) Get(token string) (editor.Preview, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pp, ok := g.pending[token]
	if !ok {
		return editor.Preview{}, false
	}
	return pp.preview, true
}

// Pending lists the undecided previews, oldest first.
func (g *previewGate) Pending() []editor.Preview {
	g.mu.Lock()
	all := make([]*pendingPreview, 0, len(g.pending))
	for _, pp := range g.pending {
		all = append(all, pp)
	}
	g.mu.Unlock()

	slices.SortFunc(all, func(a, b *pendingPreview) int { return a.since.Compare(b.since) })
	out := make([]editor.Preview, len(all))
	for i, pp := range all {
		out[i] = pp.preview
	}
	return out
}
