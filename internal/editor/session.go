// Package editor owns the live editing session: the loaded document, the
// selection, AI patch coordination with snapshot undo, and autosave.
package editor

import (
	"sync"

	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

// View is a point-in-time copy of the session state.
type View struct {
	SessionID string
	GameID    string
	Document  *trivia.Document
	Selection trivia.Selection
	Dirty     bool
	Revision  uint64
}

// Session is one editor's state. All document access goes through its
// mutex; the lock is never held while waiting on the network or a user.
type Session struct {
	ID string

	mu       sync.Mutex
	gameID   string
	doc      *trivia.Document
	sel      trivia.Selection
	dirty    bool
	revision uint64

	hookMu   sync.RWMutex
	onRender func(View)
	onChange func()
}

func NewSession(id string) *Session {
	return &Session{ID: id, sel: trivia.NoSelection}
}

// OnRender registers the callback invoked after every mutation.
func (s *Session) OnRender(fn func(View)) {
	s.hookMu.Lock()
	s.onRender = fn
	s.hookMu.Unlock()
}

// OnChange registers the callback invoked when the document becomes dirty.
func (s *Session) OnChange(fn func()) {
	s.hookMu.Lock()
	s.onChange = fn
	s.hookMu.Unlock()
}

// Load replaces whatever is open with doc. gameID is the library record the
// document belongs to, or empty for an unsaved game.
func (s *Session) Load(gameID string, doc *trivia.Document) {
	s.mu.Lock()
	s.gameID = gameID
	s.doc = doc.Clone()
	s.sel = trivia.NoSelection
	if len(s.doc.Categories) > 0 {
		s.sel = trivia.Selection{Category: 0, Clue: trivia.Unset}
	}
	s.dirty = false
	s.revision++
	s.mu.Unlock()
	s.render()
}

func (s *Session) Unload() {
	s.mu.Lock()
	s.gameID = ""
	s.doc = nil
	s.sel = trivia.NoSelection
	s.dirty = false
	s.mu.Unlock()
	s.render()
}

// SetGameID links the session to a library record after a first save.
func (s *Session) SetGameID(id string) {
	s.mu.Lock()
	s.gameID = id
	s.mu.Unlock()
}

func (s *Session) Selection() trivia.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	return View{
		SessionID: s.ID,
		GameID:    s.gameID,
		Document:  s.doc.Clone(),
		Selection: s.sel,
		Dirty:     s.dirty,
		Revision:  s.revision,
	}
}

// Select moves the editor focus. The selection must address the loaded
// document or be unset.
func (s *Session) Select(sel trivia.Selection) error {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNoDocument
	}
	if !sel.ValidIn(s.doc) {
		s.mu.Unlock()
		return ErrInvalidSelection
	}
	s.sel = sel
	s.mu.Unlock()
	s.render()
	return nil
}

// Edit applies a direct user edit. The selection is clamped afterwards so a
// structural change cannot leave it dangling.
func (s *Session) Edit(fn func(doc *trivia.Document, sel *trivia.Selection) error) error {
	return s.update(func(doc *trivia.Document, sel *trivia.Selection) (bool, error) {
		if err := fn(doc, sel); err != nil {
			return false, err
		}
		*sel = sel.Clamp(doc)
		return true, nil
	})
}

// MarkSaved clears the dirty flag if nothing changed since rev was read.
func (s *Session) MarkSaved(rev uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revision != rev {
		return false
	}
	s.dirty = false
	return true
}

// update runs fn against the live document under the lock. When fn reports
// a change the document is marked dirty and the render and change hooks run
// after the lock is released.
func (s *Session) update(fn func(doc *trivia.Document, sel *trivia.Selection) (bool, error)) error {
	changed, err := s.mutate(fn)
	if changed {
		s.render()
		s.changed()
	}
	return err
}

func (s *Session) mutate(fn func(doc *trivia.Document, sel *trivia.Selection) (bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return false, ErrNoDocument
	}
	changed, err := fn(s.doc, &s.sel)
	if changed {
		s.dirty = true
		s.revision++
	}
	return changed, err
}

func (s *Session) render() {
	s.hookMu.RLock()
	fn := s.onRender
	s.hookMu.RUnlock()
	if fn != nil {
		fn(s.View())
	}
}

func (s *Session) changed() {
	s.hookMu.RLock()
	fn := s.onChange
	s.hookMu.RUnlock()
	if fn != nil {
		fn()
	}
}
