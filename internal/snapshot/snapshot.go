// Package snapshot keeps short-lived copies of editor state so that an AI
// edit can be undone. Records expire after a fixed window and are swept
// periodically by a Janitor.
package snapshot

import (
	"errors"
	"sync"
	"time"

	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

// Scope selects how much state a record holds.
type Scope string

const (
	ScopeGame   Scope = "game"
	ScopeSingle Scope = "single"
)

const (
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = 60 * time.Second
)

var ErrBadTarget = errors.New("snapshot target does not resolve in document")

// Record is one captured snapshot.
//
// ScopeGame records hold Document, a deep copy. ScopeSingle records hold
// exactly one of Category or Clue, copied one level deep: a captured
// Category shares its Clues backing array with the live category.
// Target addresses the slot the item came from; Selection is the editor
// focus to restore.
type Record struct {
	ID        string
	Owner     string
	Scope     Scope
	CreatedAt time.Time

	Document *trivia.Document
	Category *trivia.Category
	Clue     *trivia.Clue

	Target    trivia.Selection
	Selection trivia.Selection
}

// CaptureFull copies the whole document. Later edits to doc do not reach the
// record and edits to the record do not reach doc.
func CaptureFull(id, owner string, doc *trivia.Document, sel trivia.Selection, now time.Time) Record {
	return Record{
		ID:        id,
		Owner:     owner,
		Scope:     ScopeGame,
		CreatedAt: now,
		Document:  doc.Clone(),
		Target:    trivia.NoSelection,
		Selection: sel,
	}
}

// CaptureShallow copies the category or clue addressed by target: the clue
// when target has a clue index, the category otherwise.
func CaptureShallow(id, owner string, doc *trivia.Document, target, sel trivia.Selection, now time.Time) (Record, error) {
	if !target.HasCategory() || !target.ValidIn(doc) {
		return Record{}, ErrBadTarget
	}
	rec := Record{
		ID:        id,
		Owner:     owner,
		Scope:     ScopeSingle,
		CreatedAt: now,
		Target:    target,
		Selection: sel,
	}
	cat := doc.Categories[target.Category]
	if target.HasClue() {
		clue := cat.Clues[target.Clue]
		rec.Clue = &clue
	} else {
		rec.Category = &cat
	}
	return rec, nil
}

// Store maps snapshot IDs to records. It is safe for concurrent use.
type Store struct {
	ttl time.Duration

	mu      sync.Mutex
	records map[string]Record
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:     ttl,
		records: make(map[string]Record),
	}
}

// Save stores rec under rec.ID, replacing any previous record with that ID.
func (s *Store) Save(rec Record) {
	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
}

// Restore returns the record for id without removing it.
func (s *Store) Restore(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok
}

// Take removes the record for id and returns it, so that only one caller
// can consume a snapshot.
func (s *Store) Take(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if ok {
		delete(s.records, id)
	}
	return rec, ok
}

func (s *Store) Clear(id string) {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
}

func (s *Store) ClearAll() {
	s.mu.Lock()
	clear(s.records)
	s.mu.Unlock()
}

// ClearOwner drops every record captured for owner.
func (s *Store) ClearOwner(owner string) {
	s.mu.Lock()
	for id, rec := range s.records {
		if rec.Owner == owner {
			delete(s.records, id)
		}
	}
	s.mu.Unlock()
}

// SweepExpired removes records older than the TTL relative to now and
// returns how many were removed.
func (s *Store) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.records {
		if now.Sub(rec.CreatedAt) > s.ttl {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
