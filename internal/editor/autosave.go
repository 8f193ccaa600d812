package editor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

// SaveFunc persists doc under the library record gameID.
type SaveFunc func(ctx context.Context, gameID string, doc *trivia.Document) error

// Autosaver writes the session document some delay after the last edit.
// Each edit restarts the delay. A save that comes due while another is
// still running is skipped; the document stays dirty for the next one.
type Autosaver struct {
	ctx     context.Context
	session *Session
	save    SaveFunc
	delay   time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool

	inFlight atomic.Bool
	saves    atomic.Int64
	skips    atomic.Int64
}

func NewAutosaver(ctx context.Context, session *Session, save SaveFunc, delay time.Duration, logger *slog.Logger) *Autosaver {
	return &Autosaver{ctx: ctx, session: session, save: save, delay: delay, logger: logger}
}

// Attach makes every document change on the session schedule a save.
func (a *Autosaver) Attach() {
	a.session.OnChange(a.Schedule)
}

// Schedule cancels any pending save and starts the delay again.
func (a *Autosaver) Schedule() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.timer = time.AfterFunc(a.delay, func() { a.fire(gen) })
}

func (a *Autosaver) fire(gen uint64) {
	a.mu.Lock()
	if a.gen == gen {
		a.timer = nil
	}
	a.mu.Unlock()
	a.Flush()
}

// Flush saves now if the document is dirty and no save is running. It
// reports whether a save was attempted.
func (a *Autosaver) Flush() bool {
	if !a.inFlight.CompareAndSwap(false, true) {
		a.skips.Add(1)
		a.logger.Debug("autosave skipped, save in flight", "session", a.session.ID)
		return false
	}
	defer a.inFlight.Store(false)

	v := a.session.View()
	if v.Document == nil || !v.Dirty || v.GameID == "" {
		return false
	}

	if err := a.save(a.ctx, v.GameID, v.Document); err != nil {
		a.logger.Warn("autosave failed", "session", a.session.ID, "game", v.GameID, "error", err)
		return true
	}
	a.saves.Add(1)
	a.session.MarkSaved(v.Revision)
	a.logger.Debug("autosaved", "session", a.session.ID, "game", v.GameID, "revision", v.Revision)
	return true
}

// Pending reports whether a save is scheduled.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

// Stop cancels any pending save. Later Schedule calls do nothing.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// Saves and Skips count completed and skipped saves.
func (a *Autosaver) Saves() int64 { return a.saves.Load() }
func (a *Autosaver) Skips() int64 { return a.skips.Load() }
