package editor

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/patch"
	"github.com/Astrocyte74/jeopardy-sub000/internal/snapshot"
	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

type Mode string

const (
	ModeDirect  Mode = "direct"
	ModePreview Mode = "preview"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeDirect, nil
	case ModeDirect, ModePreview:
		return m, nil
	default:
		return "", fmt.Errorf("invalid mode %q", s)
	}
}

// Preview is a validated result awaiting the user's decision.
type Preview struct {
	Token     string
	SessionID string
	Action    action.ID
	// Target is the selection the result was generated for.
	Target trivia.Selection
	Result action.Result
}

// Confirmer asks the user to accept or reject a preview. It blocks until
// the user decides or ctx is done.
type Confirmer interface {
	Confirm(ctx context.Context, p Preview) (bool, error)
}

type ConfirmerFunc func(ctx context.Context, p Preview) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, p Preview) (bool, error) { return f(ctx, p) }

type previewTokenKey struct{}

// WithPreviewToken attaches the identifier a Preview will carry.
func WithPreviewToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, previewTokenKey{}, token)
}

func PreviewToken(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(previewTokenKey{}).(string)
	return t, ok && t != ""
}

// Outcome reports what RequestApply did.
type Outcome struct {
	Applied    bool
	Cancelled  bool
	SnapshotID string
	Scope      snapshot.Scope
	Result     action.Result
}

// Coordinator applies validated AI results to a session, taking a snapshot
// first so each change can be undone once.
type Coordinator struct {
	session   *Session
	store     *snapshot.Store
	notifier  Notifier
	confirmer Confirmer
	logger    *slog.Logger
	now       func() time.Time
	seq       atomic.Uint64
}

type CoordinatorOption func(*Coordinator)

func WithConfirmer(c Confirmer) CoordinatorOption {
	return func(co *Coordinator) { co.confirmer = c }
}

func WithClock(now func() time.Time) CoordinatorOption {
	return func(co *Coordinator) { co.now = now }
}

func NewCoordinator(session *Session, store *snapshot.Store, notifier Notifier, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		session:  session,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Session() *Session { return c.session }

// SnapshotScope picks the copy depth for id. Whole-game operations and the
// destructive replacements need a full copy; everything else touches one
// category or clue.
func SnapshotScope(id action.ID, scope snapshot.Scope) snapshot.Scope {
	if scope == snapshot.ScopeGame || id.Destructive() || id.Level() == action.LevelGame {
		return snapshot.ScopeGame
	}
	return snapshot.ScopeSingle
}

// target is the slot a single-scope snapshot of id copies.
func target(id action.ID, sel trivia.Selection, doc *trivia.Document) (trivia.Selection, error) {
	switch id.Level() {
	case action.LevelCategory:
		t := sel.CategoryOnly()
		if !t.HasCategory() || !t.ValidIn(doc) {
			return trivia.NoSelection, ErrInvalidSelection
		}
		return t, nil
	case action.LevelClue:
		if !sel.HasClue() || !sel.ValidIn(doc) {
			return trivia.NoSelection, ErrInvalidSelection
		}
		return sel, nil
	default:
		return trivia.NoSelection, nil
	}
}

func (c *Coordinator) nextSnapshotID(id action.ID) string {
	return fmt.Sprintf("%s-%d-%d", id, c.now().UnixNano(), c.seq.Add(1))
}

// RequestApply applies res, produced for id, to the session document at
// the current selection. In preview mode nothing is captured or mutated
// until the confirmer accepts.
func (c *Coordinator) RequestApply(ctx context.Context, id action.ID, scope snapshot.Scope, res action.Result, mode Mode) (Outcome, error) {
	return c.RequestApplyAt(ctx, id, scope, res, mode, c.session.Selection())
}

// RequestApplyAt is RequestApply for a result generated while at was
// selected. The patch lands on at even if the user has moved since; if at
// no longer addresses a slot of the action's level, nothing is applied.
func (c *Coordinator) RequestApplyAt(ctx context.Context, id action.ID, scope snapshot.Scope, res action.Result, mode Mode, at trivia.Selection) (Outcome, error) {
	if res == nil || res.Action() != id {
		return Outcome{}, fmt.Errorf("result does not belong to action %q", id)
	}
	if err := c.checkTarget(id, at); err != nil {
		c.fail(err)
		return Outcome{}, err
	}

	if id.Advisory() {
		c.report(res)
		return Outcome{Result: res}, nil
	}

	if mode == ModePreview {
		if c.confirmer == nil {
			return Outcome{}, ErrNoConfirmer
		}
		token, ok := PreviewToken(ctx)
		if !ok {
			token = c.nextSnapshotID(id)
		}
		accepted, err := c.confirmer.Confirm(ctx, Preview{Token: token, SessionID: c.session.ID, Action: id, Target: at, Result: res})
		if err != nil {
			return Outcome{}, err
		}
		if !accepted {
			c.notify(newNotification(KindInfo, id.Label()+" cancelled"))
			return Outcome{Cancelled: true, Result: res}, nil
		}
	}

	return c.apply(id, scope, res, at)
}

func (c *Coordinator) checkTarget(id action.ID, at trivia.Selection) error {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	if c.session.doc == nil {
		return ErrNoDocument
	}
	_, err := target(id, at, c.session.doc)
	return err
}

func (c *Coordinator) apply(id action.ID, scope snapshot.Scope, res action.Result, at trivia.Selection) (Outcome, error) {
	snapScope := SnapshotScope(id, scope)
	snapID := c.nextSnapshotID(id)
	owner := c.session.ID

	err := c.session.update(func(doc *trivia.Document, sel *trivia.Selection) (bool, error) {
		t, err := target(id, at, doc)
		if err != nil {
			return false, err
		}
		// When the live selection no longer addresses t, patch a copy of at
		// and leave the user's selection where it is.
		applyTo := sel
		if cur, err := target(id, *sel, doc); err != nil || cur != t {
			work := at
			applyTo = &work
		}

		var rec snapshot.Record
		if snapScope == snapshot.ScopeGame {
			rec = snapshot.CaptureFull(snapID, owner, doc, *sel, c.now())
		} else {
			rec, err = snapshot.CaptureShallow(snapID, owner, doc, t, *sel, c.now())
			if err != nil {
				return false, err
			}
		}
		c.store.Save(rec)
		changed := patch.Apply(res, doc, applyTo)
		if applyTo != sel {
			*sel = sel.Clamp(doc)
		}
		return changed, nil
	})
	if err != nil {
		c.fail(err)
		return Outcome{}, err
	}

	c.logger.Info("ai patch applied", "session", owner, "action", id, "snapshot", snapID, "scope", snapScope)

	n := newNotification(KindSuccess, id.Label()+" updated")
	n.UndoID = snapID
	n.Undo = func() error { return c.Undo(snapID) }
	c.notify(n)

	return Outcome{Applied: true, SnapshotID: snapID, Scope: snapScope, Result: res}, nil
}

// Undo restores the snapshot snapID and removes it. A missing snapshot, or
// one taken in another session, yields ErrUndoExpired and no change.
func (c *Coordinator) Undo(snapID string) error {
	rec, ok := c.store.Take(snapID)
	if !ok {
		c.fail(ErrUndoExpired)
		return ErrUndoExpired
	}
	if rec.Owner != c.session.ID {
		c.store.Save(rec)
		c.fail(ErrUndoExpired)
		return ErrUndoExpired
	}

	err := c.session.update(func(doc *trivia.Document, sel *trivia.Selection) (bool, error) {
		switch {
		case rec.Scope == snapshot.ScopeGame:
			saved := rec.Document.Clone()
			doc.Title = saved.Title
			doc.Subtitle = saved.Subtitle
			doc.Categories = saved.Categories
		case rec.Clue != nil:
			t := rec.Target
			if !t.HasClue() || !t.ValidIn(doc) {
				return false, ErrUndoExpired
			}
			cat := &doc.Categories[t.Category]
			clues := slices.Clone(cat.Clues)
			clues[t.Clue] = *rec.Clue
			cat.Clues = clues
		case rec.Category != nil:
			t := rec.Target
			if !t.ValidIn(doc) {
				return false, ErrUndoExpired
			}
			doc.Categories[t.Category] = *rec.Category
		default:
			return false, ErrUndoExpired
		}
		*sel = rec.Selection.Clamp(doc)
		return true, nil
	})
	if err != nil {
		c.store.Save(rec)
		c.fail(err)
		return err
	}

	c.logger.Info("ai patch undone", "session", c.session.ID, "snapshot", snapID)
	c.notify(newNotification(KindSuccess, "Change undone"))
	return nil
}

// report delivers an advisory result without touching the document.
func (c *Coordinator) report(res action.Result) {
	switch r := res.(type) {
	case action.ValidationReport:
		issues := strings.Join(r.Issues, "; ")
		switch {
		case r.Valid && issues == "":
			c.notify(newNotification(KindSuccess, "Clue looks good"))
		case r.Valid:
			c.notify(newNotification(KindInfo, "Clue is valid. Notes: "+issues))
		case issues == "":
			c.notify(newNotification(KindInfo, "Clue did not pass validation"))
		default:
			c.notify(newNotification(KindInfo, "Clue did not pass validation: "+issues))
		}
	case action.TeamNames:
		c.notify(newNotification(KindInfo, "Team name ideas: "+strings.Join(r.Names, ", ")))
	}
}

func (c *Coordinator) fail(err error) {
	n := newNotification(KindError, err.Error())
	n.Code = ErrorCode(err)
	c.notify(n)
}

func (c *Coordinator) notify(n Notification) {
	if c.notifier != nil {
		c.notifier.Notify(n)
	}
}
