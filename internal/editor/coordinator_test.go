package editor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/snapshot"
	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleDoc() *trivia.Document {
	return &trivia.Document{
		Title:    "Friday Quiz",
		Subtitle: "Round one",
		Categories: []trivia.Category{
			{Title: "Rivers", ContentTopic: "world rivers", Clues: []trivia.Clue{
				{Value: 200, Prompt: "Flows through Cairo", Response: "Nile"},
				{Value: 400, Prompt: "Flows through Vienna", Response: "Danube"},
				{Value: 600, Prompt: "Flows through Baghdad", Response: "Tigris"},
				{Value: 800, Prompt: "Flows through Kinshasa", Response: "Congo"},
				{Value: 1000, Prompt: "Flows through Khartoum", Response: "Blue Nile"},
			}},
			{Title: "Planets", Clues: []trivia.Clue{
				{Value: 200, Prompt: "The red planet", Response: "Mars"},
				{Value: 1000, Prompt: "Has the Great Red Spot", Response: "Jupiter"},
			}},
		},
	}
}

type harness struct {
	session  *Session
	store    *snapshot.Store
	notes    *Recorder
	coord    *Coordinator
	renders  atomic.Int32
	original *trivia.Document
}

func newHarness(t *testing.T, opts ...CoordinatorOption) *harness {
	t.Helper()
	h := &harness{
		session:  NewSession("s1"),
		store:    snapshot.NewStore(snapshot.DefaultTTL),
		notes:    &Recorder{},
		original: sampleDoc(),
	}
	h.session.Load("game-1", h.original)
	h.session.OnRender(func(View) { h.renders.Add(1) })
	h.coord = NewCoordinator(h.session, h.store, h.notes, quietLogger(), opts...)
	return h
}

func (h *harness) doc() *trivia.Document { return h.session.View().Document }

func (h *harness) lastNote(t *testing.T) Notification {
	t.Helper()
	n, ok := h.notes.Last()
	require.True(t, ok, "expected a notification")
	return n
}

func TestApplyWithoutDocument(t *testing.T) {
	h := newHarness(t)
	h.session.Unload()

	_, err := h.coord.RequestApply(context.Background(), action.CategoryRename, snapshot.ScopeSingle,
		action.CategoryNames{Names: []string{"A", "B", "C"}}, ModeDirect)
	require.ErrorIs(t, err, ErrNoDocument)
	assert.Equal(t, 0, h.store.Len())

	n := h.lastNote(t)
	assert.Equal(t, KindError, n.Kind)
	assert.Equal(t, "NO_DOCUMENT", n.Code)
}

func TestDirectRenameAndUndo(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Select(trivia.Selection{Category: 1, Clue: trivia.Unset}))

	out, err := h.coord.RequestApply(context.Background(), action.CategoryRename, snapshot.ScopeSingle,
		action.CategoryNames{Names: []string{"Worlds", "Orbs", "Spheres"}}, ModeDirect)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, snapshot.ScopeSingle, out.Scope)

	v := h.session.View()
	assert.Equal(t, "Worlds", v.Document.Categories[1].Title)
	assert.True(t, v.Dirty)

	rec, ok := h.store.Restore(out.SnapshotID)
	require.True(t, ok)
	require.NotNil(t, rec.Category)
	assert.Nil(t, rec.Clue)
	assert.Equal(t, "Planets", rec.Category.Title)

	n := h.lastNote(t)
	assert.Equal(t, KindSuccess, n.Kind)
	assert.Equal(t, out.SnapshotID, n.UndoID)
	require.NotNil(t, n.Undo)

	require.NoError(t, n.Undo())
	assert.Equal(t, h.original, h.doc())
	assert.Equal(t, 0, h.store.Len())

	assert.ErrorIs(t, n.Undo(), ErrUndoExpired)
}

func TestMergeUndoRestoresCategory(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Select(trivia.Selection{Category: 1, Clue: 0}))

	incoming := []trivia.Clue{
		{Value: 200, Prompt: "new 200", Response: "x"},
		{Value: 400, Prompt: "new 400", Response: "y"},
		{Value: 600, Prompt: "new 600", Response: "z"},
	}
	out, err := h.coord.RequestApply(context.Background(), action.CategoryGenerateClues, snapshot.ScopeSingle,
		action.ClueFill{Clues: incoming}, ModeDirect)
	require.NoError(t, err)

	clues := h.doc().Categories[1].Clues
	var values []int
	for _, c := range clues {
		values = append(values, c.Value)
	}
	assert.Equal(t, []int{200, 400, 600, 1000}, values)
	assert.Equal(t, "The red planet", clues[0].Prompt)

	require.NoError(t, h.coord.Undo(out.SnapshotID))
	assert.Equal(t, h.original.Categories[1], h.doc().Categories[1])
	assert.Equal(t, trivia.Selection{Category: 1, Clue: 0}, h.session.View().Selection)
}

func TestFiveCluesResetsClueIndex(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Select(trivia.Selection{Category: 0, Clue: 3}))

	five := make([]trivia.Clue, 5)
	for i, v := range trivia.DefaultValues {
		five[i] = trivia.Clue{Value: v, Prompt: "p", Response: "r"}
	}
	_, err := h.coord.RequestApply(context.Background(), action.QuestionsGenerateFive, snapshot.ScopeSingle,
		action.FiveClues{Clues: five}, ModeDirect)
	require.NoError(t, err)
	assert.Equal(t, 0, h.session.View().Selection.Clue)
}

func TestClueUndoTargetsClueSlot(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Select(trivia.Selection{Category: 0, Clue: 2}))

	out, err := h.coord.RequestApply(context.Background(), action.EditorRewriteClue, snapshot.ScopeSingle,
		action.ClueRewrite{Prompt: "Rewritten"}, ModeDirect)
	require.NoError(t, err)

	rec, ok := h.store.Restore(out.SnapshotID)
	require.True(t, ok)
	require.NotNil(t, rec.Clue)
	assert.Nil(t, rec.Category)

	// Edit a different clue in the same category; undo must leave it alone.
	require.NoError(t, h.session.Edit(func(doc *trivia.Document, _ *trivia.Selection) error {
		doc.Categories[0].Clues[4].Response = "White Nile"
		return nil
	}))

	require.NoError(t, h.coord.Undo(out.SnapshotID))
	doc := h.doc()
	assert.Equal(t, "Flows through Baghdad", doc.Categories[0].Clues[2].Prompt)
	assert.Equal(t, "White Nile", doc.Categories[0].Clues[4].Response)
}

func TestDestructiveActionTakesGameSnapshot(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Select(trivia.Selection{Category: 1, Clue: 1}))

	out, err := h.coord.RequestApply(context.Background(), action.CategoriesGenerate, snapshot.ScopeSingle,
		action.CategorySet{Categories: []trivia.Category{{Title: "Only", Clues: []trivia.Clue{{Value: 200}}}}}, ModeDirect)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ScopeGame, out.Scope)
	assert.Len(t, h.doc().Categories, 1)
	assert.Equal(t, trivia.Selection{Category: 0, Clue: 0}, h.session.View().Selection)

	require.NoError(t, h.coord.Undo(out.SnapshotID))
	assert.Equal(t, h.original, h.doc())
	assert.Equal(t, trivia.Selection{Category: 1, Clue: 1}, h.session.View().Selection)
}

func TestSnapshotScope(t *testing.T) {
	assert.Equal(t, snapshot.ScopeGame, SnapshotScope(action.CategoryReplaceAll, snapshot.ScopeSingle))
	assert.Equal(t, snapshot.ScopeGame, SnapshotScope(action.GameTitle, snapshot.ScopeSingle))
	assert.Equal(t, snapshot.ScopeGame, SnapshotScope(action.EditorRewriteClue, snapshot.ScopeGame))
	assert.Equal(t, snapshot.ScopeSingle, SnapshotScope(action.EditorRewriteClue, snapshot.ScopeSingle))
	assert.Equal(t, snapshot.ScopeSingle, SnapshotScope(action.CategoryRename, snapshot.ScopeSingle))
}

func TestUndoUnknownLeavesDocument(t *testing.T) {
	h := newHarness(t)
	before := h.renders.Load()

	err := h.coord.Undo("category-rename-1-1")
	require.ErrorIs(t, err, ErrUndoExpired)
	assert.Equal(t, h.original, h.doc())
	assert.False(t, h.session.View().Dirty)
	assert.Equal(t, before, h.renders.Load())
	assert.Equal(t, "UNDO_EXPIRED", h.lastNote(t).Code)
}

func TestUndoFromAnotherSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Select(trivia.Selection{Category: 0, Clue: trivia.Unset}))
	out, err := h.coord.RequestApply(context.Background(), action.CategoryRename, snapshot.ScopeSingle,
		action.CategoryNames{Names: []string{"A", "B", "C"}}, ModeDirect)
	require.NoError(t, err)

	other := NewSession("s2")
	other.Load("", sampleDoc())
	otherCoord := NewCoordinator(other, h.store, nil, quietLogger())
	assert.ErrorIs(t, otherCoord.Undo(out.SnapshotID), ErrUndoExpired)
	assert.Equal(t, 1, h.store.Len())
}

func TestPreviewCancelLeavesStateUntouched(t *testing.T) {
	var seen Preview
	h := newHarness(t, WithConfirmer(ConfirmerFunc(func(_ context.Context, p Preview) (bool, error) {
		seen = p
		return false, nil
	})))
	require.NoError(t, h.session.Select(trivia.Selection{Category: 0, Clue: trivia.Unset}))

	ctx := WithPreviewToken(context.Background(), "tok-1")
	out, err := h.coord.RequestApply(ctx, action.CategoryRename, snapshot.ScopeSingle,
		action.CategoryNames{Names: []string{"A", "B", "C"}}, ModePreview)
	require.NoError(t, err)
	assert.True(t, out.Cancelled)
	assert.False(t, out.Applied)

	assert.Equal(t, "tok-1", seen.Token)
	assert.Equal(t, action.CategoryRename, seen.Action)
	assert.Equal(t, 0, h.store.Len())
	assert.Equal(t, h.original, h.doc())
	assert.False(t, h.session.View().Dirty)
	assert.Equal(t, KindInfo, h.lastNote(t).Kind)
}

func TestPreviewConfirmApplies(t *testing.T) {
	h := newHarness(t, WithConfirmer(ConfirmerFunc(func(context.Context, Preview) (bool, error) {
		return true, nil
	})))

	out, err := h.coord.RequestApply(context.Background(), action.GameTitle, snapshot.ScopeSingle,
		action.TitleOptions{Options: []action.TitleOption{{Title: "T1", Subtitle: "S1"}, {Title: "T2"}, {Title: "T3"}}}, ModePreview)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, "T1", h.doc().Title)
	assert.Equal(t, 1, h.store.Len())

	require.NoError(t, h.coord.Undo(out.SnapshotID))
	assert.Equal(t, "Friday Quiz", h.doc().Title)
	assert.Equal(t, "Round one", h.doc().Subtitle)
}

func TestPreviewAbandoned(t *testing.T) {
	h := newHarness(t, WithConfirmer(ConfirmerFunc(func(ctx context.Context, _ Preview) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	})))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := h.coord.RequestApply(ctx, action.GameTitle, snapshot.ScopeGame,
		action.TitleOptions{Options: []action.TitleOption{{Title: "T1"}, {Title: "T2"}, {Title: "T3"}}}, ModePreview)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, h.store.Len())
	assert.Equal(t, h.original, h.doc())
}

func TestPreviewWithoutConfirmer(t *testing.T) {
	h := newHarness(t)
	_, err := h.coord.RequestApply(context.Background(), action.GameTitle, snapshot.ScopeGame,
		action.TitleOptions{Options: []action.TitleOption{{Title: "T1"}, {Title: "T2"}, {Title: "T3"}}}, ModePreview)
	assert.ErrorIs(t, err, ErrNoConfirmer)
}

func TestAdvisoryDoesNotMutate(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Select(trivia.Selection{Category: 0, Clue: 0}))
	before := h.renders.Load()

	out, err := h.coord.RequestApply(context.Background(), action.EditorValidate, snapshot.ScopeSingle,
		action.ValidationReport{Valid: false, Issues: []string{"ambiguous"}}, ModeDirect)
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, 0, h.store.Len())
	assert.False(t, h.session.View().Dirty)
	assert.Equal(t, before, h.renders.Load())

	n := h.lastNote(t)
	assert.Equal(t, KindInfo, n.Kind)
	assert.Contains(t, n.Message, "ambiguous")
}

func TestClueActionNeedsClueSelection(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Select(trivia.Selection{Category: 0, Clue: trivia.Unset}))

	_, err := h.coord.RequestApply(context.Background(), action.EditorGenerateAnswer, snapshot.ScopeSingle,
		action.Answer{Response: "x"}, ModeDirect)
	require.ErrorIs(t, err, ErrInvalidSelection)
	assert.Equal(t, 0, h.store.Len())
}

func TestMismatchedResult(t *testing.T) {
	h := newHarness(t)
	_, err := h.coord.RequestApply(context.Background(), action.GameTitle, snapshot.ScopeGame,
		action.Answer{Response: "x"}, ModeDirect)
	assert.Error(t, err)
}

func TestSnapshotIDsUnique(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, WithClock(func() time.Time { return fixed }))
	require.NoError(t, h.session.Select(trivia.Selection{Category: 0, Clue: trivia.Unset}))

	names := action.CategoryNames{Names: []string{"A", "B", "C"}}
	a, err := h.coord.RequestApply(context.Background(), action.CategoryRename, snapshot.ScopeSingle, names, ModeDirect)
	require.NoError(t, err)
	b, err := h.coord.RequestApply(context.Background(), action.CategoryRename, snapshot.ScopeSingle, names, ModeDirect)
	require.NoError(t, err)
	assert.NotEqual(t, a.SnapshotID, b.SnapshotID)
	assert.Equal(t, 2, h.store.Len())
}

func TestPreviewLandsOnRequestedClueAfterSelectionMoves(t *testing.T) {
	for _, scope := range []snapshot.Scope{snapshot.ScopeGame, snapshot.ScopeSingle} {
		t.Run(string(scope), func(t *testing.T) {
			var h *harness
			h = newHarness(t, WithConfirmer(ConfirmerFunc(func(_ context.Context, p Preview) (bool, error) {
				assert.Equal(t, trivia.Selection{Category: 0, Clue: 2}, p.Target)
				require.NoError(t, h.session.Select(trivia.Selection{Category: 1, Clue: trivia.Unset}))
				return true, nil
			})))
			require.NoError(t, h.session.Select(trivia.Selection{Category: 0, Clue: 2}))

			var out Outcome
			var err error
			assert.NotPanics(t, func() {
				out, err = h.coord.RequestApply(context.Background(), action.EditorRewriteClue, scope,
					action.ClueRewrite{Prompt: "Flows past ancient Nineveh"}, ModePreview)
			})
			require.NoError(t, err)
			require.True(t, out.Applied)

			v := h.session.View()
			assert.Equal(t, "Flows past ancient Nineveh", v.Document.Categories[0].Clues[2].Prompt)
			assert.Equal(t, "Tigris", v.Document.Categories[0].Clues[2].Response)
			assert.Equal(t, h.original.Categories[1], v.Document.Categories[1])
			assert.Equal(t, trivia.Selection{Category: 1, Clue: trivia.Unset}, v.Selection)

			require.NoError(t, h.coord.Undo(out.SnapshotID))
			assert.Equal(t, h.original, h.doc())
		})
	}
}

func TestPreviewTargetRemovedDuringWait(t *testing.T) {
	var h *harness
	h = newHarness(t, WithConfirmer(ConfirmerFunc(func(context.Context, Preview) (bool, error) {
		require.NoError(t, h.session.Edit(func(doc *trivia.Document, _ *trivia.Selection) error {
			doc.Categories = doc.Categories[:1]
			return nil
		}))
		return true, nil
	})))
	require.NoError(t, h.session.Select(trivia.Selection{Category: 1, Clue: 1}))
	edited := h.session.View().Revision + 1

	_, err := h.coord.RequestApply(context.Background(), action.EditorRewriteClue, snapshot.ScopeGame,
		action.ClueRewrite{Prompt: "Largest planet"}, ModePreview)
	require.ErrorIs(t, err, ErrInvalidSelection)

	v := h.session.View()
	assert.Equal(t, 0, h.store.Len())
	assert.Equal(t, edited, v.Revision)
	assert.Len(t, v.Document.Categories, 1)
	assert.Equal(t, h.original.Categories[0], v.Document.Categories[0])
	assert.Equal(t, "INVALID_SELECTION", h.lastNote(t).Code)
}

func TestConcurrentUndoAppliesOnce(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Select(trivia.Selection{Category: 0, Clue: trivia.Unset}))
	out, err := h.coord.RequestApply(context.Background(), action.CategoryRename, snapshot.ScopeSingle,
		action.CategoryNames{Names: []string{"Streams", "Brooks", "Creeks"}}, ModeDirect)
	require.NoError(t, err)
	before := h.session.View().Revision

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = h.coord.Undo(out.SnapshotID)
		}()
	}
	wg.Wait()

	var ok, expired int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrUndoExpired):
			expired++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, len(errs)-1, expired)
	assert.Equal(t, before+1, h.session.View().Revision)
	assert.Equal(t, h.original, h.doc())
}
