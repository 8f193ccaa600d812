package editor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Astrocyte74/jeopardy-sub000/internal/trivia"
)

func touch(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Edit(func(doc *trivia.Document, _ *trivia.Selection) error {
		doc.Subtitle += "."
		return nil
	}))
}

func TestAutosaveDebounces(t *testing.T) {
	s := NewSession("s1")
	s.Load("game-1", sampleDoc())

	var calls atomic.Int32
	var saved atomic.Value
	a := NewAutosaver(context.Background(), s, func(_ context.Context, gameID string, doc *trivia.Document) error {
		calls.Add(1)
		saved.Store(doc.Subtitle)
		assert.Equal(t, "game-1", gameID)
		return nil
	}, 30*time.Millisecond, quietLogger())
	a.Attach()
	t.Cleanup(a.Stop)

	for range 3 {
		touch(t, s)
	}
	assert.True(t, a.Pending())

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Round one...", saved.Load())
	assert.False(t, s.View().Dirty)
}

func TestAutosaveSkipsWhileInFlight(t *testing.T) {
	s := NewSession("s1")
	s.Load("game-1", sampleDoc())
	touch(t, s)

	started := make(chan struct{})
	release := make(chan struct{})
	a := NewAutosaver(context.Background(), s, func(context.Context, string, *trivia.Document) error {
		close(started)
		<-release
		return nil
	}, time.Hour, quietLogger())

	done := make(chan bool)
	go func() { done <- a.Flush() }()
	<-started

	assert.False(t, a.Flush())
	assert.Equal(t, int64(1), a.Skips())

	close(release)
	assert.True(t, <-done)
	assert.Equal(t, int64(1), a.Saves())
}

func TestAutosaveKeepsDirtyOnConcurrentEdit(t *testing.T) {
	s := NewSession("s1")
	s.Load("game-1", sampleDoc())
	touch(t, s)

	a := NewAutosaver(context.Background(), s, func(context.Context, string, *trivia.Document) error {
		touch(t, s)
		return nil
	}, time.Hour, quietLogger())

	assert.True(t, a.Flush())
	assert.True(t, s.View().Dirty)
}

func TestAutosaveIgnoresUnlinkedOrClean(t *testing.T) {
	s := NewSession("s1")
	s.Load("", sampleDoc())
	touch(t, s)

	var calls atomic.Int32
	a := NewAutosaver(context.Background(), s, func(context.Context, string, *trivia.Document) error {
		calls.Add(1)
		return nil
	}, time.Hour, quietLogger())

	assert.False(t, a.Flush())
	s.SetGameID("game-1")
	assert.True(t, a.Flush())
	assert.False(t, a.Flush())
	assert.Equal(t, int32(1), calls.Load())
}

func TestAutosaveStop(t *testing.T) {
	s := NewSession("s1")
	s.Load("game-1", sampleDoc())
	a := NewAutosaver(context.Background(), s, func(context.Context, string, *trivia.Document) error {
		return nil
	}, time.Hour, quietLogger())
	a.Attach()
	touch(t, s)
	require.True(t, a.Pending())
	a.Stop()
	assert.False(t, a.Pending())
	touch(t, s)
	assert.False(t, a.Pending())
}
