package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestWindowAllowsUpToLimit(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	w := NewWindow(3, time.Minute)
	w.now = clock.now
	ctx := context.Background()

	for i := range 3 {
		d, err := w.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
		clock.advance(10 * time.Second)
	}

	d, err := w.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	other, _ := w.Allow(ctx, "5.6.7.8")
	assert.True(t, other.Allowed)

	clock.advance(31 * time.Second)
	d, _ = w.Allow(ctx, "1.2.3.4")
	assert.True(t, d.Allowed)
}

func TestWindowPrune(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	w := NewWindow(1, time.Minute)
	w.now = clock.now
	w.Allow(context.Background(), "a")
	clock.advance(2 * time.Minute)
	assert.Equal(t, 1, w.Prune())
	assert.Empty(t, w.hits)
}

func TestRedisWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	w := NewRedisWindow(client, 2, time.Minute)
	w.now = clock.now
	ctx := context.Background()

	d, err := w.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	clock.advance(20 * time.Second)
	d, err = w.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, err = w.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 40*time.Second, d.RetryAfter)

	assert.True(t, mr.Exists(keyPrefix+"k"))
}
