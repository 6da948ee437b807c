package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	counts map[string]int64
	err    error
}

func (f *fakeStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[key]++
	return f.counts[key], window, nil
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	l := NewLimiter(&fakeStore{}, 2, 30*time.Second, nil)
	ctx := context.Background()

	first := l.Allow(ctx, "u-1")
	second := l.Allow(ctx, "u-1")
	third := l.Allow(ctx, "u-1")

	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)
	assert.False(t, third.Allowed)
	assert.Equal(t, 30*time.Second, third.RetryAfter)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := NewLimiter(&fakeStore{}, 1, time.Minute, nil)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "u-1").Allowed)
	assert.True(t, l.Allow(ctx, "u-2").Allowed)
	assert.False(t, l.Allow(ctx, "u-1").Allowed)
}

func TestLimiter_FailsOpen(t *testing.T) {
	l := NewLimiter(&fakeStore{err: errors.New("redis down")}, 1, time.Minute, nil)

	assert.True(t, l.Allow(context.Background(), "u-1").Allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	store := &fakeStore{}
	l := NewLimiter(store, 0, time.Minute, nil)

	assert.True(t, l.Allow(context.Background(), "u-1").Allowed)
	assert.Empty(t, store.counts)

	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow(context.Background(), "u-1").Allowed)
}
