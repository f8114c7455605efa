package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailsmith/internal/render"
)

// ---------------------------------------------------------------------------
// StateTracker
// ---------------------------------------------------------------------------

func TestStateTracker_Transitions(t *testing.T) {
	st := NewStateTracker()

	assert.Equal(t, Clean, st.State("promo-a", TargetEmail), "unknown targets are clean")

	st.begin("promo-a", TargetEmail)
	assert.Equal(t, Rendering, st.State("promo-a", TargetEmail))

	boom := errors.New("boom")
	st.fail("promo-a", TargetEmail, boom)
	assert.Equal(t, Failed, st.State("promo-a", TargetEmail))

	failures := st.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, Failure{Campaign: "promo-a", Target: TargetEmail, Err: boom}, failures[0])

	st.begin("promo-a", TargetEmail)
	st.succeed("promo-a", TargetEmail)
	assert.Equal(t, Clean, st.State("promo-a", TargetEmail))
	assert.Empty(t, st.Failures())
}

func TestStateTracker_FailuresSorted(t *testing.T) {
	st := NewStateTracker()
	st.fail("promo-b", TargetEmail, errors.New("b"))
	st.fail("promo-a", TargetStyles, errors.New("a2"))
	st.fail("promo-a", TargetEmail, errors.New("a1"))

	failures := st.Failures()
	require.Len(t, failures, 3)
	assert.Equal(t, "promo-a", failures[0].Campaign)
	assert.Equal(t, TargetEmail, failures[0].Target)
	assert.Equal(t, TargetStyles, failures[1].Target)
	assert.Equal(t, "promo-b", failures[2].Campaign)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "clean", Clean.String())
	assert.Equal(t, "rendering", Rendering.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", State(9).String())
}

// ---------------------------------------------------------------------------
// ContextCache
// ---------------------------------------------------------------------------

func TestContextCache_LazyAndReused(t *testing.T) {
	var loads atomic.Int32

	cache := NewContextCache(func(_ context.Context, c string) (*render.Context, error) {
		loads.Add(1)
		return &render.Context{Campaign: c}, nil
	})

	ctx := context.Background()
	assert.False(t, cache.Cached("promo-a"))

	first, err := cache.Get(ctx, "promo-a")
	require.NoError(t, err)

	second, err := cache.Get(ctx, "promo-a")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), loads.Load())

	rebuilt, err := cache.Init(ctx, "promo-a")
	require.NoError(t, err)
	assert.NotSame(t, first, rebuilt)
	assert.Equal(t, int32(2), loads.Load())

	cache.Invalidate("promo-a")
	assert.False(t, cache.Cached("promo-a"))
}

func TestContextCache_LoadError(t *testing.T) {
	boom := errors.New("boom")
	cache := NewContextCache(func(context.Context, string) (*render.Context, error) {
		return nil, boom
	})

	_, err := cache.Get(context.Background(), "promo-a")
	require.ErrorIs(t, err, boom)
	assert.False(t, cache.Cached("promo-a"))
}

func TestContextCache_ConcurrentGetLoadsOnce(t *testing.T) {
	var loads atomic.Int32

	cache := NewContextCache(func(_ context.Context, c string) (*render.Context, error) {
		loads.Add(1)
		return &render.Context{Campaign: c}, nil
	})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, _ = cache.Get(context.Background(), "promo-a")
			_, _ = cache.Get(context.Background(), "promo-b")
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(2), loads.Load())
}
