package preview

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_Delivers(t *testing.T) {
	b := NewBroadcaster[string](4)
	ctx := t.Context()

	a := b.Subscribe(ctx)
	c := b.Subscribe(ctx)
	assert.Equal(t, 2, b.Subscribers())

	b.Broadcast("promo-a")

	assert.Equal(t, "promo-a", <-a)
	assert.Equal(t, "promo-a", <-c)
}

func TestBroadcaster_ContextEndsSubscription(t *testing.T) {
	b := NewBroadcaster[string](1)
	ctx, cancel := context.WithCancel(t.Context())

	ch := b.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestBroadcaster_DropsSlowSubscriber(t *testing.T) {
	b := NewBroadcaster[int](1)
	ch := b.Subscribe(t.Context())

	b.Broadcast(1)
	b.Broadcast(2) // buffer full: subscriber is dropped

	require.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	var got []int
	for v := range ch {
		got = append(got, v)
	}

	assert.Equal(t, []int{1}, got)
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster[string](1)
	ch := b.Subscribe(t.Context())

	b.Close()
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late := b.Subscribe(t.Context())
	_, ok = <-late
	assert.False(t, ok, "subscriptions after Close are closed")
	assert.Zero(t, b.Subscribers())

	b.Broadcast("ignored")
}
