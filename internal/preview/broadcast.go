package preview

import (
	"context"
	"sync"
)

// Broadcaster fans messages out to subscribers. A subscriber whose buffer
// is full misses the message and is dropped; the broadcast never blocks.
type Broadcaster[T any] struct {
	mu          sync.RWMutex
	subscribers map[*subscription[T]]struct{}
	bufferSize  int
	closed      bool
}

type subscription[T any] struct {
	once sync.Once
	ch   chan T
}

func (s *subscription[T]) close() {
	s.once.Do(func() { close(s.ch) })
}

// NewBroadcaster returns a Broadcaster with bufferSize slots per
// subscriber (at least one).
func NewBroadcaster[T any](bufferSize int) *Broadcaster[T] {
	return &Broadcaster[T]{
		subscribers: make(map[*subscription[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
	}
}

// Subscribe returns a channel receiving every later message. The channel is
// closed when ctx ends, when the subscriber falls behind, or on Close.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) <-chan T {
	sub := &subscription[T]{ch: make(chan T, b.bufferSize)}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.close()
		return sub.ch
	}

	b.subscribers[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.unsubscribe(sub)
	}()

	return sub.ch
}

// Broadcast sends msg to every subscriber without blocking.
func (b *Broadcaster[T]) Broadcast(msg T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub.ch <- msg:
		default:
			go b.unsubscribe(sub)
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers)
}

// Close closes every subscriber; later subscriptions are closed at once.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for sub := range b.subscribers {
		sub.close()
	}

	clear(b.subscribers)
}

func (b *Broadcaster[T]) unsubscribe(sub *subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	sub.close()
}
