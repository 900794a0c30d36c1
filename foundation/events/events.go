// Package events fans values out to any number of subscribers without ever
// blocking the sender.
package events

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownSubscriber is returned when an id was never acquired or has
// already been released.
var ErrUnknownSubscriber = errors.New("events: unknown subscriber")

// queueLen is how far a subscriber can fall behind before values are
// dropped for it.
const queueLen = 100

// subscriber is a registered receiver and the number of values it missed.
type subscriber[T any] struct {
	ch      chan T
	dropped uint64
}

// Events maintains the set of subscribers for values of type T.
type Events[T any] struct {
	mu   sync.Mutex
	subs map[string]*subscriber[T]
}

// New constructs an empty set of subscribers.
func New[T any]() *Events[T] {
	return &Events[T]{
		subs: make(map[string]*subscriber[T]),
	}
}

// Acquire registers the id and returns the channel its values arrive on.
// Acquiring an id twice returns the same channel.
func (evt *Events[T]) Acquire(id string) <-chan T {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.subs[id]; exists {
		return sub.ch
	}

	sub := subscriber[T]{ch: make(chan T, queueLen)}
	evt.subs[id] = &sub

	return sub.ch
}

// Release unregisters the id and closes its channel. It returns how many
// values the subscriber missed over its lifetime.
func (evt *Events[T]) Release(id string) (uint64, error) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.subs[id]
	if !exists {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSubscriber, id)
	}

	delete(evt.subs, id)
	close(sub.ch)

	return sub.dropped, nil
}

// Send queues v for every subscriber and returns the number of subscribers
// whose queue was full. Those subscribers miss v.
func (evt *Events[T]) Send(v T) int {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	var behind int
	for _, sub := range evt.subs {
		select {
		case sub.ch <- v:
		default:
			sub.dropped++
			behind++
		}
	}

	return behind
}

// Subscribers returns the number of registered subscribers.
func (evt *Events[T]) Subscribers() int {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	return len(evt.subs)
}

// Shutdown releases every subscriber.
func (evt *Events[T]) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.subs {
		delete(evt.subs, id)
		close(sub.ch)
	}
}
