// Package livequery provides live query subscriptions over shared storage.
//
// A Hub broadcasts change signals per topic. Stream pairs a Hub with a query
// function: it emits an initial snapshot immediately, then re-runs the query
// and emits a fresh snapshot after every signal on one of its topics, until
// the subscriber cancels. Snapshots for one subscription are delivered in
// query order; a slow consumer observes the newest pending snapshot rather
// than a backlog.
package livequery

import (
	"context"
	"sync"
)

// Hub broadcasts topic change signals to registered waiters.
type Hub struct {
	mu      sync.Mutex
	nextID  uint64
	waiters map[uint64]*waiter
}

type waiter struct {
	topics map[string]struct{}
	wake   chan struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{waiters: make(map[uint64]*waiter)}
}

// Notify signals every waiter registered on any of the given topics.
// Pending signals coalesce; Notify never blocks.
func (h *Hub) Notify(topics ...string) {
	if h == nil || len(topics) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range h.waiters {
		if !w.listensTo(topics) {
			continue
		}
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}

// Register subscribes a waiter to the given topics. The returned release
// function must be called exactly once when the waiter is done.
func (h *Hub) Register(topics ...string) (wake <-chan struct{}, release func()) {
	w := &waiter{
		topics: make(map[string]struct{}, len(topics)),
		wake:   make(chan struct{}, 1),
	}
	for _, topic := range topics {
		w.topics[topic] = struct{}{}
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.waiters[id] = w
	h.mu.Unlock()

	return w.wake, func() {
		h.mu.Lock()
		delete(h.waiters, id)
		h.mu.Unlock()
	}
}

func (w *waiter) listensTo(topics []string) bool {
	for _, topic := range topics {
		if _, ok := w.topics[topic]; ok {
			return true
		}
	}
	return false
}

// Subscription is a handle on one live query. Snapshots arrive on Updates
// until Cancel is called; Cancel releases the hub registration and closes
// the updates channel.
type Subscription[T any] struct {
	updates    chan T
	done       chan struct{}
	cancelOnce sync.Once
}

// Updates returns the snapshot channel. It is closed after Cancel.
func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// Cancel stops the subscription. Safe to call more than once.
func (s *Subscription[T]) Cancel() {
	s.cancelOnce.Do(func() {
		close(s.done)
	})
}

// push delivers a snapshot without blocking, replacing an unconsumed older
// snapshot if the subscriber is slow.
func (s *Subscription[T]) push(snapshot T) {
	for {
		select {
		case s.updates <- snapshot:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// Stream opens a live subscription for query, re-evaluated on every signal
// to any of the given topics. The initial snapshot is queried synchronously
// so subscribers always observe current state first; a failing initial query
// fails Stream itself. Re-query failures after that are transient: the
// subscription keeps its last snapshot and waits for the next signal.
func Stream[T any](ctx context.Context, hub *Hub, topics []string, query func(context.Context) (T, error)) (*Subscription[T], error) {
	wake, release := hub.Register(topics...)

	initial, err := query(ctx)
	if err != nil {
		release()
		return nil, err
	}

	sub := &Subscription[T]{
		updates: make(chan T, 1),
		done:    make(chan struct{}),
	}
	sub.push(initial)

	go func() {
		defer release()
		defer close(sub.updates)
		for {
			select {
			case <-sub.done:
				return
			case <-ctx.Done():
				return
			case <-wake:
				snapshot, err := query(ctx)
				if err != nil {
					continue
				}
				sub.push(snapshot)
			}
		}
	}()

	return sub, nil
}
