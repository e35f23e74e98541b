package event

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// subscriberBuffer is how many audit events a subscriber may fall behind
// before the bus starts dropping for it.
const subscriberBuffer = 256

type subscriber struct {
	name    string
	ch      chan Event
	dropped atomic.Uint64
}

// InMemoryBus fans events out to named subscribers (the audit log, the
// Kafka forwarder). Each subscriber sees events in publish order. Publish
// never blocks a request: a subscriber whose buffer is full loses the
// event and its drop count goes up.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers []*subscriber
	closed      bool
}

func NewBus() *InMemoryBus {
	return &InMemoryBus{}
}

func (b *InMemoryBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subscribers {
		select {
		case sub.ch <- e:
		default:
			// Log the first loss and then every hundredth.
			if n := sub.dropped.Add(1); n == 1 || n%100 == 0 {
				slog.Warn("event dropped, subscriber is behind",
					"subscriber", sub.name, "event_type", e.Type, "actor_id", e.ActorID, "dropped_total", n)
			}
		}
	}
}

// Subscribe registers name for every later event. The returned function
// removes the subscription and closes the channel; it is safe to call after
// Close.
func (b *InMemoryBus) Subscribe(name string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber{name: name, ch: make(chan Event, subscriberBuffer)}
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	b.subscribers = append(b.subscribers, sub)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.removeLocked(sub)
		})
	}

	return sub.ch, unsubscribe
}

// Close ends every subscription so audit and forwarding loops return.
// Events published afterwards are discarded.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, sub := range b.subscribers {
		close(sub.ch)
		if n := sub.dropped.Load(); n > 0 {
			slog.Warn("event subscriber lost events", "subscriber", sub.name, "dropped_total", n)
		}
	}
	b.subscribers = nil
}

// Dropped reports lost events per subscriber name.
func (b *InMemoryBus) Dropped() map[string]uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]uint64, len(b.subscribers))
	for _, sub := range b.subscribers {
		out[sub.name] += sub.dropped.Load()
	}
	return out
}

func (b *InMemoryBus) subscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *InMemoryBus) removeLocked(target *subscriber) {
	for i, sub := range b.subscribers {
		if sub == target {
			close(sub.ch)
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}
