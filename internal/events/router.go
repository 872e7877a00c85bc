package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the default channel buffer size for subscribers.
const DefaultBufferSize = 100

// Router fans events out from the controller to every subscriber.
// Emit never blocks: a subscriber whose buffer is full misses the event and
// the miss is counted in Dropped.
type Router struct {
	mu         sync.RWMutex
	subs       map[<-chan Event]chan Event
	bufferSize int
	closed     bool
	dropped    atomic.Int64
}

// NewRouter creates a router. A non-positive bufferSize selects DefaultBufferSize.
func NewRouter(bufferSize int) *Router {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Router{
		subs:       make(map[<-chan Event]chan Event),
		bufferSize: bufferSize,
	}
}

// Emit publishes an event to all subscribers. It is safe for concurrent use
// and a no-op after Close.
func (r *Router) Emit(event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	for _, ch := range r.subs {
		select {
		case ch <- event:
			continue
		default:
		}

		n := r.dropped.Add(1)
		// A stalled view misses a tick every second; only warn on the first
		// and on anything that is not a tick.
		level := slog.LevelWarn
		if IsNoisy(event) && n > 1 {
			level = slog.LevelDebug
		}
		slog.Log(context.Background(), level, "event dropped: subscriber channel full",
			"event_type", event.Type(),
			"dropped", n,
		)
	}
}

// Subscribe returns a channel with the router's default buffer size.
// The channel is closed by Unsubscribe or Close.
func (r *Router) Subscribe() <-chan Event {
	return r.SubscribeBuffered(r.bufferSize)
}

// SubscribeBuffered returns a channel with the given buffer size. Ticks arrive
// once per second, so consumers that fall behind, such as the state sink,
// should ask for a larger buffer.
func (r *Router) SubscribeBuffered(size int) <-chan Event {
	ch := make(chan Event, size)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		close(ch)
		return ch
	}
	r.subs[ch] = ch
	return ch
}

// Unsubscribe stops delivery to ch and closes it. Channels that are unknown
// or already removed are ignored.
func (r *Router) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub, ok := r.subs[ch]; ok {
		delete(r.subs, ch)
		close(sub)
	}
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (r *Router) Dropped() int64 {
	return r.dropped.Load()
}

// Close closes every subscriber channel. Later Emits are no-ops and later
// subscriptions are returned already closed. Close is idempotent.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for key, ch := range r.subs {
		close(ch)
		delete(r.subs, key)
	}
}
