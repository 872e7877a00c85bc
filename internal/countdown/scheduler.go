package countdown

import (
	"sync"
	"time"
)

// Handle owns one repeating schedule. Stop cancels it; after Stop returns the
// callback is not invoked again. Stop is safe to call more than once.
type Handle interface {
	Stop()
}

// Scheduler invokes fn every interval until the returned handle is stopped.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Handle
}

// TickerScheduler is the wall-clock Scheduler backed by time.Ticker.
type TickerScheduler struct{}

// Every starts a goroutine that calls fn on each tick.
func (TickerScheduler) Every(interval time.Duration, fn func()) Handle {
	h := &tickerHandle{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go h.loop(fn)
	return h
}

type tickerHandle struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (h *tickerHandle) loop(fn func()) {
	for {
		select {
		case <-h.done:
			return
		case <-h.ticker.C:
			// A tick and Stop can be ready together; prefer Stop.
			select {
			case <-h.done:
				return
			default:
			}
			fn()
		}
	}
}

// Stop releases the ticker.
func (h *tickerHandle) Stop() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
}
