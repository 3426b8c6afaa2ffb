package progress

import (
	"context"
	"sync"
	"time"
)

// Refresher polls a snapshot on a fixed interval. It is paused while the
// learner has a document view open, so a refresh never races a signing
// operation in flight, and stops when its context is canceled.
type Refresher struct {
	interval time.Duration
	fetch    func(ctx context.Context) (Snapshot, error)

	mu     sync.Mutex
	paused bool
}

func NewRefresher(interval time.Duration, fetch func(ctx context.Context) (Snapshot, error)) *Refresher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Refresher{interval: interval, fetch: fetch}
}

func (r *Refresher) Pause() {
	r.mu.Lock()
	r.paused = true
	r.mu.Unlock()
}

func (r *Refresher) Resume() {
	r.mu.Lock()
	r.paused = false
	r.mu.Unlock()
}

func (r *Refresher) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// Run emits one snapshot immediately, then one per tick, calling emit for
// each. Ticks while paused are skipped. Fetch errors are delivered to
// emit with a zero snapshot so the consumer can decide to retry.
func (r *Refresher) Run(ctx context.Context, emit func(Snapshot, error)) {
	tick := time.NewTicker(r.interval)
	defer tick.Stop()

	if !r.Paused() {
		emit(r.fetch(ctx))
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if r.Paused() {
				continue
			}
			emit(r.fetch(ctx))
		}
	}
}
