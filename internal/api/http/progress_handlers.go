package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	auth "github.com/petitmaker/training-backend/internal/auth/middleware"
	"github.com/petitmaker/training-backend/internal/progress"
)

// WatchRegistry tracks the open progress watchers per learner so that
// document handlers can pause polling while a document view is open.
type WatchRegistry struct {
	mu sync.Mutex
	m  map[string][]*progress.Refresher
}

func NewWatchRegistry() *WatchRegistry {
	return &WatchRegistry{m: map[string][]*progress.Refresher{}}
}

func (wr *WatchRegistry) add(learnerID string, r *progress.Refresher) (remove func()) {
	wr.mu.Lock()
	wr.m[learnerID] = append(wr.m[learnerID], r)
	wr.mu.Unlock()
	return func() {
		wr.mu.Lock()
		defer wr.mu.Unlock()
		list := wr.m[learnerID]
		for i, x := range list {
			if x == r {
				wr.m[learnerID] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(wr.m[learnerID]) == 0 {
			delete(wr.m, learnerID)
		}
	}
}

func (wr *WatchRegistry) Pause(learnerID string) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	for _, r := range wr.m[learnerID] {
		r.Pause()
	}
}

func (wr *WatchRegistry) Resume(learnerID string) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	for _, r := range wr.m[learnerID] {
		r.Resume()
	}
}

// GET /progress
func GetProgressHandler(tracker *progress.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := auth.SubjectFromContext(r.Context())
		snap, err := tracker.Snapshot(r.Context(), learnerID)
		if err != nil {
			svcError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// GET /progress/watch — SSE stream of snapshots, one per poll interval.
// Paused while the learner has a document open.
func WatchProgressHandler(tracker *progress.Tracker, reg *WatchRegistry, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		learnerID := auth.SubjectFromContext(r.Context())

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ref := progress.NewRefresher(interval, func(ctx context.Context) (progress.Snapshot, error) {
			return tracker.Snapshot(ctx, learnerID)
		})
		defer reg.add(learnerID, ref)()

		ref.Run(r.Context(), func(snap progress.Snapshot, err error) {
			if err != nil {
				// transient store failure: keep the stream open, the next
				// tick retries
				return
			}
			buf, err := json.Marshal(snap)
			if err != nil {
				return
			}
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(buf)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		})
	}
}

// POST /progress/internal-rules/acknowledge
func AcknowledgeRulesHandler(tracker *progress.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := auth.SubjectFromContext(r.Context())
		if err := tracker.AcknowledgeInternalRules(r.Context(), learnerID); err != nil {
			svcError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"acknowledged": true})
	}
}
