// Package availability drives the table search on the reservation
// screen. Queries fire only once the form holds a date and a valid
// in-window time, debounced so a burst of edits costs one request.
package availability

import (
	"context"
	"log"
	"sync"
	"time"

	"bellatavola/internal/reservation/hours"
	reservationstore "bellatavola/internal/reservation/store"
)

const DefaultDebounce = 500 * time.Millisecond

type Query struct {
	Date      string
	Time      string
	PartySize int
	TableType string
}

// Ready reports whether the query is complete enough to send.
func (q Query) Ready() bool {
	if q.Date == "" || q.PartySize < 1 {
		return false
	}
	return hours.InOperatingWindow(q.Time)
}

type Fetcher func(ctx context.Context, query Query) (reservationstore.AvailabilityResult, error)

type Watcher struct {
	mu       sync.Mutex
	fetch    Fetcher
	onUpdate func(reservationstore.AvailabilityResult)
	debounce time.Duration
	timer    *time.Timer
	query    Query
	stopped  bool
}

// NewWatcher wires a fetcher to a result callback. The callback runs on
// the watcher's goroutine; screens copy what they need out of it.
func NewWatcher(fetch Fetcher, onUpdate func(reservationstore.AvailabilityResult), debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{fetch: fetch, onUpdate: onUpdate, debounce: debounce}
}

// Update records a form change and restarts the debounce window. An
// incomplete query clears current results instead of querying.
func (w *Watcher) Update(query Query) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.query = query
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if !query.Ready() {
		w.onUpdate(reservationstore.AvailabilityResult{})
		return
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.run(query) })
}

// Stop cancels any pending query; used when the screen unmounts.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) run(query Query) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := w.fetch(ctx, query)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || w.query != query {
		// The form changed while the request was in flight.
		return
	}
	if err != nil {
		// Speculative lookup: log and clear, never alert.
		log.Printf("availability query failed: %v", err)
		w.onUpdate(reservationstore.AvailabilityResult{})
		return
	}
	w.onUpdate(result)
}
