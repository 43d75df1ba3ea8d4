package availability

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	reservationmodels "bellatavola/internal/reservation/models"
	reservationstore "bellatavola/internal/reservation/store"
)

func TestQueryReady(t *testing.T) {
	cases := []struct {
		query Query
		want  bool
	}{
		{Query{Date: "2026-09-12", Time: "21:00", PartySize: 2}, true},
		{Query{Date: "2026-09-12", Time: "02:30", PartySize: 2}, true},
		{Query{Date: "", Time: "21:00", PartySize: 2}, false},
		{Query{Date: "2026-09-12", Time: "12:00", PartySize: 2}, false},
		{Query{Date: "2026-09-12", Time: "24:00", PartySize: 2}, false},
		{Query{Date: "2026-09-12", Time: "21:00", PartySize: 0}, false},
	}
	for _, tt := range cases {
		if got := tt.query.Ready(); got != tt.want {
			t.Fatalf("Ready(%+v) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestDebounceCollapsesEdits(t *testing.T) {
	var fetches int32
	done := make(chan reservationstore.AvailabilityResult, 1)
	fetch := func(ctx context.Context, query Query) (reservationstore.AvailabilityResult, error) {
		atomic.AddInt32(&fetches, 1)
		return reservationstore.AvailabilityResult{
			Tables: []reservationmodels.Table{{TableID: "table-1"}},
		}, nil
	}
	w := NewWatcher(fetch, func(result reservationstore.AvailabilityResult) {
		if len(result.Tables) > 0 {
			done <- result
		}
	}, 20*time.Millisecond)
	defer w.Stop()

	base := Query{Date: "2026-09-12", PartySize: 2}
	for _, at := range []string{"20:00", "20:30", "21:00"} {
		q := base
		q.Time = at
		w.Update(q)
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced query never fired")
	}
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Fatalf("expected 1 fetch, got %d", n)
	}
}

func TestIncompleteQueryClearsResults(t *testing.T) {
	var mu sync.Mutex
	var last reservationstore.AvailabilityResult
	fetch := func(ctx context.Context, query Query) (reservationstore.AvailabilityResult, error) {
		t.Error("incomplete query must not fetch")
		return reservationstore.AvailabilityResult{}, nil
	}
	w := NewWatcher(fetch, func(result reservationstore.AvailabilityResult) {
		mu.Lock()
		last = result
		mu.Unlock()
	}, 10*time.Millisecond)
	defer w.Stop()

	w.Update(Query{Date: "2026-09-12", Time: "12:00", PartySize: 2})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(last.Tables) != 0 || len(last.Suggestions) != 0 {
		t.Fatalf("results not cleared: %+v", last)
	}
}

func TestFetchFailureClearsSilently(t *testing.T) {
	updates := make(chan reservationstore.AvailabilityResult, 2)
	fetch := func(ctx context.Context, query Query) (reservationstore.AvailabilityResult, error) {
		return reservationstore.AvailabilityResult{}, errors.New("backend down")
	}
	w := NewWatcher(fetch, func(result reservationstore.AvailabilityResult) {
		updates <- result
	}, 10*time.Millisecond)
	defer w.Stop()

	w.Update(Query{Date: "2026-09-12", Time: "21:00", PartySize: 2})

	select {
	case result := <-updates:
		if len(result.Tables) != 0 || len(result.Suggestions) != 0 {
			t.Fatalf("failure must clear results, got %+v", result)
		}
	case <-time.After(time.Second):
		t.Fatal("failed query never reported cleared results")
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	updates := make(chan reservationstore.AvailabilityResult, 2)
	fetch := func(ctx context.Context, query Query) (reservationstore.AvailabilityResult, error) {
		if query.Time == "20:00" {
			<-release
		}
		return reservationstore.AvailabilityResult{
			Tables: []reservationmodels.Table{{TableID: "for-" + query.Time}},
		}, nil
	}
	w := NewWatcher(fetch, func(result reservationstore.AvailabilityResult) {
		updates <- result
	}, 5*time.Millisecond)
	defer w.Stop()

	w.Update(Query{Date: "2026-09-12", Time: "20:00", PartySize: 2})
	time.Sleep(20 * time.Millisecond)
	w.Update(Query{Date: "2026-09-12", Time: "21:00", PartySize: 2})

	var fresh reservationstore.AvailabilityResult
	select {
	case fresh = <-updates:
	case <-time.After(time.Second):
		t.Fatal("fresh query never answered")
	}
	close(release)
	time.Sleep(20 * time.Millisecond)

	if fresh.Tables[0].TableID != "for-21:00" {
		t.Fatalf("unexpected result: %+v", fresh)
	}
	select {
	case stale := <-updates:
		t.Fatalf("stale response surfaced: %+v", stale)
	default:
	}
}
