package reqstate

import (
	"errors"
	"testing"
)

func TestBeginBlocksDoubleSubmit(t *testing.T) {
	tracker := NewTracker()
	if err := tracker.Begin("submit"); err != nil {
		t.Fatalf("first begin: %v", err)
	}
	if err := tracker.Begin("submit"); !errors.Is(err, ErrInFlight) {
		t.Fatalf("second begin = %v, want ErrInFlight", err)
	}
	tracker.Finish("submit", nil)
	if tracker.State("submit") != Succeeded {
		t.Fatalf("state = %v", tracker.State("submit"))
	}
	if err := tracker.Begin("submit"); err != nil {
		t.Fatalf("begin after finish: %v", err)
	}
}

func TestFinishRecordsFailure(t *testing.T) {
	tracker := NewTracker()
	_ = tracker.Begin("submit")
	tracker.Finish("submit", errors.New("boom"))
	if tracker.State("submit") != Failed {
		t.Fatalf("state = %v", tracker.State("submit"))
	}
}

func TestOperationsAreIndependent(t *testing.T) {
	tracker := NewTracker()
	_ = tracker.Begin("submit")
	if err := tracker.Begin("availability"); err != nil {
		t.Fatalf("unrelated op blocked: %v", err)
	}
}

func TestDo(t *testing.T) {
	tracker := NewTracker()
	calls := 0
	err := tracker.Do("submit", func() error {
		calls++
		return tracker.Do("submit", func() error {
			calls++
			return nil
		})
	})
	if !errors.Is(err, ErrInFlight) {
		t.Fatalf("re-entrant Do = %v, want ErrInFlight", err)
	}
	if calls != 1 {
		t.Fatalf("inner fn ran %d times", calls)
	}
	if tracker.State("submit") != Failed {
		t.Fatalf("state = %v", tracker.State("submit"))
	}
}

func TestReset(t *testing.T) {
	tracker := NewTracker()
	_ = tracker.Begin("submit")
	tracker.Reset("submit")
	if tracker.State("submit") != Idle {
		t.Fatalf("state after reset = %v", tracker.State("submit"))
	}
}
