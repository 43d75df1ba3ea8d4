// Package reqstate tracks per-operation request state so duplicate
// submissions are a checked invariant instead of an ad hoc boolean flag.
package reqstate

import (
	"errors"
	"sync"
)

type State int

const (
	Idle State = iota
	Pending
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

var ErrInFlight = errors.New("operation already in flight")

// Tracker holds the state of named operations. One tracker per screen.
type Tracker struct {
	mu  sync.Mutex
	ops map[string]State
}

func NewTracker() *Tracker {
	return &Tracker{ops: make(map[string]State)}
}

// Begin marks an operation pending. A second Begin before Finish fails,
// which is what blocks double submits.
func (t *Tracker) Begin(op string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ops[op] == Pending {
		return ErrInFlight
	}
	t.ops[op] = Pending
	return nil
}

// Finish records the outcome of a pending operation.
func (t *Tracker) Finish(op string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.ops[op] = Failed
		return
	}
	t.ops[op] = Succeeded
}

// Reset returns an operation to idle, e.g. when its screen unmounts.
func (t *Tracker) Reset(op string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ops, op)
}

func (t *Tracker) State(op string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ops[op]
}

// Do runs fn under the tracker, refusing re-entrant calls for the same
// operation and recording the outcome.
func (t *Tracker) Do(op string, fn func() error) error {
	if err := t.Begin(op); err != nil {
		return err
	}
	err := fn()
	t.Finish(op, err)
	return err
}
