package client

import (
	"errors"
	"sync/atomic"
)

// ErrInFlight is returned locally when an action is already outstanding.
var ErrInFlight = errors.New("a generation is already in progress")

// Guard is a single in-flight flag for one user action. It is advisory;
// the ledger's uniqueness constraint is what rejects real duplicates.
type Guard struct {
	busy atomic.Bool
}

// TryAcquire marks the action in flight. It reports false if it already was.
func (g *Guard) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

func (g *Guard) Release() {
	g.busy.Store(false)
}

func (g *Guard) InFlight() bool {
	return g.busy.Load()
}

// Do runs fn unless another call is outstanding, in which case it returns
// ErrInFlight without running fn.
func (g *Guard) Do(fn func() error) error {
	if !g.TryAcquire() {
		return ErrInFlight
	}
	defer g.Release()
	return fn()
}
