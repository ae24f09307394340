package extraction

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

type Status string

const (
	Idle     Status = "idle"
	InFlight Status = "in_flight"
)

var ErrRequestInFlight = errors.New("extraction request already in flight")

// Gate allows one outstanding extraction at a time. A second caller is
// rejected with ErrRequestInFlight rather than queued.
type Gate struct {
	adapter Adapter
	timeout time.Duration
	busy    atomic.Bool
}

// NewGate wraps a. A zero timeout leaves the deadline to ctx.
func NewGate(a Adapter, timeout time.Duration) *Gate {
	return &Gate{adapter: a, timeout: timeout}
}

func (g *Gate) Status() Status {
	if g.busy.Load() {
		return InFlight
	}
	return Idle
}

func (g *Gate) Extract(ctx context.Context, message string) (Outcome, error) {
	if !g.busy.CompareAndSwap(false, true) {
		return Outcome{}, ErrRequestInFlight
	}
	defer g.busy.Store(false)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return g.adapter.Extract(ctx, message)
}
