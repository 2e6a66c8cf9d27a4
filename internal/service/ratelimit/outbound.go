package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultOutboundCalls  = 8
	DefaultOutboundWindow = 60 * time.Second
)

// Outbound is a sliding-window limiter for upstream calls. Acquire blocks
// until a slot is free instead of rejecting.
type Outbound struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  []time.Time
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

type OutboundOption func(*Outbound)

// WithOutboundClock overrides the time source and the wait function.
func WithOutboundClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) OutboundOption {
	return func(o *Outbound) {
		if now != nil {
			o.now = now
		}
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

func NewOutbound(limit int, window time.Duration, opts ...OutboundOption) *Outbound {
	if limit <= 0 {
		limit = DefaultOutboundCalls
	}
	if window <= 0 {
		window = DefaultOutboundWindow
	}
	o := &Outbound{
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Acquire records one call, waiting first if the window is full. The lock
// is held while waiting so concurrent callers queue behind each other.
func (o *Outbound) Acquire(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	o.prune(now)
	if len(o.calls) >= o.limit {
		wait := o.window - now.Sub(o.calls[0])
		if wait > 0 {
			if err := o.sleep(ctx, wait); err != nil {
				return err
			}
		}
		now = o.now()
		o.prune(now)
	}
	o.calls = append(o.calls, now)
	return nil
}

func (o *Outbound) prune(now time.Time) {
	cut := 0
	for cut < len(o.calls) && now.Sub(o.calls[cut]) >= o.window {
		cut++
	}
	if cut > 0 {
		o.calls = append(o.calls[:0], o.calls[cut:]...)
	}
}

// InFlight reports how many calls are inside the current window.
func (o *Outbound) InFlight() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prune(o.now())
	return len(o.calls)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
