package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"TraderBlock/internal/domain/models"
)

const (
	ScopeMinute = "minute"
	ScopeDay    = "day"

	DefaultPerMinute = 10
	DefaultPerDay    = 1000
)

// RateLimitExceeded is returned by Inbound.Enforce when a window is full.
type RateLimitExceeded struct {
	Scope string
	Limit int
}

func (e *RateLimitExceeded) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s", e.Limit, e.Scope)
}

type window struct {
	index int64
	count int
}

type identityBuckets struct {
	minute window
	day    window
}

// Inbound enforces fixed per-minute and per-day windows per client identity.
// A window is identified by unix seconds divided by its length; only the
// current window is kept, an older one is reset on first use.
type Inbound struct {
	mu        sync.Mutex
	perMinute int
	perDay    int
	buckets   map[string]*identityBuckets
	total     atomic.Int64
	now       func() time.Time
}

type InboundOption func(*Inbound)

// WithClock overrides the time source.
func WithClock(now func() time.Time) InboundOption {
	return func(l *Inbound) { l.now = now }
}

func NewInbound(perMinute, perDay int, opts ...InboundOption) *Inbound {
	if perMinute <= 0 {
		perMinute = DefaultPerMinute
	}
	if perDay <= 0 {
		perDay = DefaultPerDay
	}
	l := &Inbound{
		perMinute: perMinute,
		perDay:    perDay,
		buckets:   make(map[string]*identityBuckets),
		now:       time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Enforce counts one request for identity. The minute window is checked
// first; a rejected request still consumes its slot.
func (l *Inbound) Enforce(identity string) error {
	sec := l.now().Unix()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[identity]
	if !ok {
		b = &identityBuckets{}
		l.buckets[identity] = b
	}
	if !hit(&b.minute, sec/60, l.perMinute) {
		return &RateLimitExceeded{Scope: ScopeMinute, Limit: l.perMinute}
	}
	if !hit(&b.day, sec/86400, l.perDay) {
		return &RateLimitExceeded{Scope: ScopeDay, Limit: l.perDay}
	}
	l.total.Add(1)
	return nil
}

func hit(w *window, index int64, limit int) bool {
	if w.index != index {
		w.index = index
		w.count = 0
	}
	w.count++
	return w.count <= limit
}

func (l *Inbound) Stats() models.RateLimitStats {
	return models.RateLimitStats{
		PerMinuteLimit: l.perMinute,
		PerDayLimit:    l.perDay,
		TotalRequests:  l.total.Load(),
	}
}
