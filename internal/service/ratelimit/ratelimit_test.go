package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TraderBlock/internal/domain/models"
	"TraderBlock/internal/domain/repository"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	// Aligned to a minute and day boundary.
	return &fakeClock{t: time.Unix(1_700_006_400, 0)}
}

func TestInboundMinuteWindow(t *testing.T) {
	clk := newClock()
	l := NewInbound(10, 1000, WithClock(clk.Now))

	for i := 0; i < 10; i++ {
		if err := l.Enforce("1.2.3.4"); err != nil {
			t.Fatalf("request %d rejected: %v", i+1, err)
		}
	}
	err := l.Enforce("1.2.3.4")
	var rl *RateLimitExceeded
	if !errors.As(err, &rl) || rl.Scope != ScopeMinute {
		t.Fatalf("expected minute limit, got %v", err)
	}
	if err := l.Enforce("5.6.7.8"); err != nil {
		t.Fatalf("other identity must not be affected: %v", err)
	}

	clk.Advance(time.Minute)
	if err := l.Enforce("1.2.3.4"); err != nil {
		t.Fatalf("new minute should reset: %v", err)
	}
	if got := l.Stats().TotalRequests; got != 12 {
		t.Fatalf("expected 12 accepted requests, got %d", got)
	}
}

func TestInboundDayWindow(t *testing.T) {
	clk := newClock()
	l := NewInbound(10, 25, WithClock(clk.Now))

	accepted := 0
	var last error
	for i := 0; i < 30; i++ {
		if err := l.Enforce("id"); err != nil {
			last = err
			break
		}
		accepted++
		if accepted%10 == 0 {
			clk.Advance(time.Minute)
		}
	}
	var rl *RateLimitExceeded
	if !errors.As(last, &rl) || rl.Scope != ScopeDay {
		t.Fatalf("expected day limit, got %v", last)
	}
	if accepted != 25 {
		t.Fatalf("expected 25 accepted, got %d", accepted)
	}

	clk.Advance(24 * time.Hour)
	if err := l.Enforce("id"); err != nil {
		t.Fatalf("new day should reset: %v", err)
	}
}

func TestInboundRejectionConsumesSlot(t *testing.T) {
	clk := newClock()
	l := NewInbound(1, 1000, WithClock(clk.Now))
	_ = l.Enforce("id")
	_ = l.Enforce("id")
	_ = l.Enforce("id")
	st := l.Stats()
	if st.TotalRequests != 1 || st.PerMinuteLimit != 1 || st.PerDayLimit != 1000 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestInboundDefaults(t *testing.T) {
	st := NewInbound(0, 0).Stats()
	if st.PerMinuteLimit != DefaultPerMinute || st.PerDayLimit != DefaultPerDay {
		t.Fatalf("unexpected defaults %+v", st)
	}
}

func TestOutboundWaitsForOldest(t *testing.T) {
	clk := newClock()
	var waits []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		clk.Advance(d)
		return nil
	}
	o := NewOutbound(3, time.Minute, WithOutboundClock(clk.Now, sleep))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := o.Acquire(ctx); err != nil {
			t.Fatal(err)
		}
		clk.Advance(10 * time.Second)
	}
	if len(waits) != 0 {
		t.Fatalf("no wait expected below the limit, got %v", waits)
	}

	// now = start+30s, oldest = start → wait 30s
	if err := o.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if len(waits) != 1 || waits[0] != 30*time.Second {
		t.Fatalf("expected one 30s wait, got %v", waits)
	}
	if got := o.InFlight(); got != 3 {
		t.Fatalf("expected 3 calls in window, got %d", got)
	}
}

func TestOutboundCancel(t *testing.T) {
	clk := newClock()
	o := NewOutbound(1, time.Minute, WithOutboundClock(clk.Now, nil))
	if err := o.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := o.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := o.InFlight(); got != 1 {
		t.Fatalf("cancelled acquire must not record a call, got %d", got)
	}
}

func TestInboundConcurrentEnforce(t *testing.T) {
	clk := newClock()
	l := NewInbound(10, 1000, WithClock(clk.Now))

	const callers = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Enforce("1.2.3.4")
			var rl *RateLimitExceeded
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.As(err, &rl) && rl.Scope == ScopeMinute:
				rejected++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 10 || rejected != callers-10 {
		t.Fatalf("expected 10 accepted and %d rejected, got %d/%d", callers-10, accepted, rejected)
	}
	if got := l.Stats().TotalRequests; got != 10 {
		t.Fatalf("expected 10 total requests, got %d", got)
	}
}

func TestOutboundConcurrentAcquire(t *testing.T) {
	clk := newClock()
	start := clk.Now()
	var (
		mu    sync.Mutex
		waits []time.Duration
	)
	sleep := func(_ context.Context, d time.Duration) error {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		clk.Advance(d)
		return nil
	}
	o := NewOutbound(4, time.Minute, WithOutboundClock(clk.Now, sleep))

	const callers = 12
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := o.Acquire(context.Background()); err != nil {
				t.Errorf("acquire: %v", err)
			}
			if n := o.InFlight(); n > 4 {
				t.Errorf("%d calls inside one window", n)
			}
		}()
	}
	wg.Wait()

	// Three full windows: 4 calls at start, 4 at +1m, 4 at +2m.
	if len(waits) != 2 || waits[0] != time.Minute || waits[1] != time.Minute {
		t.Fatalf("expected two one-minute waits, got %v", waits)
	}
	if got := clk.Now().Sub(start); got != 2*time.Minute {
		t.Fatalf("expected clock at +2m, got %v", got)
	}
	if got := o.InFlight(); got != 4 {
		t.Fatalf("expected 4 calls in the last window, got %d", got)
	}
}

type stubFetcher struct {
	calls int
	err   error
}

func (s *stubFetcher) Name() string { return "stub" }

func (s *stubFetcher) FetchSeries(context.Context, string, repository.Interval, int) ([]models.Bar, error) {
	s.calls++
	return []models.Bar{{Close: 1}}, s.err
}

type upstreamRecorder struct {
	provider string
	calls    int
	lastErr  error
}

func (r *upstreamRecorder) RecordCacheLookup(string, bool) {}
func (r *upstreamRecorder) RecordRateLimited(string)       {}
func (r *upstreamRecorder) RecordUpstreamCall(p string, _ float64, err error) {
	r.provider, r.lastErr = p, err
	r.calls++
}
func (r *upstreamRecorder) RecordError(string)              {}
func (r *upstreamRecorder) RecordLastPrice(string, float64) {}
func (r *upstreamRecorder) RecordLatency(string, float64)   {}

func TestRateLimitedFetcher(t *testing.T) {
	clk := newClock()
	next := &stubFetcher{}
	rec := &upstreamRecorder{}
	f := NewRateLimitedFetcher(next, NewOutbound(2, time.Minute, WithOutboundClock(clk.Now, nil)), rec)

	for i := 0; i < 2; i++ {
		if _, err := f.FetchSeries(context.Background(), "AAPL", repository.Interval1Day, 10); err != nil {
			t.Fatal(err)
		}
	}
	if next.calls != 2 || rec.calls != 2 || rec.provider != "stub" {
		t.Fatalf("unexpected counts fetcher=%d metrics=%d provider=%q", next.calls, rec.calls, rec.provider)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.FetchSeries(ctx, "AAPL", repository.Interval1Day, 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation while the window is full, got %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("upstream must not be called when acquire fails")
	}
}
