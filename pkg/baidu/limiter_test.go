package baidu

import (
	"context"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// fakeClock advances only when a waiter sleeps, so admission timing is
// deterministic
type fakeClock struct {
	mu  sync.Mutex
	t   time.Time
	err error
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.t = c.t.Add(d)
	return nil
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(n int, clock *fakeClock) *limiter {
	l := newLimiter(n)
	l.now = clock.now
	l.sleep = clock.sleep
	return l
}

func TestLimiter_AdmitsUpToQuota(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(3, clock)

	start := clock.now()
	for i := 0; i < 3; i++ {
		if err := l.acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		l.release()
	}
	if got := clock.now().Sub(start); got != 0 {
		t.Errorf("first %d starts should not wait, slept %v", 3, got)
	}

	// The fourth start in the same window must wait for the rollover
	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("acquire after quota: %v", err)
	}
	l.release()
	if got := clock.now().Sub(start); got != window {
		t.Errorf("fourth start waited %v, want %v", got, window)
	}
}

func TestLimiter_WindowRefillsWithTime(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(2, clock)

	for i := 0; i < 2; i++ {
		if err := l.acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		l.release()
	}

	// Past the window the quota is fresh again
	clock.advance(window)
	start := clock.now()
	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("acquire after rollover: %v", err)
	}
	l.release()
	if got := clock.now().Sub(start); got != 0 {
		t.Errorf("post-rollover start slept %v", got)
	}
}

func TestLimiter_CancelledWait(t *testing.T) {
	clock := newFakeClock()
	clock.err = context.Canceled
	l := newTestLimiter(1, clock)

	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	l.release()

	if err := l.acquire(context.Background()); err != context.Canceled {
		t.Fatalf("cancelled wait: got %v", err)
	}

	// The aborted wait must give its in-flight slot back
	if !l.sem.TryAcquire(1) {
		t.Error("semaphore slot leaked after cancelled wait")
	}
	l.sem.Release(1)
}

func TestLimiter_InFlightBound(t *testing.T) {
	l := newLimiter(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var inFlight, peak int

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.do(ctx, func() error {
				mu.Lock()
				inFlight++
				if inFlight > peak {
					peak = inFlight
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("do: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak > 2 {
		t.Errorf("peak in-flight %d exceeds quota", peak)
	}
}

func TestLimiter_RollingWindowProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(t, "quota")
		requests := rapid.IntRange(1, 30).Draw(t, "requests")

		clock := newFakeClock()
		l := newTestLimiter(n, clock)

		var starts []time.Time
		for i := 0; i < requests; i++ {
			// Arrivals bunch up or spread out between acquisitions
			clock.advance(time.Duration(rapid.IntRange(0, 400).Draw(t, "gap")) * time.Millisecond)
			if err := l.acquire(context.Background()); err != nil {
				t.Fatalf("acquire: %v", err)
			}
			starts = append(starts, clock.now())
			l.release()
		}

		// No rolling one-second window may contain more than n starts
		for i := range starts {
			count := 0
			for j := i; j < len(starts) && starts[j].Sub(starts[i]) < window; j++ {
				count++
			}
			if count > n {
				t.Fatalf("window starting at %v holds %d starts, quota %d", starts[i], count, n)
			}
		}
	})
}
