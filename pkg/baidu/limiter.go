package baidu

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// window is the admission interval the quota applies to
const window = time.Second

// limiter admits calls under a per-endpoint quota: at most n calls in
// flight and at most n starts within any rolling one-second window.
// Admission waits indefinitely (backpressure over failure); only ctx
// cancellation aborts the wait. The window refills with time, not with
// request completions.
type limiter struct {
	n   int64
	sem *semaphore.Weighted

	mu     sync.Mutex
	starts []time.Time

	// injectable clock for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newLimiter(n int) *limiter {
	if n < 1 {
		n = 1
	}
	return &limiter{
		n:     int64(n),
		sem:   semaphore.NewWeighted(int64(n)),
		now:   time.Now,
		sleep: sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// acquire blocks until an in-flight slot is free and the rolling window
// admits a new start
func (l *limiter) acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	for {
		l.mu.Lock()
		now := l.now()

		expired := 0
		for expired < len(l.starts) && now.Sub(l.starts[expired]) >= window {
			expired++
		}
		if expired > 0 {
			l.starts = append(l.starts[:0], l.starts[expired:]...)
		}

		if int64(len(l.starts)) < l.n {
			l.starts = append(l.starts, now)
			l.mu.Unlock()
			return nil
		}

		wait := window - now.Sub(l.starts[0])
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			l.sem.Release(1)
			return err
		}
	}
}

func (l *limiter) release() {
	l.sem.Release(1)
}

// do runs fn under the limiter
func (l *limiter) do(ctx context.Context, fn func() error) error {
	if err := l.acquire(ctx); err != nil {
		return err
	}
	defer l.release()
	return fn()
}
