package marketdata

import (
	"context"
	"errors"
	"time"
)

// ErrCapacity is returned when a permit could not be obtained within the
// bounded retry. Callers treat it like any other transient provider failure.
var ErrCapacity = errors.New("marketdata: rate limit capacity exhausted")

// PermitPool caps outbound provider calls to N per rolling window. A permit
// taken by Acquire is returned to the pool one full window later by a delayed
// task, not when the call finishes, so the cap holds no matter how fast
// permits are requested.
type PermitPool struct {
	permits chan struct{}
	window  time.Duration

	// bounded retry knobs, shrunk by tests
	retryPause time.Duration
	maxWait    time.Duration
}

// NewPermitPool builds a pool of n permits over the given rolling window.
func NewPermitPool(n int, window time.Duration) *PermitPool {
	if n <= 0 {
		n = 1
	}
	p := &PermitPool{
		permits:    make(chan struct{}, n),
		window:     window,
		retryPause: time.Second,
		maxWait:    5 * time.Second,
	}
	for i := 0; i < n; i++ {
		p.permits <- struct{}{}
	}
	return p
}

// Acquire takes a permit, blocking at most retryPause+maxWait. The sequence
// mirrors the upstream API budget handling: try immediately, pause once, then
// wait a bounded time before giving up with ErrCapacity.
func (p *PermitPool) Acquire(ctx context.Context) error {
	select {
	case <-p.permits:
		p.scheduleReturn()
		return nil
	default:
	}

	select {
	case <-time.After(p.retryPause):
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-p.permits:
		p.scheduleReturn()
		return nil
	case <-time.After(p.maxWait):
		return ErrCapacity
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Available reports how many permits are currently free.
func (p *PermitPool) Available() int {
	return len(p.permits)
}

func (p *PermitPool) scheduleReturn() {
	time.AfterFunc(p.window, func() {
		select {
		case p.permits <- struct{}{}:
		default:
		}
	})
}
