package probe

import (
	"context"
	"fmt"
	"time"
)

// Timing holds every bound the driver waits against.
type Timing struct {
	TransitionPause time.Duration // after a next click, and after a disabled hit
	ScrollSettle    time.Duration // after scrolling to the bottom
	DebounceWindow  time.Duration // suggestion debounce plus generation latency
	PollInterval    time.Duration
	PollTimeout     time.Duration // default ceiling for condition polls
	LoadTimeout     time.Duration // ceiling for the app's ready marker
	NavTimeout      time.Duration // wall-clock ceiling for one navigation, 0 disables
	MaxNavAttempts  int
}

// DefaultTiming returns the bounds used against the live application.
func DefaultTiming() Timing {
	return Timing{
		TransitionPause: time.Second,
		ScrollSettle:    500 * time.Millisecond,
		DebounceWindow:  time.Second,
		PollInterval:    100 * time.Millisecond,
		PollTimeout:     5 * time.Second,
		LoadTimeout:     10 * time.Second,
		NavTimeout:      time.Minute,
		MaxNavAttempts:  20,
	}
}

// Waiter implements the two stabilization modes: fixed pauses and condition polls.
type Waiter struct {
	Interval time.Duration
}

// Pause waits for d or until ctx is done.
func (w Waiter) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poll re-checks cond every Interval until it returns true or timeout elapses.
// cond is always checked once more at the deadline. on expiry the returned error
// wraps ErrTimeoutExceeded and the last error cond reported, if any.
func (w Waiter) Poll(ctx context.Context, timeout time.Duration, cond func() (bool, error)) error {
	interval := w.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)

	var lastErr error
	for {
		ok, err := cond()
		if ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			if lastErr != nil {
				return fmt.Errorf("%w after %s: %w", ErrTimeoutExceeded, timeout, lastErr)
			}
			return fmt.Errorf("%w after %s", ErrTimeoutExceeded, timeout)
		}
		if err := w.Pause(ctx, min(interval, remaining)); err != nil {
			return fmt.Errorf("poll interrupted: %w", err)
		}
	}
}
