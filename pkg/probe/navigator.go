package probe

import (
	"context"
	"fmt"
	"time"
)

// NavState is a state of the wizard-advancement loop.
type NavState string

// navigation states; Advanced, Exhausted and Stuck are terminal.
const (
	NavSearching NavState = "searching"
	NavScrolling NavState = "scrolling"
	NavClicking  NavState = "clicking"
	NavChecking  NavState = "checking"
	NavAdvanced  NavState = "advanced"
	NavExhausted NavState = "exhausted"
	NavStuck     NavState = "stuck"
)

// NavResult describes how a navigation ended.
type NavResult struct {
	State        NavState
	Attempts     int
	Clicks       int
	DisabledHits int // next control found but disabled, never clicked
	Elapsed      time.Duration
}

// Navigator advances the wizard until a destination field is visible.
type Navigator struct {
	page     Page
	resolver *Resolver
	waiter   Waiter
	timing   Timing
	log      Logger
	next     Control
}

// NewNavigator makes a navigator using NextControl as the advance affordance.
func NewNavigator(page Page, timing Timing, log Logger) *Navigator {
	return &Navigator{
		page:     page,
		resolver: NewResolver(page),
		waiter:   Waiter{Interval: timing.PollInterval},
		timing:   timing,
		log:      orNop(log),
		next:     NextControl(),
	}
}

// Advance clicks through the wizard until dest is visible. it stops with
// ErrNavigationExhausted once MaxNavAttempts or NavTimeout is reached, and with
// ErrElementNotFound when no variant of the next control is on the page.
func (n *Navigator) Advance(ctx context.Context, dest Control) (NavResult, error) {
	start := time.Now()
	res := NavResult{State: NavSearching}
	var deadline time.Time
	if n.timing.NavTimeout > 0 {
		deadline = start.Add(n.timing.NavTimeout)
	}
	finish := func(state NavState) NavResult {
		res.State = state
		res.Elapsed = time.Since(start)
		return res
	}

	for res.Attempts < n.timing.MaxNavAttempts {
		res.Attempts++

		// searching
		res.State = NavSearching
		if n.resolver.Present(dest) {
			n.log.Print("reached %s after %d attempts", dest.Name, res.Attempts)
			return finish(NavAdvanced), nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		// scrolling, mobile layouts keep the next button below the fold
		res.State = NavScrolling
		if err := n.page.ScrollToBottom(); err != nil {
			n.log.Warn("scroll to bottom: %v", err)
		}
		if err := n.waiter.Pause(ctx, n.timing.ScrollSettle); err != nil {
			return finish(NavScrolling), fmt.Errorf("navigate to %s: %w", dest.Name, err)
		}

		// clicking
		res.State = NavClicking
		m := n.resolver.Resolve(n.next)
		if !m.Found {
			if m.Err != nil {
				return finish(NavStuck), fmt.Errorf("%w: %s control on attempt %d: %w", ErrElementNotFound, n.next.Name, res.Attempts, m.Err)
			}
			return finish(NavStuck), fmt.Errorf("%w: %s control on attempt %d", ErrElementNotFound, n.next.Name, res.Attempts)
		}

		enabled, err := m.Element.Enabled()
		switch {
		case err != nil:
			n.log.Warn("check %s enabled: %v", m.Target, err)
		case !enabled:
			res.DisabledHits++
			n.log.Print("%s is disabled, waiting for validation (attempt %d)", m.Target, res.Attempts)
		default:
			label, err := m.Element.Text()
			if err != nil {
				n.log.Warn("read %s text: %v", m.Target, err)
			}
			n.log.Print("clicking %q via %s", label, m.Target)
			if err := m.Element.Click(); err != nil {
				n.log.Warn("click %s: %v", m.Target, err)
			} else {
				res.Clicks++
			}
		}

		// checking
		res.State = NavChecking
		if err := n.waiter.Pause(ctx, n.timing.TransitionPause); err != nil {
			return finish(NavChecking), fmt.Errorf("navigate to %s: %w", dest.Name, err)
		}
	}

	// a transition finishing during the last pause still counts
	if n.resolver.Present(dest) {
		n.log.Print("reached %s after %d attempts", dest.Name, res.Attempts)
		return finish(NavAdvanced), nil
	}

	out := finish(NavExhausted)
	return out, fmt.Errorf("%w: %s not reached after %d attempts (%d disabled) in %s",
		ErrNavigationExhausted, dest.Name, out.Attempts, out.DisabledHits, out.Elapsed.Round(time.Millisecond))
}
