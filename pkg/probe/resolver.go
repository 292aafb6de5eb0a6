package probe

import (
	"errors"
	"fmt"
)

// Match is the result of resolving a Control.
type Match struct {
	Element Element
	Target  Target // strategy that matched
	Found   bool
	Err     error // last page error seen while trying strategies, nil when clean
}

// Resolver finds visible elements by trying a control's strategies in order.
// absence is reported through Match.Found, never as an error.
type Resolver struct {
	page Page
}

// NewResolver makes a resolver over page.
func NewResolver(page Page) *Resolver {
	return &Resolver{page: page}
}

// Resolve returns the first strategy that yields a visible element.
func (r *Resolver) Resolve(c Control) Match {
	var lastErr error
	for _, t := range c.Targets {
		el, err := r.page.Find(t)
		if err != nil {
			lastErr = fmt.Errorf("find %s: %w", t, err)
			continue
		}
		visible, err := el.Visible()
		if err != nil {
			lastErr = fmt.Errorf("check %s: %w", t, err)
			continue
		}
		if visible {
			return Match{Element: el, Target: t, Found: true}
		}
	}
	return Match{Err: lastErr}
}

// Present reports whether any strategy of c yields a visible element.
func (r *Resolver) Present(c Control) bool {
	return r.Resolve(c).Found
}

// Require resolves c and turns absence into an error wrapping ErrElementNotFound.
func (r *Resolver) Require(c Control) (Match, error) {
	m := r.Resolve(c)
	if m.Found {
		return m, nil
	}
	if m.Err != nil {
		return m, fmt.Errorf("%w: %s: %w", ErrElementNotFound, c.Name, m.Err)
	}
	return m, fmt.Errorf("%w: %s", ErrElementNotFound, c.Name)
}

// presentCond adapts Resolve to a poll condition, surfacing page errors.
func (r *Resolver) presentCond(c Control) func() (bool, error) {
	return func() (bool, error) {
		m := r.Resolve(c)
		if m.Found {
			return true, nil
		}
		return false, m.Err
	}
}

// isTimeout reports a poll expiry, as opposed to cancellation.
func isTimeout(err error) bool {
	return errors.Is(err, ErrTimeoutExceeded)
}
