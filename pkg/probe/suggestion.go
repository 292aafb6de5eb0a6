package probe

import (
	"context"
	"errors"
	"fmt"
)

// SuggestionCheck is one suggestion assertion on a debounced field.
type SuggestionCheck struct {
	Field  string // field id
	Input  string // typed in one fill, must exceed the generation threshold
	Expect string // substring of a suggestion that must render
}

// SuggestionVerifier asserts debounce-gated suggestions on a text field.
type SuggestionVerifier struct {
	resolver *Resolver
	waiter   Waiter
	timing   Timing
	log      Logger
}

// NewSuggestionVerifier makes a verifier over page.
func NewSuggestionVerifier(page Page, timing Timing, log Logger) *SuggestionVerifier {
	return &SuggestionVerifier{
		resolver: NewResolver(page),
		waiter:   Waiter{Interval: timing.PollInterval},
		timing:   timing,
		log:      orNop(log),
	}
}

// Verify fills the field, waits for the suggestion toggle, opens it and waits for
// a suggestion containing chk.Expect.
func (v *SuggestionVerifier) Verify(ctx context.Context, chk SuggestionCheck) error {
	if err := v.fill(chk.Field, chk.Input); err != nil {
		return err
	}

	// the toggle only exists once the debounce elapsed and generation produced something
	window := v.timing.DebounceWindow + v.timing.PollTimeout
	toggle := SuggestionToggle()
	if err := v.waiter.Poll(ctx, window, v.resolver.presentCond(toggle)); err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: no %s for %q on %s: %w", ErrSuggestionsNotRendered, toggle.Name, chk.Input, chk.Field, err)
		}
		return err
	}
	v.log.Print("suggestion toggle visible for %s", chk.Field)

	m := v.resolver.Resolve(toggle)
	if !m.Found {
		return fmt.Errorf("%w: %s disappeared before click", ErrSuggestionsNotRendered, toggle.Name)
	}
	if err := m.Element.Click(); err != nil {
		return fmt.Errorf("click %s: %w", toggle.Name, err)
	}

	want := SuggestionControl(chk.Expect)
	if err := v.waiter.Poll(ctx, v.timing.PollTimeout, v.resolver.presentCond(want)); err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: no suggestion containing %q: %w", ErrSuggestionTextMismatch, chk.Expect, err)
		}
		return err
	}
	v.log.Print("suggestion containing %q rendered", chk.Expect)
	return nil
}

// VerifyAbsent fills the field with text below the generation threshold and
// fails with ErrUnexpectedSuggestions if the toggle shows up within the debounce window.
func (v *SuggestionVerifier) VerifyAbsent(ctx context.Context, field, input string) error {
	if err := v.fill(field, input); err != nil {
		return err
	}

	window := v.timing.DebounceWindow + v.timing.TransitionPause
	toggle := SuggestionToggle()
	err := v.waiter.Poll(ctx, window, v.resolver.presentCond(toggle))
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s visible for %q on %s", ErrUnexpectedSuggestions, toggle.Name, input, field)
	case isTimeout(err):
		v.log.Print("no suggestions for %q on %s, as expected", input, field)
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("wait for absent %s: %w", toggle.Name, err)
	}
}

// fill replaces the field's value in one action, so the debounce restarts from here.
func (v *SuggestionVerifier) fill(field, text string) error {
	m, err := v.resolver.Require(FieldControl(field))
	if err != nil {
		return fmt.Errorf("suggestion field: %w", err)
	}
	if err := m.Element.Fill(text); err != nil {
		return fmt.Errorf("fill %s: %w", field, err)
	}
	v.log.Print("typed %q into %s", text, field)
	return nil
}
