package probe

import (
	"context"
	"fmt"
)

// ListCheck is one add-item assertion on a structured list widget.
type ListCheck struct {
	Field string // entry field id
	Item  string // literal item text
}

// ListVerifier adds an item to a structured list and asserts its per-item controls.
type ListVerifier struct {
	resolver *Resolver
	waiter   Waiter
	timing   Timing
	log      Logger
}

// NewListVerifier makes a verifier over page.
func NewListVerifier(page Page, timing Timing, log Logger) *ListVerifier {
	return &ListVerifier{
		resolver: NewResolver(page),
		waiter:   Waiter{Interval: timing.PollInterval},
		timing:   timing,
		log:      orNop(log),
	}
}

// Verify fills the entry field, submits it, waits for the item to render and checks
// the edit, delete and complete controls labelled with the item text.
func (v *ListVerifier) Verify(ctx context.Context, chk ListCheck) error {
	field, err := v.resolver.Require(FieldControl(chk.Field))
	if err != nil {
		return fmt.Errorf("list field: %w", err)
	}
	if err := field.Element.ScrollIntoView(); err != nil {
		v.log.Warn("scroll %s into view: %v", chk.Field, err)
	}
	if err := field.Element.Fill(chk.Item); err != nil {
		return fmt.Errorf("fill %s: %w", chk.Field, err)
	}

	if err := v.submit(field.Element, chk.Field); err != nil {
		return err
	}

	item := ItemControl(chk.Item)
	if err := v.waiter.Poll(ctx, v.timing.PollTimeout, v.resolver.presentCond(item)); err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %q: %w", ErrItemNotAdded, chk.Item, err)
		}
		return err
	}
	if val, err := field.Element.Value(); err == nil {
		v.log.Print("item %q added, entry value now %q", chk.Item, val)
	}

	for _, c := range ItemControls(chk.Item) {
		if err := v.waiter.Poll(ctx, v.timing.PollTimeout, v.resolver.presentCond(c)); err != nil {
			if isTimeout(err) {
				return fmt.Errorf("item %q: %w", chk.Item, &AccessibleControlMissingError{Role: c.Name, Label: c.Targets[0].Value})
			}
			return err
		}
		v.log.Print("found %s control %s", c.Name, c.Targets[0])
	}

	if m := v.resolver.Resolve(item); m.Found {
		if err := m.Element.ScrollIntoView(); err != nil {
			v.log.Warn("scroll item into view: %v", err)
		}
	}
	return nil
}

// submit clicks the scoped add control when usable, otherwise presses Enter in the field.
func (v *ListVerifier) submit(field Element, fieldID string) error {
	add := v.resolver.Resolve(AddItemControl(fieldID))
	if add.Found {
		enabled, err := add.Element.Enabled()
		if err == nil && enabled {
			v.log.Print("submitting via %s", add.Target)
			if err := add.Element.Click(); err != nil {
				return fmt.Errorf("click add item: %w", err)
			}
			return nil
		}
		v.log.Print("add control disabled, submitting with Enter")
	} else {
		v.log.Print("add control not found, submitting with Enter")
	}
	if err := field.Press("Enter"); err != nil {
		return fmt.Errorf("press enter in %s: %w", fieldID, err)
	}
	return nil
}
