// Package probe drives the mediation wizard through a Page and asserts its dynamic behaviors.
// it holds the element resolution strategies, bounded waits, the step navigator,
// the suggestion and structured-list verifiers, diagnostic capture and the driver.
package probe

import (
	"fmt"
	"strings"
)

// Kind is the resolution strategy of a Target.
type Kind int

// strategies, matched by the Page implementation.
const (
	KindLabel    Kind = iota // accessible name, exact
	KindTestID               // data-testid attribute
	KindText                 // visible text, exact unless Contains is set
	KindSelector             // css selector, optionally filtered by HasText
	KindWithin               // Inner, inside a Selector container that also holds Has
)

// Target describes one way to find an element.
type Target struct {
	Kind     Kind
	Value    string  // label, test id, text or css selector
	Contains bool    // text: substring instead of exact match
	HasText  string  // selector: keep only elements containing this text
	Has      *Target // within: a descendant the container must hold
	Inner    *Target // within: the element to find inside the container
}

// Label matches by accessible name.
func Label(name string) Target { return Target{Kind: KindLabel, Value: name} }

// TestID matches by data-testid.
func TestID(id string) Target { return Target{Kind: KindTestID, Value: id} }

// Text matches an element whose visible text equals s.
func Text(s string) Target { return Target{Kind: KindText, Value: s} }

// TextContains matches an element whose visible text contains s.
func TextContains(s string) Target { return Target{Kind: KindText, Value: s, Contains: true} }

// Selector matches by css selector.
func Selector(css string) Target { return Target{Kind: KindSelector, Value: css} }

// SelectorWithText matches css selector elements containing text.
func SelectorWithText(css, text string) Target {
	return Target{Kind: KindSelector, Value: css, HasText: text}
}

// ID matches an element by its id attribute.
func ID(id string) Target { return Selector("#" + id) }

// Within scopes inner to a container matching css that also contains has.
func Within(css string, has, inner Target) Target {
	return Target{Kind: KindWithin, Value: css, Has: &has, Inner: &inner}
}

// String renders the target for logs.
func (t Target) String() string {
	switch t.Kind {
	case KindLabel:
		return fmt.Sprintf("label %q", t.Value)
	case KindTestID:
		return fmt.Sprintf("testid %q", t.Value)
	case KindText:
		if t.Contains {
			return fmt.Sprintf("text ~%q", t.Value)
		}
		return fmt.Sprintf("text %q", t.Value)
	case KindSelector:
		if t.HasText != "" {
			return fmt.Sprintf("%s has %q", t.Value, t.HasText)
		}
		return t.Value
	case KindWithin:
		var sb strings.Builder
		sb.WriteString(t.Value)
		if t.Has != nil {
			sb.WriteString(" with " + t.Has.String())
		}
		if t.Inner != nil {
			sb.WriteString(" > " + t.Inner.String())
		}
		return sb.String()
	default:
		return fmt.Sprintf("unknown(%d) %q", t.Kind, t.Value)
	}
}

// Control is a logical UI control with its resolution strategies in priority order.
type Control struct {
	Name    string
	Targets []Target
}

// NewControl makes a control from targets tried in the given order.
func NewControl(name string, targets ...Target) Control {
	return Control{Name: name, Targets: targets}
}
