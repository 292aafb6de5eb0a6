package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/umputun/formprobe/pkg/probe"
)

// scope is where a target is resolved from, the page itself or a container locator.
type scope interface {
	label(name string) playwright.Locator
	testID(id string) playwright.Locator
	text(s string, exact bool) playwright.Locator
	css(selector string) playwright.Locator
	within(container playwright.Locator) scope
}

type pageScope struct{ page playwright.Page }

func (s pageScope) label(name string) playwright.Locator {
	return s.page.GetByLabel(name, playwright.PageGetByLabelOptions{Exact: playwright.Bool(true)})
}

func (s pageScope) testID(id string) playwright.Locator { return s.page.GetByTestId(id) }

func (s pageScope) text(v string, exact bool) playwright.Locator {
	return s.page.GetByText(v, playwright.PageGetByTextOptions{Exact: playwright.Bool(exact)})
}

func (s pageScope) css(selector string) playwright.Locator { return s.page.Locator(selector) }

func (pageScope) within(container playwright.Locator) scope { return locatorScope{loc: container} }

type locatorScope struct{ loc playwright.Locator }

func (s locatorScope) label(name string) playwright.Locator {
	return s.loc.GetByLabel(name, playwright.LocatorGetByLabelOptions{Exact: playwright.Bool(true)})
}

func (s locatorScope) testID(id string) playwright.Locator { return s.loc.GetByTestId(id) }

func (s locatorScope) text(v string, exact bool) playwright.Locator {
	return s.loc.GetByText(v, playwright.LocatorGetByTextOptions{Exact: playwright.Bool(exact)})
}

func (s locatorScope) css(selector string) playwright.Locator { return s.loc.Locator(selector) }

func (locatorScope) within(container playwright.Locator) scope { return locatorScope{loc: container} }

// locate maps a wizard target to a locator. the result may match several elements,
// callers narrow it with First.
func locate(root, s scope, t probe.Target) (playwright.Locator, error) {
	switch t.Kind {
	case probe.KindLabel:
		return s.label(t.Value), nil
	case probe.KindTestID:
		return s.testID(t.Value), nil
	case probe.KindText:
		return s.text(t.Value, !t.Contains), nil
	case probe.KindSelector:
		loc := s.css(t.Value)
		if t.HasText != "" {
			loc = loc.Filter(playwright.LocatorFilterOptions{HasText: t.HasText})
		}
		return loc, nil
	case probe.KindWithin:
		if t.Has == nil || t.Inner == nil {
			return nil, fmt.Errorf("target %s: container needs both has and inner", t)
		}
		// has is evaluated relative to each container, but must be built from the page
		has, err := locate(root, root, *t.Has)
		if err != nil {
			return nil, fmt.Errorf("container has: %w", err)
		}
		container := s.css(t.Value).Filter(playwright.LocatorFilterOptions{Has: has})
		return locate(root, s.within(container), *t.Inner)
	default:
		return nil, fmt.Errorf("unsupported target %s", t)
	}
}
