package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// element adapts a playwright locator to probe.Element. locators are lazy, every
// call queries the current DOM.
type element struct {
	loc playwright.Locator
}

func (e element) Visible() (bool, error) {
	ok, err := e.loc.IsVisible()
	if err != nil {
		return false, fmt.Errorf("check visible: %w", err)
	}
	return ok, nil
}

// Enabled reports false for native disabled controls and for aria-disabled="true".
func (e element) Enabled() (bool, error) {
	ok, err := e.loc.IsEnabled()
	if err != nil {
		return false, fmt.Errorf("check enabled: %w", err)
	}
	if !ok {
		return false, nil
	}
	aria, err := e.loc.GetAttribute("aria-disabled")
	if err != nil {
		return false, fmt.Errorf("read aria-disabled: %w", err)
	}
	return aria != "true", nil
}

func (e element) Click() error {
	if err := e.loc.Click(); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

func (e element) Fill(text string) error {
	if err := e.loc.Fill(text); err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	return nil
}

func (e element) Press(key string) error {
	if err := e.loc.Press(key); err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	return nil
}

func (e element) Text() (string, error) {
	s, err := e.loc.InnerText()
	if err != nil {
		return "", fmt.Errorf("inner text: %w", err)
	}
	return s, nil
}

func (e element) Value() (string, error) {
	s, err := e.loc.InputValue()
	if err != nil {
		return "", fmt.Errorf("input value: %w", err)
	}
	return s, nil
}

func (e element) ScrollIntoView() error {
	if err := e.loc.ScrollIntoViewIfNeeded(); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	return nil
}
