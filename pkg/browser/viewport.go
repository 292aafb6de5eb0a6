// Package browser implements probe.App over playwright-go: a scoped chromium session
// with a fixed viewport and a locator adapter for wizard targets.
package browser

import (
	"fmt"
	"strings"
)

// Viewport is a named browser window size.
type Viewport struct {
	Name   string
	Width  int
	Height int
}

// viewport presets
var (
	Mobile  = Viewport{Name: "mobile", Width: 375, Height: 667}
	Desktop = Viewport{Name: "desktop", Width: 1280, Height: 800}
)

// ViewportByName returns the preset for name, case-insensitive. empty means mobile.
func ViewportByName(name string) (Viewport, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Mobile.Name:
		return Mobile, nil
	case Desktop.Name:
		return Desktop, nil
	default:
		return Viewport{}, fmt.Errorf("unknown viewport %q, expected mobile or desktop", name)
	}
}

// String renders the viewport as name (WxH).
func (v Viewport) String() string {
	return fmt.Sprintf("%s (%dx%d)", v.Name, v.Width, v.Height)
}
