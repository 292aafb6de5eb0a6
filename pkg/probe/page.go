package probe

import "context"

// Element is a lazy handle to a page element. every call re-evaluates the page,
// so a handle found before a re-render still reflects the current DOM.
type Element interface {
	Visible() (bool, error)
	Enabled() (bool, error) // false when disabled or aria-disabled="true"
	Click() error
	Fill(text string) error
	Press(key string) error
	Text() (string, error)
	Value() (string, error)
	ScrollIntoView() error
}

// Page is the browser page as seen by the probe.
type Page interface {
	Find(t Target) (Element, error)
	ScrollToBottom() error
	Screenshot(path string) error
}

// App is a Page that can be seeded with persisted form state.
type App interface {
	Page
	// Seed writes value under key in the app's local storage and reloads,
	// so the app hydrates from it.
	Seed(ctx context.Context, key, value string) error
}

// Logger is the logging surface the driver writes to.
type Logger interface {
	Print(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	PrintAligned(text string) // multi-line details under the previous line
}

type nopLogger struct{}

func (nopLogger) Print(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) PrintAligned(string)  {}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
