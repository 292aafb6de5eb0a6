package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/umputun/formprobe/pkg/probe"
)

const defaultTimeout = 10 * time.Second

// Options configures a browser session.
type Options struct {
	BaseURL  string        // app url, seeding navigates here
	Viewport Viewport      // zero value means Mobile
	Headless bool          // run without a visible window
	SlowMo   time.Duration // delay between actions, for headed observation
	Timeout  time.Duration // default playwright action timeout, 10s when zero
}

// Session owns the playwright driver, the browser, its context and one page.
// it implements probe.App and must be closed.
type Session struct {
	opts    Options
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page

	closeOnce sync.Once
	closeErr  error
}

var _ probe.App = (*Session)(nil)

// Install downloads the playwright driver and chromium.
func Install() error {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return fmt.Errorf("install playwright: %w", err)
	}
	return nil
}

// Open starts playwright, launches chromium and opens a page with the configured viewport.
// partially acquired resources are released on error.
func Open(opts Options) (*Session, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	if opts.Viewport.Width == 0 || opts.Viewport.Height == 0 {
		opts.Viewport = Mobile
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	s := &Session{opts: opts}
	var err error
	if s.pw, err = playwright.Run(); err != nil {
		return nil, fmt.Errorf("run playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(opts.Headless)}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo / time.Millisecond))
	}
	if s.browser, err = s.pw.Chromium.Launch(launch); err != nil {
		return nil, errors.Join(fmt.Errorf("launch browser: %w", err), s.Close())
	}

	s.bctx, err = s.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: opts.Viewport.Width, Height: opts.Viewport.Height},
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create browser context: %w", err), s.Close())
	}
	s.bctx.SetDefaultTimeout(float64(opts.Timeout / time.Millisecond))

	if s.page, err = s.bctx.NewPage(); err != nil {
		return nil, errors.Join(fmt.Errorf("create page: %w", err), s.Close())
	}
	return s, nil
}

// Close releases page, context, browser and the playwright driver, in that order.
// safe to call more than once, later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close page: %w", err))
			}
		}
		if s.bctx != nil {
			if err := s.bctx.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close context: %w", err))
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		if s.pw != nil {
			if err := s.pw.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop playwright: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// Seed opens the base url, stores value under key in local storage and reloads,
// so the app hydrates from the stored state.
func (s *Session) Seed(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gotoOpts := playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded}
	if _, err := s.page.Goto(s.opts.BaseURL, gotoOpts); err != nil {
		return fmt.Errorf("navigate to %s: %w", s.opts.BaseURL, err)
	}
	if _, err := s.page.Evaluate("([k, v]) => localStorage.setItem(k, v)", []any{key, value}); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	reload := playwright.PageReloadOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded}
	if _, err := s.page.Reload(reload); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

// Find resolves a wizard target to the first element it matches.
func (s *Session) Find(t probe.Target) (probe.Element, error) {
	root := pageScope{page: s.page}
	loc, err := locate(root, root, t)
	if err != nil {
		return nil, err
	}
	return element{loc: loc.First()}, nil
}

// ScrollToBottom scrolls the window to the end of the document.
func (s *Session) ScrollToBottom() error {
	if _, err := s.page.Evaluate("() => window.scrollTo(0, document.body.scrollHeight)"); err != nil {
		return fmt.Errorf("scroll to bottom: %w", err)
	}
	return nil
}

// Screenshot saves a full-page png to path, creating its directory.
func (s *Session) Screenshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{Path: playwright.String(path), FullPage: playwright.Bool(true)})
	if err != nil {
		return fmt.Errorf("screenshot %s: %w", path, err)
	}
	return nil
}
