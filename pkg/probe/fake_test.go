package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// fakeStep is one wizard step of fakeApp.
type fakeStep struct {
	fields   []string
	required []string
}

// fakeApp simulates the mediation wizard: viewport-dependent next controls,
// validation-gated navigation, debounced suggestions and structured lists.
type fakeApp struct {
	mu sync.Mutex

	// configuration, set before use
	mobile       bool
	readyText    string
	steps        []fakeStep
	listFields   []string
	debounce     time.Duration
	minChars     int           // suggestions need more than minChars characters
	transition   time.Duration // new step fields appear after this delay
	validAfter   time.Duration // next stays disabled this long after seeding
	suggestions  []string
	brokenLabels bool // per-item labels not parameterized by the item text
	noAdd        bool // list widgets have no add button
	ignoreSubmit bool // submitting a list entry does nothing
	noNext       bool // no next control rendered at all
	neverReady   bool
	seedErr      error
	findErr      error
	shotErr      error
	textErr      error // returned when reading the next control's text

	// state
	storage    map[string]string
	values     map[string]string
	items      map[string][]string
	step       int
	scrolled   bool
	loaded     bool
	seededAt   time.Time
	changedAt  time.Time
	lastInput  map[string]time.Time
	toggleOpen map[string]bool

	// counters
	clicks         int
	disabledClicks int
	scrolls        int
	shots          []string
}

func newFakeApp(mobile bool) *fakeApp {
	return &fakeApp{
		mobile:    mobile,
		readyText: "Co-op Conflict Resolution Platform",
		steps: []fakeStep{
			{fields: []string{"partyAName", "partyBName", "conflictDescription"}, required: []string{"partyAName", "partyBName", "conflictDescription"}},
			{fields: []string{"partyAThoughts", "partyBThoughts"}, required: []string{"partyAThoughts"}},
			{fields: []string{"partyABeliefs", "partyBBeliefs"}, required: []string{"partyABeliefs"}},
			{fields: []string{"partyATop3Solutions", "partyBTop3Solutions", "compromiseSolutions"}},
		},
		listFields: []string{"partyATop3Solutions", "partyBTop3Solutions"},
		debounce:   20 * time.Millisecond,
		minChars:   2,
		suggestions: []string{
			"I feel frustrated because I'm not getting the support I need",
			"I feel like my concerns aren't being heard",
		},
		storage: map[string]string{},
	}
}

// Seed replaces the app state with the decoded value and reloads.
func (a *fakeApp) Seed(_ context.Context, key, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seedErr != nil {
		return a.seedErr
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(value), &state); err != nil {
		return fmt.Errorf("bad state: %w", err)
	}
	a.storage[key] = value
	a.values = map[string]string{}
	for k, v := range state {
		if s, ok := v.(string); ok {
			a.values[k] = s
		}
	}
	a.items = map[string][]string{}
	a.lastInput = map[string]time.Time{}
	a.toggleOpen = map[string]bool{}
	a.step, a.scrolled = 0, false
	a.loaded = !a.neverReady
	a.seededAt = time.Now()
	a.changedAt = time.Time{}
	return nil
}

func (a *fakeApp) Find(t Target) (Element, error) {
	if a.findErr != nil {
		return nil, a.findErr
	}
	return &fakeElement{app: a, target: t}, nil
}

func (a *fakeApp) ScrollToBottom() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scrolled = true
	a.scrolls++
	return nil
}

func (a *fakeApp) Screenshot(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.shotErr != nil {
		return a.shotErr
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte("png"), 0o600); err != nil {
		return err
	}
	a.shots = append(a.shots, path)
	return nil
}

func (a *fakeApp) currentStep() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.step
}

func (a *fakeApp) itemsOf(field string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.items[field]...)
}

// lastStep reports whether the wizard is on its final step, where next is not rendered.
func (a *fakeApp) lastStep() bool { return a.step >= len(a.steps)-1 }

func (a *fakeApp) fieldVisible(id string) bool {
	if !a.loaded {
		return false
	}
	if !a.changedAt.IsZero() && time.Since(a.changedAt) < a.transition {
		return false
	}
	for _, f := range a.steps[a.step].fields {
		if f == id {
			return true
		}
	}
	return false
}

func (a *fakeApp) mobileNextText() string {
	if a.step == 0 {
		return "Start Mediation"
	}
	return "Next Step"
}

func (a *fakeApp) isNext(t Target) bool {
	if a.noNext || a.lastStep() {
		return false
	}
	switch t.Kind {
	case KindLabel:
		return !a.mobile && t.Value == "Next step"
	case KindTestID:
		return a.mobile && a.scrolled && t.Value == "next-button"
	case KindText:
		return a.mobile && a.scrolled && !t.Contains && t.Value == a.mobileNextText()
	}
	return false
}

func (a *fakeApp) stepValid() bool {
	if time.Since(a.seededAt) < a.validAfter {
		return false
	}
	for _, f := range a.steps[a.step].required {
		if strings.TrimSpace(a.values[f]) == "" {
			return false
		}
	}
	return true
}

func (a *fakeApp) suggestField() string {
	for _, f := range a.steps[a.step].fields {
		if strings.HasSuffix(f, "Thoughts") && a.fieldVisible(f) {
			return f
		}
	}
	return ""
}

func (a *fakeApp) suggestionsReady(field string) bool {
	if field == "" {
		return false
	}
	return len(a.values[field]) > a.minChars && time.Since(a.lastInput[field]) >= a.debounce
}

func (a *fakeApp) itemLabels(field string) []string {
	var res []string
	for _, it := range a.items[field] {
		name := it
		if a.brokenLabels {
			name = "item"
		}
		res = append(res, "Edit "+name, "Delete "+name, "Mark "+name+" as complete")
	}
	return res
}

func (a *fakeApp) visible(t Target) bool {
	if !a.loaded {
		return false
	}
	if a.isNext(t) {
		return true
	}
	switch t.Kind {
	case KindText:
		if t.Contains && strings.Contains(a.readyText, t.Value) {
			return true
		}
		if !t.Contains && t.Value == a.readyText {
			return true
		}
		for _, f := range a.listFields {
			if !a.fieldVisible(f) {
				continue
			}
			for _, it := range a.items[f] {
				if it == t.Value || (t.Contains && strings.Contains(it, t.Value)) {
					return true
				}
			}
		}
	case KindLabel:
		if t.Value == "Show suggestions" {
			return a.suggestionsReady(a.suggestField())
		}
		if t.Value == "Add item" {
			return !a.noAdd && a.anyListVisible()
		}
		for _, f := range a.listFields {
			if !a.fieldVisible(f) {
				continue
			}
			for _, l := range a.itemLabels(f) {
				if l == t.Value {
					return true
				}
			}
		}
	case KindSelector:
		switch {
		case t.Value == "h1":
			return true
		case strings.HasPrefix(t.Value, "#"):
			return a.fieldVisible(strings.TrimPrefix(t.Value, "#"))
		case t.Value == "button" && t.HasText != "":
			f := a.suggestField()
			if !a.toggleOpen[f] || !a.suggestionsReady(f) {
				return false
			}
			for _, s := range a.suggestions {
				if strings.Contains(s, t.HasText) {
					return true
				}
			}
		}
	case KindWithin:
		return a.withinField(t) != ""
	}
	return false
}

func (a *fakeApp) anyListVisible() bool {
	for _, f := range a.listFields {
		if a.fieldVisible(f) {
			return true
		}
	}
	return false
}

// withinField returns the list field whose input group holds the add button t targets.
func (a *fakeApp) withinField(t Target) string {
	if t.Value != "div.flex.gap-2" || t.Has == nil || t.Inner == nil || a.noAdd {
		return ""
	}
	if t.Inner.Kind != KindLabel || t.Inner.Value != "Add item" {
		return ""
	}
	field := strings.TrimPrefix(t.Has.Value, "#")
	for _, f := range a.listFields {
		if f == field && a.fieldVisible(f) {
			return f
		}
	}
	return ""
}

func (a *fakeApp) enabled(t Target) bool {
	if a.isNext(t) {
		return a.stepValid()
	}
	if f := a.withinField(t); f != "" {
		return strings.TrimSpace(a.values[f]) != ""
	}
	return true
}

func (a *fakeApp) addItem(field string) {
	text := strings.TrimSpace(a.values[field])
	if text == "" || a.ignoreSubmit {
		return
	}
	a.items[field] = append(a.items[field], text)
	a.values[field] = ""
}

func (a *fakeApp) click(t Target) error {
	if !a.visible(t) {
		return errors.New("element not visible")
	}
	switch {
	case a.isNext(t):
		if !a.stepValid() {
			a.disabledClicks++
			return nil
		}
		a.step++
		a.clicks++
		a.scrolled = false
		a.changedAt = time.Now()
	case t.Kind == KindLabel && t.Value == "Show suggestions":
		a.toggleOpen[a.suggestField()] = true
	case t.Kind == KindWithin:
		if f := a.withinField(t); f != "" {
			a.addItem(f)
		}
	}
	return nil
}

type fakeElement struct {
	app    *fakeApp
	target Target
}

func (e *fakeElement) Visible() (bool, error) {
	e.app.mu.Lock()
	defer e.app.mu.Unlock()
	return e.app.visible(e.target), nil
}

func (e *fakeElement) Enabled() (bool, error) {
	e.app.mu.Lock()
	defer e.app.mu.Unlock()
	return e.app.enabled(e.target), nil
}

func (e *fakeElement) Click() error {
	e.app.mu.Lock()
	defer e.app.mu.Unlock()
	return e.app.click(e.target)
}

func (e *fakeElement) fieldID() (string, error) {
	if e.target.Kind != KindSelector || !strings.HasPrefix(e.target.Value, "#") {
		return "", fmt.Errorf("not a field: %s", e.target)
	}
	id := strings.TrimPrefix(e.target.Value, "#")
	if !e.app.fieldVisible(id) {
		return "", fmt.Errorf("field %s not visible", id)
	}
	return id, nil
}

func (e *fakeElement) Fill(text string) error {
	e.app.mu.Lock()
	defer e.app.mu.Unlock()
	id, err := e.fieldID()
	if err != nil {
		return err
	}
	e.app.values[id] = text
	e.app.lastInput[id] = time.Now()
	e.app.toggleOpen[id] = false
	return nil
}

func (e *fakeElement) Press(key string) error {
	e.app.mu.Lock()
	defer e.app.mu.Unlock()
	id, err := e.fieldID()
	if err != nil {
		return err
	}
	if key != "Enter" {
		return nil
	}
	for _, f := range e.app.listFields {
		if f == id {
			e.app.addItem(id)
		}
	}
	return nil
}

func (e *fakeElement) Text() (string, error) {
	e.app.mu.Lock()
	defer e.app.mu.Unlock()
	if e.app.isNext(e.target) {
		if e.app.textErr != nil {
			return "", e.app.textErr
		}
		if e.app.mobile {
			return e.app.mobileNextText(), nil
		}
		return "", nil
	}
	return e.target.Value, nil
}

func (e *fakeElement) Value() (string, error) {
	e.app.mu.Lock()
	defer e.app.mu.Unlock()
	id, err := e.fieldID()
	if err != nil {
		return "", err
	}
	return e.app.values[id], nil
}

func (e *fakeElement) ScrollIntoView() error { return nil }

// recLogger records log lines for assertions.
type recLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recLogger) add(prefix, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, prefix+fmt.Sprintf(format, args...))
}

func (l *recLogger) Print(format string, args ...any) { l.add("", format, args...) }
func (l *recLogger) Warn(format string, args ...any)  { l.add("WARN: ", format, args...) }
func (l *recLogger) Error(format string, args ...any) { l.add("ERROR: ", format, args...) }
func (l *recLogger) PrintAligned(text string)          { l.add("", "%s", text) }

func (l *recLogger) text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

// testTiming keeps the real ratios between bounds at a fraction of the time.
func testTiming() Timing {
	return Timing{
		TransitionPause: 2 * time.Millisecond,
		ScrollSettle:    time.Millisecond,
		DebounceWindow:  60 * time.Millisecond,
		PollInterval:    2 * time.Millisecond,
		PollTimeout:     200 * time.Millisecond,
		LoadTimeout:     200 * time.Millisecond,
		NavTimeout:      2 * time.Second,
		MaxNavAttempts:  20,
	}
}

// seeded returns a loaded fake with state applied.
func seeded(mobile bool, state map[string]any) *fakeApp {
	app := newFakeApp(mobile)
	data, _ := json.Marshal(state)
	_ = app.Seed(context.Background(), "mediation_form_v1", string(data))
	return app
}
