package probe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/formprobe/pkg/seed"
)

func TestResolver_Resolve_PriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		mobile   bool
		scroll   bool
		found    bool
		wantKind Kind
	}{
		{name: "desktop uses accessible name", mobile: false, found: true, wantKind: KindLabel},
		{name: "mobile before scroll finds nothing", mobile: true, scroll: false, found: false},
		{name: "mobile after scroll uses test id", mobile: true, scroll: true, found: true, wantKind: KindTestID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := seeded(tc.mobile, seed.Minimal())
			if tc.scroll {
				require.NoError(t, app.ScrollToBottom())
			}

			m := NewResolver(app).Resolve(NextControl())
			assert.Equal(t, tc.found, m.Found)
			require.NoError(t, m.Err, "absence is not an error")
			if tc.found {
				assert.Equal(t, tc.wantKind, m.Target.Kind)
				assert.NotNil(t, m.Element)
			}
		})
	}
}

func TestResolver_Resolve_FallsThroughToText(t *testing.T) {
	app := seeded(true, seed.Minimal())
	require.NoError(t, app.ScrollToBottom())

	// a control without the test id variant still resolves by the mobile text
	c := NewControl("next", Label("Next step"), Text("Next Step"), Text("Start Mediation"))
	m := NewResolver(app).Resolve(c)
	require.True(t, m.Found)
	assert.Equal(t, Text("Start Mediation"), m.Target)
}

func TestResolver_Resolve_PageError(t *testing.T) {
	app := seeded(false, seed.Minimal())
	app.findErr = errors.New("browser gone")

	r := NewResolver(app)
	m := r.Resolve(NextControl())
	assert.False(t, m.Found)
	require.Error(t, m.Err)
	assert.Contains(t, m.Err.Error(), "browser gone")
	assert.False(t, r.Present(NextControl()))
}

func TestResolver_Require(t *testing.T) {
	app := seeded(false, seed.Minimal())
	r := NewResolver(app)

	m, err := r.Require(FieldControl("partyAName"))
	require.NoError(t, err)
	assert.True(t, m.Found)

	_, err = r.Require(FieldControl("partyATop3Solutions"))
	require.ErrorIs(t, err, ErrElementNotFound)
	assert.Contains(t, err.Error(), "partyATop3Solutions")

	app.findErr = errors.New("detached")
	_, err = r.Require(FieldControl("partyAName"))
	require.ErrorIs(t, err, ErrElementNotFound)
	assert.Contains(t, err.Error(), "detached")
}

func TestResolver_Within_ScopesToInputGroup(t *testing.T) {
	app := seeded(false, seed.Complete())
	app.step = 3
	r := NewResolver(app)

	// both list widgets expose an "Add item" button, the container picks the right one
	assert.True(t, r.Present(NewControl("any add", Label("Add item"))))

	fa, err := r.Require(FieldControl("partyBTop3Solutions"))
	require.NoError(t, err)
	require.NoError(t, fa.Element.Fill("Talk weekly"))

	add, err := r.Require(AddItemControl("partyBTop3Solutions"))
	require.NoError(t, err)
	require.NoError(t, add.Element.Click())

	assert.Equal(t, []string{"Talk weekly"}, app.itemsOf("partyBTop3Solutions"))
	assert.Empty(t, app.itemsOf("partyATop3Solutions"))

	assert.False(t, r.Present(AddItemControl("compromiseSolutions")), "field outside any list group")
}

func TestTarget_String(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{Label("Next step"), `label "Next step"`},
		{TestID("next-button"), `testid "next-button"`},
		{Text("Next Step"), `text "Next Step"`},
		{TextContains("Co-op"), `text ~"Co-op"`},
		{Selector("h1"), "h1"},
		{ID("partyAName"), "#partyAName"},
		{SelectorWithText("button", "I feel"), `button has "I feel"`},
		{Within("div.flex.gap-2", ID("x"), Label("Add item")), `div.flex.gap-2 with #x > label "Add item"`},
		{Target{Kind: Kind(42), Value: "v"}, `unknown(42) "v"`},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.target.String())
		})
	}
}

func TestControls(t *testing.T) {
	next := NextControl()
	require.Len(t, next.Targets, 4)
	assert.Equal(t, Label("Next step"), next.Targets[0], "desktop accessible name first")

	items := ItemControls("Solution 1")
	require.Len(t, items, 3)
	assert.Equal(t, "Edit Solution 1", items[0].Targets[0].Value)
	assert.Equal(t, "Delete Solution 1", items[1].Targets[0].Value)
	assert.Equal(t, "Mark Solution 1 as complete", items[2].Targets[0].Value)
	assert.Equal(t, []string{"edit", "delete", "complete"}, []string{items[0].Name, items[1].Name, items[2].Name})

	assert.Equal(t, []Target{Selector("h1")}, ReadyControl("").Targets)
	assert.Len(t, ReadyControl("Co-op").Targets, 2)
}

func TestAccessibleControlMissingError(t *testing.T) {
	var err error = &AccessibleControlMissingError{Role: "delete", Label: "Delete X"}
	require.ErrorIs(t, err, ErrAccessibleControlMissing)
	assert.Equal(t, `accessible control missing: delete ("Delete X")`, err.Error())

	var acm *AccessibleControlMissingError
	require.ErrorAs(t, err, &acm)
	assert.Equal(t, "delete", acm.Role)
}
