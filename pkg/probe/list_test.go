package probe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/formprobe/pkg/seed"
)

// onSolutionsStep returns a fake already on the step holding the list widgets.
func onSolutionsStep(mobile bool) *fakeApp {
	app := seeded(mobile, seed.Complete())
	app.step = 3
	return app
}

func TestListVerifier_Verify(t *testing.T) {
	tests := []struct {
		name    string
		noAdd   bool
		wantLog string
	}{
		{name: "submit via add button", wantLog: "submitting via div.flex.gap-2"},
		{name: "submit via enter", noAdd: true, wantLog: "submitting with Enter"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := onSolutionsStep(true)
			app.noAdd = tc.noAdd
			log := &recLogger{}

			err := NewListVerifier(app, testTiming(), log).Verify(context.Background(), ListCheck{Field: "partyATop3Solutions", Item: "Solution 1"})
			require.NoError(t, err)

			assert.Equal(t, []string{"Solution 1"}, app.itemsOf("partyATop3Solutions"))
			assert.Contains(t, log.text(), tc.wantLog)
			assert.Contains(t, log.text(), `entry value now ""`)
			assert.Contains(t, log.text(), `found complete control label "Mark Solution 1 as complete"`)

			r := NewResolver(app)
			for _, label := range []string{"Edit Solution 1", "Delete Solution 1", "Mark Solution 1 as complete"} {
				assert.True(t, r.Present(NewControl(label, Label(label))), label)
			}
		})
	}
}

func TestListVerifier_Verify_ArbitraryText(t *testing.T) {
	app := onSolutionsStep(false)
	item := "Agree on quiet hours | after 10pm"

	err := NewListVerifier(app, testTiming(), nil).Verify(context.Background(), ListCheck{Field: "partyBTop3Solutions", Item: item})
	require.NoError(t, err)
	assert.Equal(t, []string{item}, app.itemsOf("partyBTop3Solutions"))
	assert.Empty(t, app.itemsOf("partyATop3Solutions"))
}

func TestListVerifier_Verify_ItemNotAdded(t *testing.T) {
	app := onSolutionsStep(false)
	app.ignoreSubmit = true
	tm := testTiming()
	tm.PollTimeout = 30 * time.Millisecond

	err := NewListVerifier(app, tm, nil).Verify(context.Background(), ListCheck{Field: "partyATop3Solutions", Item: "Solution 1"})
	require.ErrorIs(t, err, ErrItemNotAdded)
	require.ErrorIs(t, err, ErrTimeoutExceeded)
}

func TestListVerifier_Verify_LabelsNotParameterized(t *testing.T) {
	app := onSolutionsStep(false)
	app.brokenLabels = true
	tm := testTiming()
	tm.PollTimeout = 30 * time.Millisecond

	err := NewListVerifier(app, tm, nil).Verify(context.Background(), ListCheck{Field: "partyATop3Solutions", Item: "Solution 1"})
	require.ErrorIs(t, err, ErrAccessibleControlMissing)

	var acm *AccessibleControlMissingError
	require.ErrorAs(t, err, &acm)
	assert.Equal(t, "edit", acm.Role, "first absent control is named")
	assert.Equal(t, "Edit Solution 1", acm.Label)
}

func TestListVerifier_Verify_FieldMissing(t *testing.T) {
	app := seeded(false, seed.Complete())

	err := NewListVerifier(app, testTiming(), nil).Verify(context.Background(), ListCheck{Field: "partyATop3Solutions", Item: "Solution 1"})
	require.ErrorIs(t, err, ErrElementNotFound)
}
