package render

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/formprobe/pkg/probe"
	"github.com/umputun/formprobe/pkg/status"
)

// blankPage has no elements and accepts every screenshot.
type blankPage struct{}

func (blankPage) Find(probe.Target) (probe.Element, error) { return nil, probe.ErrElementNotFound }
func (blankPage) ScrollToBottom() error                   { return nil }
func (blankPage) Screenshot(string) error                 { return nil }

func makeReport(t *testing.T, failList bool) *probe.Report {
	t.Helper()
	r := probe.NewReport()
	c := probe.NewCapture(blankPage{}, r, nil, probe.CaptureOpts{Dir: "verification"})
	ok := func(context.Context) error { return nil }
	require.NoError(t, c.Stage(context.Background(), probe.FlowList, status.StageLoad, ok))
	if failList {
		err := c.Stage(context.Background(), probe.FlowList, status.StageList, func(context.Context) error {
			return errors.New("edit control missing")
		})
		require.Error(t, err)
	} else {
		require.NoError(t, c.Stage(context.Background(), probe.FlowList, status.StageList, ok))
	}
	r.Finish()
	return r
}

func TestSummary(t *testing.T) {
	target := Target{BaseURL: "http://localhost:5173", Viewport: "mobile"}

	t.Run("no runs", func(t *testing.T) {
		assert.Contains(t, Summary(target, nil), "no runs completed")
	})

	t.Run("single run", func(t *testing.T) {
		s := Summary(target, []*probe.Report{makeReport(t, true)})
		assert.Contains(t, s, "# Verification FAILED")
		assert.Contains(t, s, "edit control missing")
		assert.Contains(t, s, "`verification/list_list.png`")
		assert.Contains(t, s, "target http://localhost:5173, viewport mobile")
		assert.NotContains(t, s, "## Run")
	})

	t.Run("agreeing runs", func(t *testing.T) {
		s := Summary(target, []*probe.Report{makeReport(t, false), makeReport(t, false), makeReport(t, false)})
		assert.Contains(t, s, "## Run 3")
		assert.Contains(t, s, "### Verification PASSED")
		assert.Contains(t, s, "3 runs took")
		assert.Contains(t, s, "all 3 runs agree")
	})

	t.Run("disagreeing runs", func(t *testing.T) {
		s := Summary(target, []*probe.Report{makeReport(t, false), makeReport(t, true)})
		assert.Contains(t, s, "**runs disagree**: run 2 has list/load=pass;list/list=fail")
	})
}

func TestDisagreement(t *testing.T) {
	assert.Empty(t, Disagreement(nil))
	assert.Empty(t, Disagreement([]*probe.Report{makeReport(t, true)}))
	assert.Empty(t, Disagreement([]*probe.Report{makeReport(t, true), makeReport(t, true)}))
	assert.Equal(t, "run 3 has list/load=pass;list/list=fail, run 1 has list/load=pass;list/list=pass",
		Disagreement([]*probe.Report{makeReport(t, false), makeReport(t, false), makeReport(t, true)}))
}

func TestSummary_Renders(t *testing.T) {
	s := Summary(Target{BaseURL: "http://x", Viewport: "desktop"}, []*probe.Report{makeReport(t, false)})
	out, err := RenderMarkdown(s, false)
	require.NoError(t, err)
	assert.Contains(t, out, "Verification PASSED")
}
