package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/umputun/formprobe/pkg/probe"
)

// Target names what was verified, printed above the stage tables.
type Target struct {
	BaseURL  string
	Viewport string
}

// Summary builds the markdown summary for one or more runs against the same target.
// with several runs each gets its own section, followed by whether their outcomes agree.
func Summary(target Target, reports []*probe.Report) string {
	var sb strings.Builder
	if len(reports) == 0 {
		return "# Verification SKIPPED\n\nno runs completed\n"
	}
	if len(reports) == 1 {
		sb.WriteString(reports[0].Markdown())
		fmt.Fprintf(&sb, "\ntarget %s, viewport %s, took %s\n", target.BaseURL, target.Viewport, reports[0].Duration().Round(time.Millisecond))
		return sb.String()
	}

	var total time.Duration
	for i, r := range reports {
		fmt.Fprintf(&sb, "## Run %d\n\n", i+1)
		// demote the report heading under the run heading
		sb.WriteString(strings.Replace(r.Markdown(), "# Verification", "### Verification", 1))
		sb.WriteString("\n")
		total += r.Duration()
	}

	fmt.Fprintf(&sb, "target %s, viewport %s, %d runs took %s\n\n", target.BaseURL, target.Viewport, len(reports), total.Round(time.Millisecond))
	if diff := Disagreement(reports); diff != "" {
		fmt.Fprintf(&sb, "**runs disagree**: %s\n", diff)
	} else {
		fmt.Fprintf(&sb, "all %d runs agree\n", len(reports))
	}
	return sb.String()
}

// Disagreement returns a description of the first run whose stage outcomes differ
// from the first run, or an empty string when all runs agree.
func Disagreement(reports []*probe.Report) string {
	if len(reports) < 2 {
		return ""
	}
	want := reports[0].Signature()
	for i, r := range reports[1:] {
		if got := r.Signature(); got != want {
			return fmt.Sprintf("run %d has %s, run 1 has %s", i+2, got, want)
		}
	}
	return ""
}
