package probe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/umputun/formprobe/pkg/status"
)

// StageReport is the recorded outcome of one wrapped stage.
type StageReport struct {
	Flow       string
	Stage      status.Stage
	Outcome    status.Outcome
	Err        error
	Screenshot string // empty if none was taken
	Duration   time.Duration
}

// StageError is returned by Capture.Stage for a failed stage.
type StageError struct {
	Flow       string
	Stage      status.Stage
	Screenshot string
	Err        error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Flow, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Report collects stage reports of one run, in execution order.
type Report struct {
	mu       sync.Mutex
	stages   []StageReport
	started  time.Time
	finished time.Time
}

// NewReport starts an empty report.
func NewReport() *Report {
	return &Report{started: time.Now()}
}

func (r *Report) add(sr StageReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, sr)
}

// Finish marks the end of the run.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = time.Now()
}

// Stages returns a copy of the recorded stages.
func (r *Report) Stages() []StageReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]StageReport, len(r.stages))
	copy(res, r.stages)
	return res
}

// Duration is the time between NewReport and Finish, or until now if not finished.
func (r *Report) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished.IsZero() {
		return time.Since(r.started)
	}
	return r.finished.Sub(r.started)
}

// Passed reports whether no stage failed.
func (r *Report) Passed() bool {
	return len(r.Failed()) == 0
}

// Failed returns the failed stages.
func (r *Report) Failed() []StageReport {
	var res []StageReport
	for _, sr := range r.Stages() {
		if sr.Outcome == status.OutcomeFail {
			res = append(res, sr)
		}
	}
	return res
}

// Count returns the number of stages with the given outcome.
func (r *Report) Count(o status.Outcome) int {
	n := 0
	for _, sr := range r.Stages() {
		if sr.Outcome == o {
			n++
		}
	}
	return n
}

// Signature is a compact flow/stage=outcome list, equal for runs with the same outcomes.
func (r *Report) Signature() string {
	stages := r.Stages()
	parts := make([]string, 0, len(stages))
	for _, sr := range stages {
		parts = append(parts, fmt.Sprintf("%s/%s=%s", sr.Flow, sr.Stage, sr.Outcome))
	}
	return strings.Join(parts, ";")
}

// Markdown renders the report as a markdown summary table.
func (r *Report) Markdown() string {
	var sb strings.Builder
	verdict := "PASSED"
	if !r.Passed() {
		verdict = "FAILED"
	}
	fmt.Fprintf(&sb, "# Verification %s\n\n", verdict)
	sb.WriteString("| flow | stage | outcome | time | details |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, sr := range r.Stages() {
		details := ""
		if sr.Err != nil {
			details = strings.ReplaceAll(sr.Err.Error(), "|", "\\|")
		}
		if sr.Screenshot != "" {
			if details != "" {
				details += " "
			}
			details += "`" + sr.Screenshot + "`"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n", sr.Flow, sr.Stage, sr.Outcome, sr.Duration.Round(time.Millisecond), details)
	}
	fmt.Fprintf(&sb, "\n%d passed, %d failed, %d skipped\n",
		r.Count(status.OutcomePass), r.Count(status.OutcomeFail), r.Count(status.OutcomeSkip))
	return sb.String()
}

// Capture wraps stages: it tracks the current stage, records a report entry and
// takes a screenshot tagged with the stage name when the stage fails.
type Capture struct {
	page      Page
	dir       string
	onSuccess bool
	log       Logger
	holder    *status.StageHolder
	report    *Report
}

// CaptureOpts configures a Capture.
type CaptureOpts struct {
	Dir       string              // screenshot directory
	OnSuccess bool                // also screenshot passing stages
	Holder    *status.StageHolder // optional, updated as stages start
}

// NewCapture makes a capture recording into report.
func NewCapture(page Page, report *Report, log Logger, opts CaptureOpts) *Capture {
	return &Capture{page: page, dir: opts.Dir, onSuccess: opts.OnSuccess, log: orNop(log), holder: opts.Holder, report: report}
}

// Stage runs fn as the named stage of flow. a failure is logged, captured and
// returned as *StageError; the caller decides whether to continue.
func (c *Capture) Stage(ctx context.Context, flow string, stage status.Stage, fn func(ctx context.Context) error) error {
	if c.holder != nil {
		c.holder.Set(stage)
	}
	c.log.Print("%s: %s started", flow, stage)
	start := time.Now()
	err := fn(ctx)
	sr := StageReport{Flow: flow, Stage: stage, Outcome: status.OutcomePass, Duration: time.Since(start)}

	if err == nil {
		if c.onSuccess {
			sr.Screenshot = c.screenshot(flow, stage)
		}
		c.log.Print("%s: %s passed in %s", flow, stage, sr.Duration.Round(time.Millisecond))
		c.report.add(sr)
		return nil
	}

	sr.Outcome = status.OutcomeFail
	sr.Err = err
	// browser errors carry a call log after the first line
	first, details, multiline := strings.Cut(err.Error(), "\n")
	c.log.Error("%s: %s failed: %s", flow, stage, first)
	if multiline {
		c.log.PrintAligned(details)
	}
	sr.Screenshot = c.screenshot(flow, stage)
	c.report.add(sr)
	return &StageError{Flow: flow, Stage: stage, Screenshot: sr.Screenshot, Err: err}
}

// Skip records a stage that was not run because an earlier one failed.
func (c *Capture) Skip(flow string, stage status.Stage, reason string) {
	c.log.Warn("%s: %s skipped, %s", flow, stage, reason)
	c.report.add(StageReport{Flow: flow, Stage: stage, Outcome: status.OutcomeSkip})
}

// screenshot writes <dir>/<flow>_<stage>.png, returns the path or empty on failure.
func (c *Capture) screenshot(flow string, stage status.Stage) string {
	path := filepath.Join(c.dir, fmt.Sprintf("%s_%s.png", flow, stage))
	if err := c.page.Screenshot(path); err != nil {
		c.log.Warn("screenshot %s: %v", path, err)
		return ""
	}
	c.log.Print("screenshot saved to %s", path)
	return path
}
