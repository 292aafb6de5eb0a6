package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/umputun/formprobe/pkg/seed"
	"github.com/umputun/formprobe/pkg/status"
)

// flow names, also used as screenshot prefixes.
const (
	FlowSuggestion = "suggestion"
	FlowList       = "list"
)

// Plan is what a run verifies and against which seeded state.
type Plan struct {
	StorageKey string // local storage key the app hydrates from
	ReadyText  string // text marking the app as rendered, empty falls back to h1
	Minimal    seed.FormState
	Complete   seed.FormState
	Suggestion SuggestionCheck
	ShortInput string // below the generation threshold, empty skips the negative check
	List       ListCheck
	TypeSetup  bool // type the setup step's values into the ui instead of seeding them
}

// DefaultPlan returns the plan for the live mediation wizard.
func DefaultPlan() Plan {
	return Plan{
		StorageKey: "mediation_form_v1",
		ReadyText:  "Co-op Conflict Resolution Platform",
		Minimal:    seed.Minimal(),
		Complete:   seed.Complete(),
		Suggestion: SuggestionCheck{Field: "partyAThoughts", Input: "I feel frustrated", Expect: "I feel"},
		ShortInput: "I",
		List:       ListCheck{Field: "partyATop3Solutions", Item: "Solution 1"},
	}
}

// Driver runs the suggestion flow and then the structured-list flow, each from freshly
// seeded state, with every stage wrapped by a Capture.
type Driver struct {
	app    App
	timing Timing
	log    Logger
	opts   CaptureOpts
}

// NewDriver makes a driver over app.
func NewDriver(app App, timing Timing, log Logger, opts CaptureOpts) *Driver {
	return &Driver{app: app, timing: timing, log: orNop(log), opts: opts}
}

type flow struct {
	name   string
	state  seed.FormState
	dest   string       // field that marks the target step
	stage  status.Stage // verification stage after navigation
	verify func(ctx context.Context) error
}

// Run executes both flows. stage failures are recorded in the report and do not stop
// the run; the returned error is non-nil only when the run was aborted, either because
// the app never loaded (ErrAppNotLoaded) or because ctx was canceled.
func (d *Driver) Run(ctx context.Context, plan Plan) (*Report, error) {
	report := NewReport()
	defer report.Finish()
	capture := NewCapture(d.app, report, d.log, d.opts)

	suggest := NewSuggestionVerifier(d.app, d.timing, d.log)
	list := NewListVerifier(d.app, d.timing, d.log)

	flows := []flow{
		{
			name: FlowSuggestion, state: plan.Minimal, dest: plan.Suggestion.Field, stage: status.StageSuggest,
			verify: func(ctx context.Context) error {
				if plan.ShortInput != "" {
					if err := suggest.VerifyAbsent(ctx, plan.Suggestion.Field, plan.ShortInput); err != nil {
						return err
					}
				}
				return suggest.Verify(ctx, plan.Suggestion)
			},
		},
		{
			name: FlowList, state: plan.Complete, dest: plan.List.Field, stage: status.StageList,
			verify: func(ctx context.Context) error { return list.Verify(ctx, plan.List) },
		},
	}

	for _, f := range flows {
		if err := d.runFlow(ctx, capture, plan, f); err != nil {
			if d.opts.Holder != nil {
				d.opts.Holder.Set(status.StageSummary)
			}
			return report, err
		}
	}
	if d.opts.Holder != nil {
		d.opts.Holder.Set(status.StageSummary)
	}
	return report, nil
}

func (d *Driver) runFlow(ctx context.Context, capture *Capture, plan Plan, f flow) error {
	seeded := f.state
	if plan.TypeSetup {
		seeded = f.state.Without(seed.SetupFields()...)
	}
	d.log.Print("flow %s: seeding %d fields, target %s", f.name, len(seeded), f.dest)

	err := capture.Stage(ctx, f.name, status.StageLoad, func(ctx context.Context) error {
		return d.load(ctx, plan, seeded)
	})
	if err != nil {
		capture.Skip(f.name, status.StageNavigate, "app not loaded")
		capture.Skip(f.name, f.stage, "app not loaded")
		return fmt.Errorf("flow %s: %w", f.name, err)
	}

	nav := NewNavigator(d.app, d.timing, d.log)
	err = capture.Stage(ctx, f.name, status.StageNavigate, func(ctx context.Context) error {
		if plan.TypeSetup {
			if err := d.typeSetup(f.state); err != nil {
				return err
			}
		}
		res, err := nav.Advance(ctx, FieldControl(f.dest))
		d.log.Print("navigation %s: %d attempts, %d clicks, %d disabled", res.State, res.Attempts, res.Clicks, res.DisabledHits)
		return err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("flow %s: %w", f.name, ctxErr)
		}
		capture.Skip(f.name, f.stage, "navigation failed")
		return nil
	}

	if err := capture.Stage(ctx, f.name, f.stage, f.verify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("flow %s: %w", f.name, ctxErr)
		}
	}
	return nil
}

// typeSetup fills the setup step's fields from state through the ui, the way a user would.
func (d *Driver) typeSetup(state seed.FormState) error {
	resolver := NewResolver(d.app)
	typed := 0
	for _, name := range seed.SetupFields() {
		v, ok := state[name]
		if !ok {
			continue
		}
		m := resolver.Resolve(FieldControl(name))
		if !m.Found {
			if m.Err != nil {
				return fmt.Errorf("setup field %s: %w: %w", name, ErrElementNotFound, m.Err)
			}
			return fmt.Errorf("setup field %s: %w", name, ErrElementNotFound)
		}
		if err := m.Element.Fill(fmt.Sprint(v)); err != nil {
			return fmt.Errorf("type setup field %s: %w", name, err)
		}
		typed++
	}
	d.log.Print("typed %d setup fields", typed)
	return nil
}

// load seeds state and waits for the ready marker. every failure wraps ErrAppNotLoaded.
func (d *Driver) load(ctx context.Context, plan Plan, state seed.FormState) error {
	value, err := state.JSON()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAppNotLoaded, err)
	}
	if err := d.app.Seed(ctx, plan.StorageKey, value); err != nil {
		return fmt.Errorf("%w: seed %s: %w", ErrAppNotLoaded, plan.StorageKey, err)
	}

	ready := ReadyControl(plan.ReadyText)
	waiter := Waiter{Interval: d.timing.PollInterval}
	if err := waiter.Poll(ctx, d.timing.LoadTimeout, NewResolver(d.app).presentCond(ready)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %s not visible: %w", ErrAppNotLoaded, ready.Targets[0], err)
	}
	d.log.Print("app ready")
	return nil
}
