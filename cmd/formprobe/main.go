// Package main provides formprobe - browser verification of the mediation wizard.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/umputun/formprobe/pkg/browser"
	"github.com/umputun/formprobe/pkg/config"
	"github.com/umputun/formprobe/pkg/notify"
	"github.com/umputun/formprobe/pkg/probe"
	"github.com/umputun/formprobe/pkg/progress"
	"github.com/umputun/formprobe/pkg/render"
	"github.com/umputun/formprobe/pkg/seed"
	"github.com/umputun/formprobe/pkg/status"
)

// opts holds all command-line options.
type opts struct {
	URL          string `short:"u" long:"url" description:"application url (default from config base_url)"`
	Viewport     string `long:"viewport" choice:"mobile" choice:"desktop" description:"browser viewport preset"`
	MaxAttempts  int    `short:"m" long:"max-attempts" description:"navigation attempts per flow (default from config)"`
	SeedFile     string `long:"seed" description:"yaml or json fixture merged over the built-in form state"`
	Screenshots  string `long:"screenshots" description:"directory for diagnostic screenshots"`
	Repeat       int    `short:"n" long:"repeat" default:"1" description:"run the full sequence n times and compare outcomes"`
	Watch        bool   `short:"w" long:"watch" description:"re-run whenever the seed fixture changes"`
	Headed       bool   `long:"headed" description:"show the browser window"`
	SlowMo       int    `long:"slow-mo" description:"delay between browser actions in ms, useful with --headed"`
	Install      bool   `long:"install" description:"install the playwright driver and chromium before running"`
	Strict       bool   `long:"strict" description:"exit with code 2 when any stage fails"`
	ConfigDir    string `long:"config-dir" description:"global config directory"`
	OnlyInstall  bool   `long:"install-only" description:"install the playwright driver and chromium, then exit"`
	NoColor      bool   `long:"no-color" description:"disable color output"`
	Version      bool   `short:"v" long:"version" description:"print version and exit"`
	ShotsSuccess bool   `long:"screenshot-on-success" description:"also capture passing stages"`
	TypeSetup    bool   `long:"type-setup" description:"type the setup step's fields instead of seeding them"`
}

var revision = "unknown"

// errStageFailures is returned by run in strict mode when a stage failed.
var errStageFailures = errors.New("verification failed")

// exit codes
const (
	exitOK      = 0
	exitError   = 1
	exitFailure = 2
)

func main() {
	fmt.Printf("formprobe %s\n", revision)

	var o opts
	parser := flags.NewParser(&o, flags.Default)

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(exitOK)
		}
		os.Exit(exitError)
	}

	if o.Version {
		os.Exit(exitOK)
	}

	// setup context with signal handling, the deferred browser release must still run
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, o)
	os.Exit(exitCode(err))
}

// exitCode maps run's result to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errStageFailures):
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitFailure
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
}

// settings is the resolved configuration for one invocation: config values with flags applied.
type settings struct {
	baseURL        string
	viewport       browser.Viewport
	headless       bool
	slowMo         time.Duration
	seedFile       string
	screenshots    string
	shotsOnSuccess bool
	typeSetup      bool
	timing         probe.Timing
	repeat         int
}

func run(ctx context.Context, o opts) error {
	if o.Install || o.OnlyInstall {
		fmt.Println("installing playwright driver and chromium")
		if err := browser.Install(); err != nil {
			return err
		}
		if o.OnlyInstall {
			return nil
		}
	}

	cfg, err := config.Load(o.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := resolveSettings(cfg, o)
	if err != nil {
		return err
	}

	// create colors from config (all colors guaranteed populated via fallback)
	colors := progress.NewColors(cfg.Colors)
	holder := &status.StageHolder{}

	log, err := progress.NewLogger(progress.Config{
		BaseURL:  st.baseURL,
		Viewport: st.viewport.Name,
		NoColor:  o.NoColor,
	}, colors, holder)
	if err != nil {
		return fmt.Errorf("create progress logger: %w", err)
	}
	defer log.Close()

	notifier, err := notify.New(notifyParams(cfg), log)
	if err != nil {
		return fmt.Errorf("create notifier: %w", err)
	}

	r := &runner{cfg: cfg, st: st, log: log, holder: holder, colors: colors, notifier: notifier, noColor: o.NoColor}
	r.trackSetup()
	printStartupInfo(cfg, st, log.Path(), colors)

	if o.Watch {
		if st.seedFile == "" {
			return errors.New("watch mode requires a seed fixture, set --seed or seed_file")
		}
		restore := disableCtrlCEcho()
		defer restore()
		return r.watch(ctx)
	}

	failed, err := r.series(ctx)
	if err != nil {
		return err
	}
	colors.Info().Printf("\ncompleted in %s\n", log.Elapsed())
	if failed && o.Strict {
		return errStageFailures
	}
	return nil
}

// resolveSettings applies command-line overrides to the loaded config.
func resolveSettings(cfg *config.Config, o opts) (settings, error) {
	st := settings{
		baseURL:        cfg.BaseURL,
		headless:       cfg.Headless,
		seedFile:       cfg.SeedFile,
		screenshots:    cfg.ScreenshotsDir,
		shotsOnSuccess: cfg.ScreenshotOnSuccess || o.ShotsSuccess,
		typeSetup:      cfg.TypeSetup || o.TypeSetup,
		timing:         timingFromConfig(cfg),
		repeat:         o.Repeat,
	}
	if o.URL != "" {
		st.baseURL = o.URL
	}
	if st.baseURL == "" {
		return settings{}, errors.New("application url is required, set --url or base_url")
	}
	if o.Headed {
		st.headless = false
	}
	if o.SlowMo < 0 {
		return settings{}, fmt.Errorf("invalid slow-mo %d", o.SlowMo)
	}
	st.slowMo = time.Duration(o.SlowMo) * time.Millisecond
	if o.SeedFile != "" {
		st.seedFile = o.SeedFile
	}
	if o.Screenshots != "" {
		st.screenshots = o.Screenshots
	}
	if o.MaxAttempts < 0 {
		return settings{}, fmt.Errorf("invalid max attempts %d", o.MaxAttempts)
	}
	if o.MaxAttempts > 0 {
		st.timing.MaxNavAttempts = o.MaxAttempts
	}
	if st.repeat < 1 {
		st.repeat = 1
	}

	viewport := cfg.Viewport
	if o.Viewport != "" {
		viewport = o.Viewport
	}
	vp, err := browser.ViewportByName(viewport)
	if err != nil {
		return settings{}, err
	}
	st.viewport = vp
	return st, nil
}

// timingFromConfig converts the millisecond config values into probe timing.
func timingFromConfig(cfg *config.Config) probe.Timing {
	return probe.Timing{
		TransitionPause: config.Duration(cfg.TransitionPauseMs),
		ScrollSettle:    config.Duration(cfg.ScrollSettleMs),
		DebounceWindow:  config.Duration(cfg.DebounceWindowMs),
		PollInterval:    config.Duration(cfg.PollIntervalMs),
		PollTimeout:     config.Duration(cfg.PollTimeoutMs),
		LoadTimeout:     config.Duration(cfg.LoadTimeoutMs),
		NavTimeout:      config.Duration(cfg.NavTimeoutMs),
		MaxNavAttempts:  cfg.MaxNavAttempts,
	}
}

// buildPlan makes the verification plan from config and the seed fixture, if any.
// empty config values keep the built-in defaults, except suggest_short_input where
// empty disables the negative check.
func buildPlan(cfg *config.Config, seedFile string) (probe.Plan, error) {
	fixture := seed.Default()
	if seedFile != "" {
		f, err := seed.Load(seedFile)
		if err != nil {
			return probe.Plan{}, err
		}
		fixture = f
	}

	plan := probe.DefaultPlan()
	plan.Minimal = fixture.MinimalState()
	plan.Complete = fixture.CompleteState()
	plan.ShortInput = cfg.SuggestShortInput

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&plan.StorageKey, cfg.StorageKey)
	override(&plan.ReadyText, cfg.ReadyText)
	override(&plan.Suggestion.Field, cfg.SuggestField)
	override(&plan.Suggestion.Input, cfg.SuggestInput)
	override(&plan.Suggestion.Expect, cfg.SuggestExpect)
	override(&plan.List.Field, cfg.ListField)
	override(&plan.List.Item, cfg.ListItemText)
	return plan, nil
}

func notifyParams(cfg *config.Config) notify.Params {
	return notify.Params{
		Channels:      cfg.NotifyChannels,
		OnError:       cfg.NotifyOnError,
		OnComplete:    cfg.NotifyOnComplete,
		TimeoutMs:     cfg.NotifyTimeoutMs,
		TelegramToken: cfg.NotifyTelegramToken,
		TelegramChat:  cfg.NotifyTelegramChat,
		SlackToken:    cfg.NotifySlackToken,
		SlackChannel:  cfg.NotifySlackChannel,
		SMTPHost:      cfg.NotifySMTPHost,
		SMTPPort:      cfg.NotifySMTPPort,
		SMTPUsername:  cfg.NotifySMTPUsername,
		SMTPPassword:  cfg.NotifySMTPPassword,
		SMTPStartTLS:  cfg.NotifySMTPStartTLS,
		EmailFrom:     cfg.NotifyEmailFrom,
		EmailTo:       cfg.NotifyEmailTo,
		WebhookURLs:   cfg.NotifyWebhookURLs,
		CustomScript:  cfg.NotifyCustomScript,
	}
}

// runner executes verification runs with a fresh browser session each.
type runner struct {
	cfg      *config.Config
	st       settings
	log      *progress.Logger
	holder   *status.StageHolder
	colors   *progress.Colors
	notifier *notify.Service
	noColor  bool

	// openApp opens the page under test, replaced in tests
	openApp func(st settings) (probe.App, func() error, error)
}

// once runs the full sequence in a new browser session. the session is closed on every path.
func (r *runner) once(ctx context.Context) (*probe.Report, error) {
	plan, err := buildPlan(r.cfg, r.st.seedFile)
	if err != nil {
		return nil, err
	}

	plan.TypeSetup = r.st.typeSetup

	r.holder.Set(status.StageSetup)
	open := r.openApp
	if open == nil {
		open = openSession
	}
	app, closeApp, err := open(r.st)
	if err != nil {
		return nil, fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if closeErr := closeApp(); closeErr != nil {
			r.log.Warn("close browser: %v", closeErr)
		}
	}()

	d := probe.NewDriver(app, r.st.timing, r.log, probe.CaptureOpts{
		Dir:       r.st.screenshots,
		OnSuccess: r.st.shotsOnSuccess,
		Holder:    r.holder,
	})
	return d.Run(ctx, plan)
}

// trackSetup logs how long opening the browser took, measured from entering the
// setup stage to the first load of each run.
func (r *runner) trackSetup() {
	var entered time.Time
	r.holder.OnChange(func(old, cur status.Stage) {
		switch {
		case cur == status.StageSetup:
			entered = time.Now()
		case old == status.StageSetup && cur == status.StageLoad:
			r.log.Print("browser ready in %s", time.Since(entered).Round(time.Millisecond))
		}
	})
}

func openSession(st settings) (probe.App, func() error, error) {
	s, err := browser.Open(browser.Options{
		BaseURL:  st.baseURL,
		Viewport: st.viewport,
		Headless: st.headless,
		SlowMo:   st.slowMo,
		Timeout:  st.timing.PollTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

// series runs the sequence st.repeat times, prints the summary and sends the notification.
// returns true when any stage failed or the runs disagree.
func (r *runner) series(ctx context.Context) (bool, error) {
	var reports []*probe.Report
	var runErr error
	for i := range r.st.repeat {
		if r.st.repeat > 1 {
			r.log.Print("run %d of %d", i+1, r.st.repeat)
		}
		report, err := r.once(ctx)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			runErr = err
			break
		}
	}

	r.summarize(reports)
	res := notify.NewResult(r.st.baseURL, r.st.viewport.Name, reports, runErr)
	r.notifier.Send(context.WithoutCancel(ctx), res)

	if runErr != nil {
		return true, fmt.Errorf("run: %w", runErr)
	}
	return res.Status == notify.StatusFailure, nil
}

func (r *runner) summarize(reports []*probe.Report) {
	r.holder.Set(status.StageSummary)
	summary := render.Summary(render.Target{BaseURL: r.st.baseURL, Viewport: r.st.viewport.String()}, reports)
	out, err := render.RenderMarkdown(summary, r.noColor)
	if err != nil {
		r.log.Warn("render summary: %v", err)
		out = summary
	}
	r.log.PrintRaw("\n%s\n", out)
}

// watch runs the series once, then again after every change of the seed fixture,
// until ctx is canceled. a failing series is reported and watching continues.
func (r *runner) watch(ctx context.Context) error {
	w, err := newSeedWatcher(r.st.seedFile, 500*time.Millisecond, r.log.Warn)
	if err != nil {
		return err
	}
	defer w.Close()
	changes := w.Changes(ctx)

	for {
		if _, err := r.series(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.log.Error("%v", err)
		}
		r.colors.Info().Printf("watching %s for changes, ctrl+c to stop\n", r.st.seedFile)

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			r.log.Print("seed fixture changed, re-running")
		}
	}
}

func printStartupInfo(cfg *config.Config, st settings, progressPath string, colors *progress.Colors) {
	colors.Info().Printf("verifying %s (%s), max %d navigation attempts\n", st.baseURL, st.viewport, st.timing.MaxNavAttempts)
	colors.Info().Printf("config: %s\n", cfg.ConfigDir())
	if local := cfg.LocalDir(); local != "" {
		colors.Info().Printf("local config: %s\n", local)
	}
	if st.slowMo > 0 {
		colors.Info().Printf("slow motion: %s per action\n", st.slowMo)
	}
	if st.seedFile != "" {
		colors.Info().Printf("seed fixture: %s\n", st.seedFile)
	}
	if st.repeat > 1 {
		colors.Info().Printf("repeating %d times\n", st.repeat)
	}
	colors.Info().Printf("screenshots: %s\n", st.screenshots)
	colors.Info().Printf("progress log: %s\n\n", progressPath)
}
