// Package notify reports verification results to chat, mail, webhooks or a local script.
// delivery is best-effort, a failing channel is logged and never fails the run.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"os"
	"strings"
	"time"

	ntfy "github.com/go-pkgz/notify"

	"github.com/umputun/formprobe/pkg/probe"
	"github.com/umputun/formprobe/pkg/status"
)

// result statuses
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

const defaultTimeout = 10 * time.Second

// errMissingSetting marks a channel that is enabled but not configured.
var errMissingSetting = errors.New("missing setting")

// Params holds the notify_* settings.
type Params struct {
	Channels      []string
	OnError       bool
	OnComplete    bool
	TimeoutMs     int
	TelegramToken string
	TelegramChat  string
	SlackToken    string
	SlackChannel  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPStartTLS  bool
	EmailFrom     string
	EmailTo       []string
	WebhookURLs   []string
	CustomScript  string
}

// secrets lists values that must never reach a log line.
func (p Params) secrets() []string {
	return []string{p.TelegramToken, p.SlackToken, p.SMTPPassword}
}

// Result is one invocation's outcome, sent to every channel. the custom script gets it as json.
type Result struct {
	Status   string   `json:"status"`
	BaseURL  string   `json:"base_url"`
	Viewport string   `json:"viewport"`
	Runs     int      `json:"runs"`
	Passed   int      `json:"passed"`
	Failed   int      `json:"failed"`
	Skipped  int      `json:"skipped"`
	Duration string   `json:"duration"`
	Failures []string `json:"failures,omitempty"` // flow/stage: error, one per failed stage
	Error    string   `json:"error,omitempty"`    // run-level error, the run was aborted
}

// NewResult summarizes the reports of one invocation. runErr is the error that aborted
// the run, if any. the status is failure when runErr is set, a stage failed or the
// reports disagree.
func NewResult(baseURL, viewport string, reports []*probe.Report, runErr error) Result {
	r := Result{Status: StatusSuccess, BaseURL: baseURL, Viewport: viewport, Runs: len(reports)}
	var total time.Duration
	signatures := map[string]bool{}
	for _, rep := range reports {
		r.Passed += rep.Count(status.OutcomePass)
		r.Failed += rep.Count(status.OutcomeFail)
		r.Skipped += rep.Count(status.OutcomeSkip)
		total += rep.Duration()
		signatures[rep.Signature()] = true
		for _, sr := range rep.Failed() {
			r.Failures = append(r.Failures, fmt.Sprintf("%s/%s: %v", sr.Flow, sr.Stage, sr.Err))
		}
	}
	r.Duration = total.Round(time.Second).String()
	if runErr != nil {
		r.Error = runErr.Error()
	}
	if len(signatures) > 1 {
		r.Failures = append(r.Failures, fmt.Sprintf("%d runs disagree on stage outcomes", len(reports)))
	}
	if runErr != nil || r.Failed > 0 || len(signatures) > 1 {
		r.Status = StatusFailure
	}
	return r
}

// Message renders the plain text body sent to chat and mail channels.
func (r Result) Message(host string) string {
	var b strings.Builder
	verdict := "passed"
	if r.Status != StatusSuccess {
		verdict = "failed"
	}
	fmt.Fprintf(&b, "formprobe %s on %s\n\n", verdict, host)

	line := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-9s %s\n", name+":", value)
		}
	}
	line("target", r.BaseURL)
	line("viewport", r.Viewport)
	if r.Runs > 1 {
		line("runs", fmt.Sprint(r.Runs))
	}
	line("duration", r.Duration)
	line("stages", fmt.Sprintf("%d passed, %d failed, %d skipped", r.Passed, r.Failed, r.Skipped))
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	line("error", r.Error)
	return b.String()
}

// target is one delivery destination of a go-pkgz notifier.
type target struct {
	name       string
	notifier   ntfy.Notifier
	dest       string
	escapeHTML bool // telegram is sent in html parse mode
}

type logger interface {
	Warn(format string, args ...any)
}

// Service delivers results to the configured targets.
type Service struct {
	targets    []target
	script     *customChannel
	onError    bool
	onComplete bool
	timeout    time.Duration
	host       string
	log        logger
}

// builder makes the targets of one channel kind from params.
type builder func(p Params) ([]target, error)

var builders = map[string]builder{
	"telegram": buildTelegram,
	"email":    buildEmail,
	"slack":    buildSlack,
	"webhook":  buildWebhooks,
}

// New makes a Service for p.Channels. it returns nil, nil when no channel is enabled;
// Send is nil-safe. a channel missing required settings is an error, a channel that
// fails to initialize otherwise (telegram verifies its token online) is skipped with a warning.
func New(p Params, log logger) (*Service, error) {
	if len(p.Channels) == 0 {
		return nil, nil //nolint:nilnil // no channels configured
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	svc := &Service{onError: p.OnError, onComplete: p.OnComplete, timeout: defaultTimeout, host: host, log: log}
	if p.TimeoutMs > 0 {
		svc.timeout = time.Duration(p.TimeoutMs) * time.Millisecond
	}

	for _, raw := range p.Channels {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "custom" {
			if err := need("notify_custom_script", p.CustomScript); err != nil {
				return nil, fmt.Errorf("custom channel: %w", err)
			}
			svc.script = newCustomChannel(p.CustomScript)
			continue
		}

		build, ok := builders[name]
		if !ok {
			return nil, fmt.Errorf("unknown notification channel: %q", raw)
		}
		targets, err := build(p)
		switch {
		case errors.Is(err, errMissingSetting):
			return nil, fmt.Errorf("%s channel: %w", name, err)
		case err != nil:
			log.Warn("%s channel disabled: %s", name, redact(err.Error(), p.secrets()))
			continue
		}
		svc.targets = append(svc.targets, targets...)
	}

	if len(svc.targets) == 0 && svc.script == nil {
		log.Warn("all notification channels were disabled due to initialization errors")
	}
	return svc, nil
}

// Send delivers r if its status is enabled by on_error/on_complete. failures are logged.
func (s *Service) Send(ctx context.Context, r Result) {
	if s == nil || !s.wants(r) {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := r.Message(s.host)
	for _, t := range s.targets {
		text := msg
		if t.escapeHTML {
			text = html.EscapeString(msg)
		}
		if err := t.notifier.Send(ctx, t.dest, text); err != nil {
			s.log.Warn("notify %s: %v", t.name, err)
		}
	}
	if s.script != nil {
		if err := s.script.send(ctx, r); err != nil {
			s.log.Warn("notify custom: %v", err)
		}
	}
}

func (s *Service) wants(r Result) bool {
	if r.Status == StatusSuccess {
		return s.onComplete
	}
	return s.onError
}

// need returns errMissingSetting for the first empty value of key, value pairs.
func need(kv ...string) error {
	for i := 0; i+1 < len(kv); i += 2 {
		if strings.TrimSpace(kv[i+1]) == "" {
			return fmt.Errorf("%w: %s", errMissingSetting, kv[i])
		}
	}
	return nil
}

func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, "[REDACTED]")
		}
	}
	return s
}

// newTelegram is replaced in tests, the real constructor calls the bot api.
var newTelegram = func(token string) (ntfy.Notifier, error) {
	return ntfy.NewTelegram(ntfy.TelegramParams{Token: token})
}

func buildTelegram(p Params) ([]target, error) {
	if err := need("notify_telegram_token", p.TelegramToken, "notify_telegram_chat", p.TelegramChat); err != nil {
		return nil, err
	}
	tg, err := newTelegram(p.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram notifier: %w", err)
	}
	dest := fmt.Sprintf("telegram:%s?parseMode=HTML", p.TelegramChat)
	return []target{{name: "telegram", notifier: tg, dest: dest, escapeHTML: true}}, nil
}

func buildEmail(p Params) ([]target, error) {
	if err := need("notify_smtp_host", p.SMTPHost, "notify_email_from", p.EmailFrom,
		"notify_email_to", strings.Join(p.EmailTo, ",")); err != nil {
		return nil, err
	}
	em := ntfy.NewEmail(ntfy.SMTPParams{
		Host:     p.SMTPHost,
		Port:     p.SMTPPort,
		Username: p.SMTPUsername,
		Password: p.SMTPPassword,
		StartTLS: p.SMTPStartTLS,
	})
	dest := fmt.Sprintf("mailto:%s?from=%s&subject=%s", strings.Join(p.EmailTo, ","),
		url.QueryEscape(p.EmailFrom), url.QueryEscape("formprobe verification result"))
	return []target{{name: "email", notifier: em, dest: dest}}, nil
}

func buildSlack(p Params) ([]target, error) {
	if err := need("notify_slack_token", p.SlackToken, "notify_slack_channel", p.SlackChannel); err != nil {
		return nil, err
	}
	return []target{{name: "slack", notifier: ntfy.NewSlack(p.SlackToken), dest: "slack:" + p.SlackChannel}}, nil
}

// buildWebhooks shares one notifier between all configured urls.
func buildWebhooks(p Params) ([]target, error) {
	if err := need("notify_webhook_urls", strings.Join(p.WebhookURLs, ",")); err != nil {
		return nil, err
	}
	wh := ntfy.NewWebhook(ntfy.WebhookParams{})
	targets := make([]target, 0, len(p.WebhookURLs))
	for _, u := range p.WebhookURLs {
		targets = append(targets, target{name: "webhook " + u, notifier: wh, dest: u})
	}
	return targets, nil
}
