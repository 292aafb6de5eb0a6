package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// Values holds scalar configuration values.
// Fields ending in *Set (e.g., HeadlessSet) track whether that field was explicitly
// set in config. This allows distinguishing explicit false/0 from "not set", enabling
// proper merge behavior where local config can override global config with zero values.
type Values struct {
	BaseURL    string
	StorageKey string // localStorage key the app hydrates FormState from
	ReadyText  string // visible text that marks the app as loaded
	Viewport   string // mobile or desktop
	SeedFile   string // optional yaml/json fixture merged over built-in seeds

	Headless    bool
	HeadlessSet bool // tracks if headless was explicitly set

	MaxNavAttempts       int
	MaxNavAttemptsSet    bool // tracks if max_nav_attempts was explicitly set
	NavTimeoutMs         int
	NavTimeoutMsSet      bool // tracks if nav_timeout_ms was explicitly set
	TransitionPauseMs    int
	TransitionPauseMsSet bool // tracks if transition_pause_ms was explicitly set
	ScrollSettleMs       int
	ScrollSettleMsSet    bool // tracks if scroll_settle_ms was explicitly set
	DebounceWindowMs     int
	DebounceWindowMsSet  bool // tracks if debounce_window_ms was explicitly set
	PollIntervalMs       int
	PollIntervalMsSet    bool // tracks if poll_interval_ms was explicitly set
	PollTimeoutMs        int
	PollTimeoutMsSet     bool // tracks if poll_timeout_ms was explicitly set
	LoadTimeoutMs        int
	LoadTimeoutMsSet     bool // tracks if load_timeout_ms was explicitly set

	ScreenshotsDir         string
	ScreenshotOnSuccess    bool
	ScreenshotOnSuccessSet bool // tracks if screenshot_on_success was explicitly set
	TypeSetup              bool
	TypeSetupSet           bool // tracks if type_setup was explicitly set

	SuggestField         string
	SuggestInput         string
	SuggestShortInput    string
	SuggestShortInputSet bool // tracks if suggest_short_input was explicitly set, empty disables the check
	SuggestExpect        string
	ListField            string
	ListItemText         string

	NotifyChannels      []string
	NotifyOnError       bool
	NotifyOnErrorSet    bool // tracks if notify_on_error was explicitly set
	NotifyOnComplete    bool
	NotifyOnCompleteSet bool // tracks if notify_on_complete was explicitly set
	NotifyTimeoutMs     int
	NotifyTimeoutMsSet  bool // tracks if notify_timeout_ms was explicitly set
	NotifyTelegramToken string
	NotifyTelegramChat  string
	NotifySlackToken    string
	NotifySlackChannel  string
	NotifySMTPHost      string
	NotifySMTPPort      int
	NotifySMTPUsername  string
	NotifySMTPPassword  string
	NotifySMTPStartTLS  bool
	NotifyEmailFrom     string
	NotifyEmailTo       []string
	NotifyWebhookURLs   []string
	NotifyCustomScript  string
}

// valuesLoader implements ValuesLoader with embedded filesystem fallback.
type valuesLoader struct {
	embedFS embed.FS
}

// newValuesLoader creates a new valuesLoader with the given embedded filesystem.
func newValuesLoader(embedFS embed.FS) *valuesLoader {
	return &valuesLoader{embedFS: embedFS}
}

// Load loads values from config files with fallback chain: local → global → embedded.
// localConfigPath and globalConfigPath are full paths to config files (not directories).
//
//nolint:dupl // intentional structural similarity with colorLoader.Load
func (vl *valuesLoader) Load(localConfigPath, globalConfigPath string) (Values, error) {
	// start with embedded defaults
	embedded, err := vl.parseValuesFromEmbedded()
	if err != nil {
		return Values{}, fmt.Errorf("parse embedded defaults: %w", err)
	}

	// parse global config if exists
	global, err := vl.parseValuesFromFile(globalConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse global config: %w", err)
	}

	// parse local config if exists
	local, err := vl.parseValuesFromFile(localConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse local config: %w", err)
	}

	// merge: embedded → global → local (local wins)
	result := embedded
	result.mergeFrom(&global)
	result.mergeFrom(&local)

	return result, nil
}

// parseValuesFromFile reads a config file and parses it into Values.
// returns empty Values (not error) if file doesn't exist or contains only comments/whitespace.
// this enables fallback to embedded defaults for files that are commented templates.
func (vl *valuesLoader) parseValuesFromFile(path string) (Values, error) {
	if path == "" {
		return Values{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return Values{}, nil
		}
		return Values{}, fmt.Errorf("read config %s: %w", path, err)
	}

	// strip comments and check if anything remains
	stripped := stripComments(string(data))
	if strings.TrimSpace(stripped) == "" {
		return Values{}, nil
	}

	return vl.parseValuesFromBytes(data)
}

// parseValuesFromEmbedded parses values from the embedded defaults/config file.
func (vl *valuesLoader) parseValuesFromEmbedded() (Values, error) {
	data, err := vl.embedFS.ReadFile("defaults/config")
	if err != nil {
		return Values{}, fmt.Errorf("read embedded defaults: %w", err)
	}
	return vl.parseValuesFromBytes(data)
}

// parseValuesFromBytes parses configuration from a byte slice into Values.
func (vl *valuesLoader) parseValuesFromBytes(data []byte) (Values, error) {
	// ignoreInlineComment: true prevents # from being treated as inline comment marker (hex colors)
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return Values{}, fmt.Errorf("parse config: %w", err)
	}

	var values Values
	section := cfg.Section("") // default section (no section header)

	// application settings
	strKeys := []struct {
		key   string
		field *string
	}{
		{"base_url", &values.BaseURL},
		{"storage_key", &values.StorageKey},
		{"ready_text", &values.ReadyText},
		{"seed_file", &values.SeedFile},
		{"screenshots_dir", &values.ScreenshotsDir},
		{"suggest_field", &values.SuggestField},
		{"suggest_input", &values.SuggestInput},
		{"suggest_short_input", &values.SuggestShortInput},
		{"suggest_expect", &values.SuggestExpect},
		{"list_field", &values.ListField},
		{"list_item_text", &values.ListItemText},
		{"notify_telegram_token", &values.NotifyTelegramToken},
		{"notify_telegram_chat", &values.NotifyTelegramChat},
		{"notify_slack_token", &values.NotifySlackToken},
		{"notify_slack_channel", &values.NotifySlackChannel},
		{"notify_smtp_host", &values.NotifySMTPHost},
		{"notify_smtp_username", &values.NotifySMTPUsername},
		{"notify_smtp_password", &values.NotifySMTPPassword},
		{"notify_email_from", &values.NotifyEmailFrom},
		{"notify_custom_script", &values.NotifyCustomScript},
	}
	for _, sk := range strKeys {
		if key, err := section.GetKey(sk.key); err == nil {
			*sk.field = strings.TrimSpace(key.String())
		}
	}
	values.SuggestShortInputSet = section.HasKey("suggest_short_input")

	if key, err := section.GetKey("viewport"); err == nil {
		val := strings.ToLower(strings.TrimSpace(key.String()))
		if val != "" && val != "mobile" && val != "desktop" {
			return Values{}, fmt.Errorf("invalid viewport: must be mobile or desktop, got %q", val)
		}
		values.Viewport = val
	}

	// boolean settings
	boolKeys := []struct {
		key   string
		field *bool
		set   *bool
	}{
		{"headless", &values.Headless, &values.HeadlessSet},
		{"screenshot_on_success", &values.ScreenshotOnSuccess, &values.ScreenshotOnSuccessSet},
		{"type_setup", &values.TypeSetup, &values.TypeSetupSet},
		{"notify_on_error", &values.NotifyOnError, &values.NotifyOnErrorSet},
		{"notify_on_complete", &values.NotifyOnComplete, &values.NotifyOnCompleteSet},
		{"notify_smtp_starttls", &values.NotifySMTPStartTLS, nil},
	}
	for _, bk := range boolKeys {
		key, err := section.GetKey(bk.key)
		if err != nil {
			continue
		}
		val, boolErr := key.Bool()
		if boolErr != nil {
			return Values{}, fmt.Errorf("invalid %s: %w", bk.key, boolErr)
		}
		*bk.field = val
		if bk.set != nil {
			*bk.set = true
		}
	}

	// timing and ceiling settings, all non-negative
	intKeys := []struct {
		key   string
		field *int
		set   *bool
	}{
		{"max_nav_attempts", &values.MaxNavAttempts, &values.MaxNavAttemptsSet},
		{"nav_timeout_ms", &values.NavTimeoutMs, &values.NavTimeoutMsSet},
		{"transition_pause_ms", &values.TransitionPauseMs, &values.TransitionPauseMsSet},
		{"scroll_settle_ms", &values.ScrollSettleMs, &values.ScrollSettleMsSet},
		{"debounce_window_ms", &values.DebounceWindowMs, &values.DebounceWindowMsSet},
		{"poll_interval_ms", &values.PollIntervalMs, &values.PollIntervalMsSet},
		{"poll_timeout_ms", &values.PollTimeoutMs, &values.PollTimeoutMsSet},
		{"load_timeout_ms", &values.LoadTimeoutMs, &values.LoadTimeoutMsSet},
		{"notify_timeout_ms", &values.NotifyTimeoutMs, &values.NotifyTimeoutMsSet},
		{"notify_smtp_port", &values.NotifySMTPPort, nil},
	}
	for _, ik := range intKeys {
		key, err := section.GetKey(ik.key)
		if err != nil {
			continue
		}
		val, intErr := key.Int()
		if intErr != nil {
			return Values{}, fmt.Errorf("invalid %s: %w", ik.key, intErr)
		}
		if val < 0 {
			return Values{}, fmt.Errorf("invalid %s: must be non-negative, got %d", ik.key, val)
		}
		*ik.field = val
		if ik.set != nil {
			*ik.set = true
		}
	}
	if values.MaxNavAttemptsSet && values.MaxNavAttempts == 0 {
		return Values{}, errors.New("invalid max_nav_attempts: must be positive")
	}

	// comma-separated lists
	values.NotifyChannels = splitList(section, "notify_channels")
	values.NotifyEmailTo = splitList(section, "notify_email_to")
	values.NotifyWebhookURLs = splitList(section, "notify_webhook_urls")

	return values, nil
}

// splitList reads a comma-separated key into a slice, skipping empty entries.
func splitList(section *ini.Section, name string) []string {
	key, err := section.GetKey(name)
	if err != nil {
		return nil
	}
	val := strings.TrimSpace(key.String())
	if val == "" {
		return nil
	}
	var res []string
	for p := range strings.SplitSeq(val, ",") {
		if t := strings.TrimSpace(p); t != "" {
			res = append(res, t)
		}
	}
	return res
}

// mergeFrom merges non-empty values from src into dst.
func (dst *Values) mergeFrom(src *Values) {
	mergeStr := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	mergeStr(&dst.BaseURL, src.BaseURL)
	mergeStr(&dst.StorageKey, src.StorageKey)
	mergeStr(&dst.ReadyText, src.ReadyText)
	mergeStr(&dst.Viewport, src.Viewport)
	mergeStr(&dst.SeedFile, src.SeedFile)
	mergeStr(&dst.ScreenshotsDir, src.ScreenshotsDir)
	mergeStr(&dst.SuggestField, src.SuggestField)
	mergeStr(&dst.SuggestInput, src.SuggestInput)
	mergeStr(&dst.SuggestExpect, src.SuggestExpect)
	mergeStr(&dst.ListField, src.ListField)
	mergeStr(&dst.ListItemText, src.ListItemText)
	mergeStr(&dst.NotifyTelegramToken, src.NotifyTelegramToken)
	mergeStr(&dst.NotifyTelegramChat, src.NotifyTelegramChat)
	mergeStr(&dst.NotifySlackToken, src.NotifySlackToken)
	mergeStr(&dst.NotifySlackChannel, src.NotifySlackChannel)
	mergeStr(&dst.NotifySMTPHost, src.NotifySMTPHost)
	mergeStr(&dst.NotifySMTPUsername, src.NotifySMTPUsername)
	mergeStr(&dst.NotifySMTPPassword, src.NotifySMTPPassword)
	mergeStr(&dst.NotifyEmailFrom, src.NotifyEmailFrom)
	mergeStr(&dst.NotifyCustomScript, src.NotifyCustomScript)

	if src.HeadlessSet {
		dst.Headless = src.Headless
		dst.HeadlessSet = true
	}
	if src.SuggestShortInputSet {
		dst.SuggestShortInput = src.SuggestShortInput
		dst.SuggestShortInputSet = true
	}
	if src.ScreenshotOnSuccessSet {
		dst.ScreenshotOnSuccess = src.ScreenshotOnSuccess
		dst.ScreenshotOnSuccessSet = true
	}
	if src.TypeSetupSet {
		dst.TypeSetup = src.TypeSetup
		dst.TypeSetupSet = true
	}
	if src.NotifyOnErrorSet {
		dst.NotifyOnError = src.NotifyOnError
		dst.NotifyOnErrorSet = true
	}
	if src.NotifyOnCompleteSet {
		dst.NotifyOnComplete = src.NotifyOnComplete
		dst.NotifyOnCompleteSet = true
	}
	if src.NotifySMTPStartTLS {
		dst.NotifySMTPStartTLS = true
	}

	mergeInt := func(d *int, dSet *bool, s int, sSet bool) {
		if sSet {
			*d = s
			*dSet = true
		}
	}
	mergeInt(&dst.MaxNavAttempts, &dst.MaxNavAttemptsSet, src.MaxNavAttempts, src.MaxNavAttemptsSet)
	mergeInt(&dst.NavTimeoutMs, &dst.NavTimeoutMsSet, src.NavTimeoutMs, src.NavTimeoutMsSet)
	mergeInt(&dst.TransitionPauseMs, &dst.TransitionPauseMsSet, src.TransitionPauseMs, src.TransitionPauseMsSet)
	mergeInt(&dst.ScrollSettleMs, &dst.ScrollSettleMsSet, src.ScrollSettleMs, src.ScrollSettleMsSet)
	mergeInt(&dst.DebounceWindowMs, &dst.DebounceWindowMsSet, src.DebounceWindowMs, src.DebounceWindowMsSet)
	mergeInt(&dst.PollIntervalMs, &dst.PollIntervalMsSet, src.PollIntervalMs, src.PollIntervalMsSet)
	mergeInt(&dst.PollTimeoutMs, &dst.PollTimeoutMsSet, src.PollTimeoutMs, src.PollTimeoutMsSet)
	mergeInt(&dst.LoadTimeoutMs, &dst.LoadTimeoutMsSet, src.LoadTimeoutMs, src.LoadTimeoutMsSet)
	mergeInt(&dst.NotifyTimeoutMs, &dst.NotifyTimeoutMsSet, src.NotifyTimeoutMs, src.NotifyTimeoutMsSet)
	if src.NotifySMTPPort != 0 {
		dst.NotifySMTPPort = src.NotifySMTPPort
	}

	if len(src.NotifyChannels) > 0 {
		dst.NotifyChannels = src.NotifyChannels
	}
	if len(src.NotifyEmailTo) > 0 {
		dst.NotifyEmailTo = src.NotifyEmailTo
	}
	if len(src.NotifyWebhookURLs) > 0 {
		dst.NotifyWebhookURLs = src.NotifyWebhookURLs
	}
}

// stripComments removes lines starting with # (comment lines) from content.
// empty lines are preserved, inline comments are not supported.
// handles both Unix (LF) and Windows (CRLF) line endings.
func stripComments(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	lines := make([]string, 0, strings.Count(content, "\n")+1)
	for line := range strings.SplitSeq(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
