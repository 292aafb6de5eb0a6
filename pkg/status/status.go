// Package status defines the shared run vocabulary for formprobe.
// stage and outcome types shared by the driver, progress, notify and the cli.
package status

// Stage represents a wrapped unit of a verification run, used for color coding and screenshot tags.
type Stage string

// Stage constants for a verification run.
const (
	StageSetup    Stage = "setup"    // browser bootstrap (info color)
	StageLoad     Stage = "load"     // seeding and waiting for the app (cyan)
	StageNavigate Stage = "navigate" // wizard advancement (green)
	StageSuggest  Stage = "suggest"  // debounced suggestions (magenta)
	StageList     Stage = "list"     // structured list widget (blue)
	StageSummary  Stage = "summary"  // end of run report (info color)
)

// Outcome is the result of a single stage.
type Outcome string

// Outcome constants.
const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	OutcomeSkip Outcome = "skip"
)
