// Package seed provides FormState fixtures injected into the wizard's persisted state.
package seed

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FormState is the application's persisted form data, field name to value.
// values are strings, dates as strings, and the ordered actionSteps sequence.
type FormState map[string]any

// Minimal returns the smallest state that satisfies the first step's required fields.
func Minimal() FormState {
	return FormState{
		"partyAName":          "Alice",
		"partyBName":          "Bob",
		"conflictDescription": "A conflict description that is long enough.",
	}
}

// Complete returns a state with every wizard field populated, so navigation can
// reach the late steps without typing.
func Complete() FormState {
	fs := Minimal()
	maps.Copy(fs, FormState{
		"dateOfIncident":          "2023-01-01",
		"dateOfMediation":         "2023-01-02",
		"locationOfConflict":      "Office",
		"partyAThoughts":          "Thoughts A",
		"partyAAssertiveApproach": "Approach A",
		"partyBThoughts":          "Thoughts B",
		"partyBAssertiveApproach": "Approach B",
		"activatingEvent":         "Event",
		"partyABeliefs":           "Beliefs A",
		"partyBBeliefs":           "Beliefs B",
		"partyAConsequences":      "Consequences A",
		"partyBConsequences":      "Consequences B",
		"partyADisputations":      "Disputations A",
		"partyBDisputations":      "Disputations B",
		"effectsReflections":      "Reflections",
		"partyAMiracle":           "Miracle A",
		"partyBMiracle":           "Miracle B",
		"compromiseSolutions":     "Compromise",
		"actionSteps":             []any{},
		"followUpDate":            "2023-02-01",
		"partyAColor":             "#6B8E47",
		"partyBColor":             "#0D9488",
	})
	return fs
}

// SetupFields returns the fields of the first wizard step, all required to advance.
func SetupFields() []string {
	return []string{"partyAName", "partyBName", "conflictDescription"}
}

// Without returns a copy of fs without keys.
func (fs FormState) Without(keys ...string) FormState {
	res := fs.Clone()
	for _, k := range keys {
		delete(res, k)
	}
	return res
}

// Clone returns a shallow copy of the state.
func (fs FormState) Clone() FormState {
	if fs == nil {
		return FormState{}
	}
	return maps.Clone(fs)
}

// Merge returns a copy of fs with every key of other applied on top.
func (fs FormState) Merge(other FormState) FormState {
	res := fs.Clone()
	maps.Copy(res, other)
	return res
}

// JSON encodes the state the way the application stores it in localStorage.
func (fs FormState) JSON() (string, error) {
	if fs == nil {
		fs = FormState{}
	}
	data, err := json.Marshal(map[string]any(fs))
	if err != nil {
		return "", fmt.Errorf("encode form state: %w", err)
	}
	return string(data), nil
}

// Fixture holds per-flow overrides loaded from a file.
// Minimal is applied over Minimal() for the suggestion flow,
// Complete over Complete() for the structured-list flow.
type Fixture struct {
	Minimal  FormState `yaml:"minimal" json:"minimal"`
	Complete FormState `yaml:"complete" json:"complete"`
}

// Default returns the built-in fixture with no overrides.
func Default() Fixture {
	return Fixture{}
}

// MinimalState returns the minimal state with the fixture overrides applied.
func (f Fixture) MinimalState() FormState {
	return Minimal().Merge(f.Minimal)
}

// CompleteState returns the complete state with the fixture overrides applied.
func (f Fixture) CompleteState() FormState {
	return Complete().Merge(f.Complete)
}

// Load reads a fixture file. yaml and json are accepted, chosen by extension;
// json is a subset of yaml so unknown extensions are parsed as yaml.
func Load(path string) (Fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided fixture path
	if err != nil {
		return Fixture{}, fmt.Errorf("read seed file: %w", err)
	}

	var f Fixture
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &f); err != nil {
			return Fixture{}, fmt.Errorf("parse seed file %s: %w", path, err)
		}
		return f, nil
	}

	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return f, nil
}
