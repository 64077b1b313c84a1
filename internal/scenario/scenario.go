// Package scenario defines runnable action scripts for the strata demo
// and conformance harness.
//
// A scenario is a YAML document: a named sequence of action steps plus
// assertions on the final state. Steps are validated against the CUE
// action schema (schema.cue) before execution, so only the closed,
// per-slice action enumerations can appear in a scenario file.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tomhutton/strata/internal/codec"
	"github.com/tomhutton/strata/internal/state"
)

// Scenario is one runnable script.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden
	// trace file in harness tests.
	Name string `yaml:"name"`

	// Description explains what this scenario demonstrates.
	Description string `yaml:"description,omitempty"`

	// Steps is the action sequence, dispatched in order. Steps that
	// start an effect workflow are drained before the next step runs.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final tree after all steps settle.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one action: a kind from a slice's closed enumeration and the
// payload shape fixed for that kind.
type Step struct {
	Kind    string         `yaml:"kind"`
	Payload map[string]any `yaml:"payload,omitempty"`
}

// Assertion is a subset match against one slice of the final tree: the
// slice state is serialized to JSON and every field in Expect must be
// present and equal. Fields not mentioned are ignored.
type Assertion struct {
	Slice  string         `yaml:"slice"`
	Expect map[string]any `yaml:"expect"`
}

// Load reads and parses a scenario file. Parsing does not validate step
// shapes; call Validate before executing.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	return Parse(data)
}

// Parse parses scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("parse scenario: name is required")
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse scenario %q: at least one step is required", sc.Name)
	}
	return &sc, nil
}

// Actions rebuilds the concrete actions for the scenario's steps using
// the codec. The scenario should be validated first; the codec will
// still reject unknown kinds, but with less helpful positions.
func (sc *Scenario) Actions(c *codec.Codec) ([]state.Action, error) {
	acts := make([]state.Action, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		payload, err := json.Marshal(step.Payload)
		if err != nil {
			return nil, fmt.Errorf("scenario %q step %d: %w", sc.Name, i+1, err)
		}
		act, err := c.Decode(state.Kind(step.Kind), payload)
		if err != nil {
			return nil, fmt.Errorf("scenario %q step %d: %w", sc.Name, i+1, err)
		}
		acts = append(acts, act)
	}
	return acts, nil
}
