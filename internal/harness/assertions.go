package harness

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/tomhutton/strata/internal/scenario"
	"github.com/tomhutton/strata/internal/state"
)

// evaluate checks one final-state assertion against the tree.
//
// The slice state and the expectation are both round-tripped through
// JSON so scenario-file literals (YAML ints, floats) and Go struct
// fields compare under one representation.
func evaluate(tree *state.Tree, a scenario.Assertion) error {
	if a.Slice == "" {
		return fmt.Errorf("assertion is missing a slice name")
	}
	sliceState := tree.Slice(a.Slice)
	if sliceState == nil {
		return fmt.Errorf("slice %q is not registered", a.Slice)
	}

	got, err := normalize(sliceState)
	if err != nil {
		return fmt.Errorf("slice %q: %w", a.Slice, err)
	}
	want, err := normalize(a.Expect)
	if err != nil {
		return fmt.Errorf("slice %q expectation: %w", a.Slice, err)
	}

	if err := subsetMatch(got, want); err != nil {
		return fmt.Errorf("slice %q: %w", a.Slice, err)
	}
	return nil
}

// normalize round-trips a value through JSON into the generic
// map/slice/float64 representation.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// subsetMatch compares got against want: every field want mentions must
// be present and equal in got; objects match recursively, arrays match
// element-wise with exact length, scalars must be equal.
func subsetMatch(got, want any) error {
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", got)
		}
		for key, wv := range w {
			gv, present := g[key]
			if !present {
				return fmt.Errorf("field %q missing", key)
			}
			if err := subsetMatch(gv, wv); err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
		}
		return nil

	case []any:
		g, ok := got.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", got)
		}
		if len(g) != len(w) {
			return fmt.Errorf("expected %d elements, got %d", len(w), len(g))
		}
		for i := range w {
			if err := subsetMatch(g[i], w[i]); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil

	default:
		if !reflect.DeepEqual(got, want) {
			return fmt.Errorf("expected %v, got %v", want, got)
		}
		return nil
	}
}
