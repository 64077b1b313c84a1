package scenario

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// Schema validates scenario steps against the closed action-kind
// enumerations declared in schema.cue.
//
// Build one with CompileSchema and reuse it; compilation is the
// expensive part. A Schema is safe for concurrent Validate calls.
type Schema struct {
	step cue.Value
}

// CompileSchema compiles the embedded CUE schema.
func CompileSchema() (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaCUE)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile action schema: %w", err)
	}
	step := v.LookupPath(cue.ParsePath("#Step"))
	if !step.Exists() {
		return nil, fmt.Errorf("compile action schema: #Step definition missing")
	}
	return &Schema{step: step}, nil
}

// Validate checks every step of the scenario against the schema.
// A step whose kind is outside the closed enumeration, or whose payload
// does not match its kind's declared shape, fails validation.
func (s *Schema) Validate(sc *Scenario) error {
	for i, step := range sc.Steps {
		if err := s.validateStep(step); err != nil {
			return fmt.Errorf("scenario %q step %d (%s): %w", sc.Name, i+1, step.Kind, err)
		}
	}
	return nil
}

// validateStep unifies one step with the #Step disjunction.
func (s *Schema) validateStep(step Step) error {
	doc := map[string]any{"kind": step.Kind}
	if step.Payload != nil {
		doc["payload"] = step.Payload
	} else {
		doc["payload"] = map[string]any{}
	}

	encoded := s.step.Context().Encode(doc)
	if err := encoded.Err(); err != nil {
		return fmt.Errorf("encode step: %w", err)
	}

	unified := s.step.Unify(encoded)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
