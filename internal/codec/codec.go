// Package codec maps action kinds to their JSON payload shapes.
//
// Two consumers need to rebuild concrete actions from stored data: the
// journal (replay) and the scenario loader (YAML steps). Both go through
// one Codec so the set of decodable kinds is declared exactly once per
// slice, keeping the per-domain enumeration closed.
package codec

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tomhutton/strata/internal/state"
)

// DecodeFunc rebuilds a concrete action from its JSON payload.
type DecodeFunc func(payload []byte) (state.Action, error)

// Codec is a registry of action kinds. Construct once at wiring time;
// not safe for concurrent registration.
type Codec struct {
	decoders map[state.Kind]DecodeFunc
}

// New creates an empty codec.
func New() *Codec {
	return &Codec{decoders: make(map[state.Kind]DecodeFunc)}
}

// Register binds a kind to its decoder. Registering a kind twice is a
// wiring defect and is rejected.
func (c *Codec) Register(kind state.Kind, dec DecodeFunc) error {
	if kind == "" || dec == nil {
		return fmt.Errorf("codec: kind and decoder are required")
	}
	if _, dup := c.decoders[kind]; dup {
		return fmt.Errorf("codec: kind %q registered twice", kind)
	}
	c.decoders[kind] = dec
	return nil
}

// MustRegister is Register for static wiring; panics on defect.
func (c *Codec) MustRegister(kind state.Kind, dec DecodeFunc) {
	if err := c.Register(kind, dec); err != nil {
		panic(err)
	}
}

// Decode rebuilds the action for kind from its JSON payload.
func (c *Codec) Decode(kind state.Kind, payload []byte) (state.Action, error) {
	dec, ok := c.decoders[kind]
	if !ok {
		return nil, fmt.Errorf("codec: unknown action kind %q", kind)
	}
	act, err := dec(payload)
	if err != nil {
		return nil, fmt.Errorf("codec: decode %q: %w", kind, err)
	}
	return act, nil
}

// Encode serializes an action's payload to JSON. The concrete action
// struct is the payload; the kind travels separately.
func (c *Codec) Encode(act state.Action) ([]byte, error) {
	payload, err := json.Marshal(act)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %q: %w", act.Kind(), err)
	}
	return payload, nil
}

// Knows reports whether the kind is registered.
func (c *Codec) Knows(kind state.Kind) bool {
	_, ok := c.decoders[kind]
	return ok
}

// Kinds returns the registered kinds in lexical order.
func (c *Codec) Kinds() []state.Kind {
	kinds := make([]state.Kind, 0, len(c.decoders))
	for k := range c.decoders {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Typed adapts a concrete action type to a DecodeFunc.
func Typed[A state.Action]() DecodeFunc {
	return func(payload []byte) (state.Action, error) {
		var a A
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &a); err != nil {
				return nil, err
			}
		}
		return a, nil
	}
}
