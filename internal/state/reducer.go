package state

import "reflect"

// Reducer is a pure transition function for one slice of the tree.
//
// Given the slice's prior state and an action, it returns the next state.
// Contract:
//   - No I/O, no mutation of arguments, no reliance on wall-clock time.
//   - Same inputs always yield the same output.
//   - An unrecognized action kind returns the prior state value
//     UNCHANGED (same reference), which is how no-ops are detected.
type Reducer func(prior any, act Action) any

// Slice declares one named region of the whole-tree state.
//
// Initial must be a reference value (typically a pointer to a state
// struct): no-op detection compares successive slice states by identity,
// and reducers are expected to return either the prior reference or a
// freshly built replacement.
type Slice struct {
	Name    string
	Initial any
	Reduce  Reducer
}

// MetaReducer composes independent slice reducers into a single
// whole-tree transition function.
//
// Built once at startup from static registration and immutable
// thereafter. Registration order is preserved: it defines slice order in
// Tree.Names() and the order reducers are invoked on each dispatch.
//
// INVARIANTS:
//   - Every registered slice name has exactly one tree entry at all times.
//   - Reduce(tree, act).Slice(name) == slices[name].Reduce(tree.Slice(name), act)
//     for every registered name.
//   - Slices are independent: no reducer sees another slice's state.
type MetaReducer struct {
	slices []Slice
	index  map[string]int
}

// NewMetaReducer validates the slice declarations and builds the
// composed reducer. The slices parameter order is the registration order.
func NewMetaReducer(slices ...Slice) (*MetaReducer, error) {
	index := make(map[string]int, len(slices))
	for i, sl := range slices {
		if sl.Name == "" {
			return nil, &FaultError{
				Code:    FaultInvalidSlice,
				Message: "slice name must not be empty",
			}
		}
		if sl.Reduce == nil {
			return nil, &FaultError{
				Code:    FaultInvalidSlice,
				Message: "slice reducer must not be nil",
				Slice:   sl.Name,
			}
		}
		if !isReferenceState(sl.Initial) {
			return nil, &FaultError{
				Code:    FaultInvalidSlice,
				Message: "initial state must be a non-nil reference value (pointer-shaped)",
				Slice:   sl.Name,
			}
		}
		if _, dup := index[sl.Name]; dup {
			return nil, &FaultError{
				Code:    FaultDuplicateSlice,
				Message: "slice name registered twice",
				Slice:   sl.Name,
			}
		}
		index[sl.Name] = i
	}

	// Copy to prevent external mutation of the registration order.
	cp := make([]Slice, len(slices))
	copy(cp, slices)

	return &MetaReducer{slices: cp, index: index}, nil
}

// InitialTree builds the seq-0 tree from the declared slice defaults.
func (m *MetaReducer) InitialTree() *Tree {
	values := make(map[string]any, len(m.slices))
	for _, sl := range m.slices {
		values[sl.Name] = sl.Initial
	}
	return &Tree{meta: m, values: values}
}

// Reduce applies every slice reducer to its own slice of prior.
//
// Returns a new tree only if at least one slice produced a different
// value (compared by reference, not deep equality). Otherwise prior is
// returned unchanged, preserving the no-op guarantee at tree scope.
func (m *MetaReducer) Reduce(prior *Tree, act Action) *Tree {
	var next map[string]any
	for _, sl := range m.slices {
		before := prior.values[sl.Name]
		after := sl.Reduce(before, act)
		if after == before {
			continue
		}
		if next == nil {
			next = make(map[string]any, len(m.slices))
			for k, v := range prior.values {
				next[k] = v
			}
		}
		next[sl.Name] = after
	}
	if next == nil {
		return prior
	}
	return &Tree{meta: m, values: next, seq: prior.seq}
}

// Names returns the slice names in registration order.
func (m *MetaReducer) Names() []string {
	names := make([]string, len(m.slices))
	for i, sl := range m.slices {
		names[i] = sl.Name
	}
	return names
}

// isReferenceState reports whether v can serve as a slice state:
// non-nil, and comparable by identity rather than by content. Pointers
// are the expected shape; channels and funcs are tolerated but unusual.
func isReferenceState(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return !reflect.ValueOf(v).IsNil()
	default:
		return false
	}
}

// Tree is one immutable whole-tree snapshot: a mapping from slice name
// to slice state, stamped with the logical seq of the dispatch that
// produced it. Trees are compared by pointer identity.
type Tree struct {
	meta   *MetaReducer
	values map[string]any
	seq    int64
}

// Slice returns the state registered under name, or nil if the name is
// not a registered slice.
func (t *Tree) Slice(name string) any {
	return t.values[name]
}

// Seq returns the logical sequence number of the dispatch that produced
// this snapshot. The initial tree has seq 0.
func (t *Tree) Seq() int64 {
	return t.seq
}

// Names returns the slice names in registration order.
func (t *Tree) Names() []string {
	return t.meta.Names()
}
