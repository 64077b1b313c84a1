package state

// Kind names a discrete event in a closed, per-slice enumeration.
//
// By convention kinds are slice-qualified, e.g. "operations/add" or
// "currencies/load". The set of kinds a slice understands is fixed at
// compile time; reducers treat anything outside their set as a no-op.
type Kind string

// Action is an immutable, typed record describing what happened.
//
// Each concrete action is a struct carrying the fixed payload shape for
// its kind. Actions are constructed at the point of intent, dispatched
// once, and discarded - they are never retained or mutated by the store.
type Action interface {
	Kind() Kind
}
