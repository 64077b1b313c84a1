// Package ledger owns the "operations" slice: the list of money
// operations (expenses and incomes) the user has recorded.
package ledger

import "github.com/tomhutton/strata/internal/state"

// SliceName is the ledger's region of the whole-tree state.
const SliceName = "operations"

// Operation is one recorded money operation. Amount is in minor units
// (cents) of the selected currency; negative amounts are expenses.
type Operation struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
	Amount int64  `json:"amount"`
}

// State is the ledger slice state. Snapshots are immutable: reducers
// replace the whole value, they never append in place.
type State struct {
	Entities []Operation `json:"entities"`
}

// Action kinds understood by the ledger reducer. This enumeration is
// closed: the reducer exhaustively matches these and nothing else.
const (
	KindAdd    state.Kind = "operations/add"
	KindRemove state.Kind = "operations/remove"
	KindUpdate state.Kind = "operations/update"
)

// Add records a new operation.
type Add struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
	Amount int64  `json:"amount"`
}

// Kind implements state.Action.
func (Add) Kind() state.Kind { return KindAdd }

// Remove deletes the operation with the given id.
type Remove struct {
	ID int64 `json:"id"`
}

// Kind implements state.Action.
func (Remove) Kind() state.Kind { return KindRemove }

// Update replaces the reason and amount of an existing operation.
type Update struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
	Amount int64  `json:"amount"`
}

// Kind implements state.Action.
func (Update) Kind() state.Kind { return KindUpdate }

// Slice returns the ledger's slice declaration for store composition.
func Slice() state.Slice {
	return state.Slice{
		Name:    SliceName,
		Initial: &State{Entities: []Operation{}},
		Reduce:  reduce,
	}
}

// reduce is the ledger's pure transition function.
//
// Unrecognized kinds, removals of unknown ids, and updates of unknown
// ids all return the prior state reference unchanged so the store can
// detect the no-op.
func reduce(prior any, act state.Action) any {
	s := prior.(*State)
	switch a := act.(type) {
	case Add:
		next := make([]Operation, len(s.Entities), len(s.Entities)+1)
		copy(next, s.Entities)
		next = append(next, Operation{ID: a.ID, Reason: a.Reason, Amount: a.Amount})
		return &State{Entities: next}

	case Remove:
		idx := indexOf(s.Entities, a.ID)
		if idx < 0 {
			return prior
		}
		next := make([]Operation, 0, len(s.Entities)-1)
		next = append(next, s.Entities[:idx]...)
		next = append(next, s.Entities[idx+1:]...)
		return &State{Entities: next}

	case Update:
		idx := indexOf(s.Entities, a.ID)
		if idx < 0 {
			return prior
		}
		next := make([]Operation, len(s.Entities))
		copy(next, s.Entities)
		next[idx] = Operation{ID: a.ID, Reason: a.Reason, Amount: a.Amount}
		return &State{Entities: next}

	default:
		return prior
	}
}

// indexOf returns the position of the operation with the given id, or -1.
func indexOf(ops []Operation, id int64) int {
	for i, op := range ops {
		if op.ID == id {
			return i
		}
	}
	return -1
}
