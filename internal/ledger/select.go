package ledger

import "github.com/tomhutton/strata/internal/state"

// Current is the accessor selector for the ledger slice.
func Current() state.Selector[*State] {
	return state.SliceOf[*State](SliceName)
}

// Entities selects the recorded operations.
func Entities() state.Selector[[]Operation] {
	return state.Lift(Current(), func(s *State) []Operation {
		return s.Entities
	})
}

// ByID selects the operation with the given id, or nil if absent.
// The returned pointer is a copy; mutating it does not touch the state.
func ByID(id int64) state.Selector[*Operation] {
	return state.Lift(Current(), func(s *State) *Operation {
		idx := indexOf(s.Entities, id)
		if idx < 0 {
			return nil
		}
		op := s.Entities[idx]
		return &op
	})
}

// Total selects the sum of all operation amounts, in minor units.
func Total() state.Selector[int64] {
	return state.Lift(Current(), func(s *State) int64 {
		var sum int64
		for _, op := range s.Entities {
			sum += op.Amount
		}
		return sum
	})
}
