package rates

import "github.com/tomhutton/strata/internal/state"

// Current is the accessor selector for the currency slice.
func Current() state.Selector[*State] {
	return state.SliceOf[*State](SliceName)
}

// Selected selects the currently selected base currency code.
func Selected() state.Selector[string] {
	return state.Lift(Current(), func(s *State) string {
		return s.Selected
	})
}

// Loading selects whether a rates fetch is in flight.
func Loading() state.Selector[bool] {
	return state.Lift(Current(), func(s *State) bool {
		return s.Loading
	})
}

// LastError selects the reason of the most recent failed fetch, or "".
func LastError() state.Selector[string] {
	return state.Lift(Current(), func(s *State) string {
		return s.LastError
	})
}

// All selects the loaded rates.
func All() state.Selector[[]Rate] {
	return state.Lift(Current(), func(s *State) []Rate {
		return s.Rates
	})
}

// For selects the rate for one currency code, reporting presence via a
// zero value: a missing code selects Rate{}.
func For(code string) state.Selector[Rate] {
	return state.Lift(Current(), func(s *State) Rate {
		for _, r := range s.Rates {
			if r.Code == code {
				return r
			}
		}
		return Rate{}
	})
}
