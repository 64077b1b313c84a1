// Package rates owns the "currencies" slice: the set of known currency
// codes, the currently selected one, and the exchange rates loaded for
// it through the effects boundary.
package rates

import "github.com/tomhutton/strata/internal/state"

// SliceName is the currency slice's region of the whole-tree state.
const SliceName = "currencies"

// Rate is one exchange rate against the selected base currency.
type Rate struct {
	Code  string  `json:"code"`
	Value float64 `json:"value"`
}

// State is the currency slice state.
//
// Loading and LastError record the rates workflow outcome as ordinary
// data: a failed fetch is state, not a fault.
type State struct {
	Entities  []string `json:"entities"`
	Selected  string   `json:"selected"`
	Rates     []Rate   `json:"rates"`
	Loading   bool     `json:"loading"`
	LastError string   `json:"lastError,omitempty"`
}

// Action kinds understood by the currency reducer. Load/Loaded/Failed
// form the three-action protocol of the rates workflow.
const (
	KindChange state.Kind = "currencies/change"
	KindLoad   state.Kind = "currencies/load"
	KindLoaded state.Kind = "currencies/loaded"
	KindFailed state.Kind = "currencies/failed"
)

// ChangeCurrency selects a different base currency.
type ChangeCurrency struct {
	Code string `json:"code"`
}

// Kind implements state.Action.
func (ChangeCurrency) Kind() state.Kind { return KindChange }

// LoadRates requests a rates fetch for the given base currency. This is
// the Start action of the rates workflow; the reducer only raises the
// loading flag.
type LoadRates struct {
	Base string `json:"base,omitempty"`
}

// Kind implements state.Action.
func (LoadRates) Kind() state.Kind { return KindLoad }

// RatesLoaded is the Success terminal of the rates workflow.
type RatesLoaded struct {
	Rates []Rate `json:"rates"`
}

// Kind implements state.Action.
func (RatesLoaded) Kind() state.Kind { return KindLoaded }

// RatesFailed is the Failure terminal of the rates workflow. Reason is
// plain data for presentation logic to read like any other slice value.
type RatesFailed struct {
	Reason string `json:"reason"`
}

// Kind implements state.Action.
func (RatesFailed) Kind() state.Kind { return KindFailed }

// Slice returns the currency slice declaration, seeded with the known
// currency codes. The first code is preselected when at least one is
// given.
func Slice(entities ...string) state.Slice {
	selected := ""
	if len(entities) > 0 {
		selected = entities[0]
	}
	return state.Slice{
		Name: SliceName,
		Initial: &State{
			Entities: entities,
			Selected: selected,
			Rates:    []Rate{},
		},
		Reduce: reduce,
	}
}

// reduce is the currency slice's pure transition function.
//
// ChangeCurrency to the already-selected code is a no-op; unrecognized
// kinds return the prior reference unchanged. Entities and Rates slices
// are shared, never copied, when a transition does not touch them.
func reduce(prior any, act state.Action) any {
	s := prior.(*State)
	switch a := act.(type) {
	case ChangeCurrency:
		if a.Code == s.Selected {
			return prior
		}
		next := *s
		next.Selected = a.Code
		return &next

	case LoadRates:
		next := *s
		next.Loading = true
		next.LastError = ""
		return &next

	case RatesLoaded:
		next := *s
		next.Rates = a.Rates
		next.Loading = false
		next.LastError = ""
		return &next

	case RatesFailed:
		next := *s
		next.Loading = false
		next.LastError = a.Reason
		return &next

	default:
		return prior
	}
}
