package rates

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomhutton/strata/internal/effects"
	"github.com/tomhutton/strata/internal/state"
)

// Provider is the external collaborator that fetches exchange rates.
// The real implementation (an HTTP client against a rates API) lives
// outside this core; the boundary only cares about the resolution.
type Provider interface {
	Fetch(ctx context.Context, base string) ([]Rate, error)
}

// Workflow builds the rates effect workflow over a provider.
//
// The workflow runs under PolicyLatest: a LoadRates dispatched while a
// previous fetch is outstanding supersedes it. The user changed their
// mind about the base currency, so only the newest request may settle.
func Workflow(p Provider) effects.Workflow {
	return effects.Workflow{
		Start:  KindLoad,
		Policy: effects.PolicyLatest,
		Run: func(ctx context.Context, start state.Action) (state.Action, error) {
			load := start.(LoadRates)
			fetched, err := p.Fetch(ctx, load.Base)
			if err != nil {
				return nil, err
			}
			return RatesLoaded{Rates: fetched}, nil
		},
		Fail: func(_ state.Action, err error) state.Action {
			return RatesFailed{Reason: err.Error()}
		},
	}
}

// TableProvider is a fixture provider backed by an in-memory rate table
// keyed by base currency. Used by the CLI demo and tests.
//
// Delay, when non-zero, simulates network latency; the fetch honors
// context cancellation during the wait.
type TableProvider struct {
	Table map[string][]Rate
	Delay time.Duration
}

// Fetch implements Provider.
func (p *TableProvider) Fetch(ctx context.Context, base string) ([]Rate, error) {
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	fetched, ok := p.Table[base]
	if !ok {
		return nil, fmt.Errorf("no rates for base currency %q", base)
	}

	// Return a sorted copy: deterministic output, and the caller can
	// never alias the fixture table.
	cp := make([]Rate, len(fetched))
	copy(cp, fetched)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Code < cp[j].Code })
	return cp, nil
}
