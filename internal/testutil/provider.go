package testutil

import (
	"context"
	"sync"

	"github.com/tomhutton/strata/internal/rates"
)

// ScriptedProvider returns predetermined outcomes in order, one per
// Fetch call. Tests script exactly the successes and failures they
// expect; exhausting the script panics (fail-fast on test
// misconfiguration).
//
// Thread-safe via internal mutex.
type ScriptedProvider struct {
	mu      sync.Mutex
	results []ScriptedResult
	idx     int
}

// ScriptedResult is one scripted Fetch outcome.
type ScriptedResult struct {
	Rates []rates.Rate
	Err   error
}

// NewScriptedProvider creates a provider returning outcomes in order.
func NewScriptedProvider(results ...ScriptedResult) *ScriptedProvider {
	return &ScriptedProvider{results: results}
}

// Fetch implements rates.Provider.
func (p *ScriptedProvider) Fetch(_ context.Context, _ string) ([]rates.Rate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idx >= len(p.results) {
		panic("ScriptedProvider: script exhausted")
	}
	r := p.results[p.idx]
	p.idx++
	return r.Rates, r.Err
}

// Calls returns the number of Fetch calls observed so far.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idx
}

// GatedProvider blocks each Fetch until released, so tests can hold a
// task in flight deliberately (supersession, cancellation).
//
// Release one waiting Fetch with Release; a cancelled context unblocks
// the waiter with the context error.
type GatedProvider struct {
	Result []rates.Rate
	Err    error

	gate chan struct{}
}

// NewGatedProvider creates a provider whose fetches wait on the gate.
func NewGatedProvider(result []rates.Rate, err error) *GatedProvider {
	return &GatedProvider{
		Result: result,
		Err:    err,
		gate:   make(chan struct{}),
	}
}

// Fetch implements rates.Provider.
func (p *GatedProvider) Fetch(ctx context.Context, _ string) ([]rates.Rate, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.gate:
		return p.Result, p.Err
	}
}

// Release unblocks one waiting Fetch.
func (p *GatedProvider) Release() {
	p.gate <- struct{}{}
}
