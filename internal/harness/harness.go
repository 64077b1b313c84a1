// Package harness executes scenarios against a fully wired store and
// records deterministic traces for conformance testing.
//
// The harness wires the real pieces - meta-reducer, store, effects
// boundary, codec, schema - exactly as the CLI does, then dispatches a
// scenario's steps in order, draining the effects boundary between
// steps so effect terminals land at deterministic positions in the
// trace. Traces are compared against golden files in tests.
package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tomhutton/strata/internal/codec"
	"github.com/tomhutton/strata/internal/effects"
	"github.com/tomhutton/strata/internal/ledger"
	"github.com/tomhutton/strata/internal/rates"
	"github.com/tomhutton/strata/internal/scenario"
	"github.com/tomhutton/strata/internal/state"
)

// DefaultCurrencies seeds the currency slice when no option overrides it.
var DefaultCurrencies = []string{"USD", "GBP", "EUR"}

// DefaultRateTable backs the fixture provider when no option overrides
// it. Values are deliberately stable so golden traces stay stable.
var DefaultRateTable = map[string][]rates.Rate{
	"USD": {{Code: "EUR", Value: 0.9}, {Code: "GBP", Value: 0.8}},
	"GBP": {{Code: "EUR", Value: 1.15}, {Code: "USD", Value: 1.25}},
	"EUR": {{Code: "GBP", Value: 0.87}, {Code: "USD", Value: 1.11}},
}

// Harness executes scenarios. Build once with New, reuse across runs;
// each Run gets a fresh store.
type Harness struct {
	codec      *codec.Codec
	schema     *scenario.Schema
	provider   rates.Provider
	currencies []string
	log        *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithProvider overrides the rates provider (default: fixture table).
func WithProvider(p rates.Provider) Option {
	return func(h *Harness) {
		h.provider = p
	}
}

// WithCurrencies overrides the seeded currency codes.
func WithCurrencies(codes ...string) Option {
	return func(h *Harness) {
		h.currencies = codes
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(h *Harness) {
		h.log = log
	}
}

// New builds a harness: registered codec, compiled schema, fixture
// provider.
func New(opts ...Option) (*Harness, error) {
	sch, err := scenario.CompileSchema()
	if err != nil {
		return nil, fmt.Errorf("harness: %w", err)
	}

	c := codec.New()
	ledger.RegisterCodec(c)
	rates.RegisterCodec(c)

	h := &Harness{
		codec:      c,
		schema:     sch,
		provider:   &rates.TableProvider{Table: DefaultRateTable},
		currencies: DefaultCurrencies,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Codec exposes the harness codec for callers that replay journals with
// the same wiring.
func (h *Harness) Codec() *codec.Codec {
	return h.codec
}

// Result is one scenario execution: the recorded trace and the final
// tree.
type Result struct {
	Scenario string
	Trace    []TraceEvent
	Final    *state.Tree
}

// StoreHook attaches extra wiring (e.g. a journal tap) to the run's
// store before any step is dispatched.
type StoreHook func(s *state.Store)

// Run validates the scenario and executes it against a fresh store.
//
// Each step is dispatched and the effects boundary is drained before
// the next step, so a Start's terminal action always appears in the
// trace before the following step. Assertions are evaluated against the
// final tree; the first failing assertion aborts the run.
func (h *Harness) Run(ctx context.Context, sc *scenario.Scenario) (*Result, error) {
	return h.RunWithHooks(ctx, sc)
}

// RunWithHooks is Run with extra store wiring applied before dispatch.
func (h *Harness) RunWithHooks(ctx context.Context, sc *scenario.Scenario, hooks ...StoreHook) (*Result, error) {
	if err := h.schema.Validate(sc); err != nil {
		return nil, err
	}
	acts, err := sc.Actions(h.codec)
	if err != nil {
		return nil, err
	}

	meta, err := state.NewMetaReducer(
		ledger.Slice(),
		rates.Slice(h.currencies...),
	)
	if err != nil {
		return nil, fmt.Errorf("harness wiring: %w", err)
	}
	store := state.New(meta, state.WithLogger(h.log))

	boundary := effects.New(store, effects.WithLogger(h.log))
	defer boundary.Close()
	if err := boundary.Register(rates.Workflow(h.provider)); err != nil {
		return nil, fmt.Errorf("harness wiring: %w", err)
	}

	rec := newRecorder(h.codec, store)
	rec.attach()
	for _, hook := range hooks {
		hook(store)
	}

	for i, act := range acts {
		if err := store.Dispatch(act); err != nil {
			return nil, fmt.Errorf("scenario %q step %d: %w", sc.Name, i+1, err)
		}
		if err := boundary.Drain(ctx); err != nil {
			return nil, fmt.Errorf("scenario %q step %d: drain: %w", sc.Name, i+1, err)
		}
	}

	result := &Result{
		Scenario: sc.Name,
		Trace:    rec.events(),
		Final:    store.State(),
	}

	for i, assertion := range sc.Assertions {
		if err := evaluate(result.Final, assertion); err != nil {
			return result, fmt.Errorf("scenario %q assertion %d: %w", sc.Name, i+1, err)
		}
	}

	return result, nil
}
