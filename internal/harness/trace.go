package harness

import (
	"encoding/json"
	"sync"

	"github.com/tomhutton/strata/internal/codec"
	"github.com/tomhutton/strata/internal/state"
)

// TraceEvent records one dispatched action and its observable outcome.
type TraceEvent struct {
	// Seq is the logical seq of the snapshot the action produced, or 0
	// for a no-op dispatch.
	Seq int64 `json:"seq"`

	// Kind is the action kind.
	Kind string `json:"kind"`

	// Payload is the action's JSON payload.
	Payload json.RawMessage `json:"payload"`

	// Changed lists the slices that changed by reference, in
	// registration order. Empty for a no-op.
	Changed []string `json:"changed"`
}

// recorder builds the trace from a store's tap and listener hooks.
//
// The tap sees the action while the prior tree is still current; the
// listener sees the new tree if the dispatch changed state. Pairing the
// two yields (action, seq, changed-slices) per dispatch. A dispatch
// with no listener call is flushed as a no-op when the next action
// arrives (or at the end of the run).
//
// Dispatches are serialized by the store, but effect terminals arrive
// on other goroutines, so the recorder guards its pending slot.
type recorder struct {
	codec *codec.Codec
	store *state.Store

	mu      sync.Mutex
	pending *pendingEvent
	trace   []TraceEvent
}

// pendingEvent is a tapped action waiting for its outcome.
type pendingEvent struct {
	kind    state.Kind
	payload json.RawMessage
	prior   *state.Tree
}

func newRecorder(c *codec.Codec, s *state.Store) *recorder {
	return &recorder{codec: c, store: s}
}

// attach hooks the recorder onto the store.
func (r *recorder) attach() {
	r.store.Tap(r.onAction)
	r.store.Subscribe(r.onChange)
}

// onAction runs inside dispatch, before reduction.
func (r *recorder) onAction(act state.Action) {
	payload, err := r.codec.Encode(act)
	if err != nil {
		payload = json.RawMessage(`{}`)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
	r.pending = &pendingEvent{
		kind:    act.Kind(),
		payload: payload,
		prior:   r.store.State(),
	}
}

// onChange runs inside the same dispatch, after reduction, with the new
// snapshot.
func (r *recorder) onChange(next *state.Tree) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.pending
	if p == nil {
		return
	}
	r.pending = nil

	changed := make([]string, 0, 2)
	for _, name := range next.Names() {
		if next.Slice(name) != p.prior.Slice(name) {
			changed = append(changed, name)
		}
	}
	r.trace = append(r.trace, TraceEvent{
		Seq:     next.Seq(),
		Kind:    string(p.kind),
		Payload: p.payload,
		Changed: changed,
	})
}

// flushLocked records a pending action that produced no state change.
func (r *recorder) flushLocked() {
	if r.pending == nil {
		return
	}
	r.trace = append(r.trace, TraceEvent{
		Seq:     0,
		Kind:    string(r.pending.kind),
		Payload: r.pending.payload,
		Changed: []string{},
	})
	r.pending = nil
}

// events finalizes and returns the trace.
func (r *recorder) events() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
	return r.trace
}

// TraceJSON serializes the trace for golden comparison: indented,
// deterministic field order, trailing newline.
func (res *Result) TraceJSON() ([]byte, error) {
	out, err := json.MarshalIndent(res.Trace, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
