// Package state implements the strata store core.
//
// The store is the single authority over one whole-tree state value.
// State changes flow through exactly one entry point:
//
//	[Dispatch(action)] → [taps] → [meta-reducer] → [new tree] → [listeners]
//
// ARCHITECTURE:
//
// Serialized Dispatch:
// Dispatch runs to completion before returning and never suspends.
// Dispatches from different goroutines are serialized - two dispatches
// never interleave on the same store. A dispatch issued from inside a
// reducer, tap, or listener (same goroutine, dispatch still in progress)
// is a programmer fault and is reported, never queued.
//
// Immutable Snapshots:
// The tree is never mutated in place. Every state-changing dispatch
// produces a new *Tree snapshot stamped with a monotonic sequence number.
// Readers hold snapshots; no locking is required to read one.
//
// Reference-Identity No-Ops:
// A reducer that does not recognize an action returns its input state
// value unchanged. The meta-reducer detects this by reference and keeps
// the previous tree, and the store skips listener notification entirely.
// Slice states must therefore be reference values (pointer-shaped); this
// is validated at registration.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// State-changing dispatches are stamped with a strictly increasing seq
// from Clock.Next(). Wall-clock time is never used for ordering.
//
// Purity:
// Reducers and selectors must be pure: no I/O, no mutation of arguments,
// no hidden state. Asynchronous work belongs to the effects boundary,
// which re-enters the store only through Dispatch.
package state
