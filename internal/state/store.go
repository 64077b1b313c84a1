package state

import (
	"bytes"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// Tap observes every dispatched action before it reaches the
// meta-reducer. Taps are pass-through: they cannot veto or alter the
// action, and they must not dispatch synchronously. The effects boundary
// and the action journal are the two intended taps.
type Tap func(act Action)

// Listener is invoked with the new snapshot after each state-changing
// dispatch.
type Listener func(t *Tree)

// listenerEntry pairs a listener with its registration id so that
// unsubscription is stable regardless of slice reordering.
type listenerEntry struct {
	id int64
	fn Listener
}

// Store holds the current whole-tree state and the subscriber set.
//
// All transitions flow through Dispatch. Dispatches are serialized:
// concurrent callers block until the in-flight dispatch completes, and
// a reentrant dispatch from the dispatching goroutine itself is a
// detected fault (see FaultReentrantDispatch).
type Store struct {
	mu    sync.Mutex
	meta  *MetaReducer
	clock *Clock

	// owner is the id of the goroutine currently holding the dispatch
	// lock, or 0. It distinguishes reentrancy (fault) from contention
	// (block), and lets Subscribe/State be called from listeners without
	// deadlocking.
	owner atomic.Int64

	tree      *Tree
	listeners []listenerEntry
	nextID    int64
	taps      []Tap

	log *slog.Logger
}

// StoreOption configures a Store at construction time.
type StoreOption func(*Store)

// WithLogger sets the structured logger used for dispatch diagnostics.
// Defaults to slog.Default().
func WithLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// WithClock sets the logical clock used to stamp snapshots. Defaults to
// a fresh clock starting at 0. Journal replay passes a resumed clock.
func WithClock(c *Clock) StoreOption {
	return func(s *Store) {
		s.clock = c
	}
}

// New creates a store over the given meta-reducer, seeded with the
// declared slice defaults.
func New(meta *MetaReducer, opts ...StoreOption) *Store {
	s := &Store{
		meta:  meta,
		clock: NewClock(),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tree = meta.InitialTree()
	return s
}

// Dispatch applies the meta-reducer to the current tree and, if any
// slice changed, installs the new snapshot and notifies listeners in
// subscription order. It is synchronous: when Dispatch returns, all
// listeners for this transition have run.
//
// Faults (nil action, uninitialized store, reentrant dispatch) are
// returned to the caller. A panicking reducer propagates out of
// Dispatch uncaught - reducer panics indicate defects, not conditions
// the store can recover from.
func (s *Store) Dispatch(act Action) error {
	if act == nil {
		return &FaultError{Code: FaultNilAction, Message: "dispatch of nil action"}
	}
	if s.meta == nil {
		return &FaultError{
			Code:       FaultNotInitialized,
			Message:    "dispatch before store initialization",
			ActionKind: act.Kind(),
		}
	}

	self := goroutineID()
	if s.owner.Load() == self {
		return newReentrantFault(act.Kind())
	}
	s.mu.Lock()
	s.owner.Store(self)
	defer func() {
		s.owner.Store(0)
		s.mu.Unlock()
	}()

	for _, tap := range s.taps {
		tap(act)
	}

	prior := s.tree
	next := s.meta.Reduce(prior, act)
	if next == prior {
		s.log.Debug("dispatch no-op", "kind", act.Kind(), "seq", prior.seq)
		return nil
	}

	next.seq = s.clock.Next()
	s.tree = next
	s.log.Debug("dispatch applied", "kind", act.Kind(), "seq", next.seq)

	// Notify over a snapshot of the listener set: listeners added or
	// removed during this round take effect next round, and removing a
	// listener mid-round can neither skip nor duplicate the others.
	round := make([]listenerEntry, len(s.listeners))
	copy(round, s.listeners)
	for _, entry := range round {
		if s.stillSubscribed(entry.id) {
			entry.fn(next)
		}
	}

	return nil
}

// Subscribe registers a listener invoked after each state-changing
// dispatch, and returns the capability to deregister it. Safe to call
// from any goroutine, including from inside a listener.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	unlock := s.lockUnlessOwner()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	unlock()

	return func() {
		unlock := s.lockUnlessOwner()
		defer unlock()
		for i, entry := range s.listeners {
			if entry.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Tap registers an action tap. Taps see every dispatched action, in
// registration order, before the meta-reducer runs. Intended for wiring
// (effects boundary, journal), not for application logic.
func (s *Store) Tap(fn Tap) {
	unlock := s.lockUnlessOwner()
	defer unlock()
	s.taps = append(s.taps, fn)
}

// State returns the current whole-tree snapshot. The snapshot is
// immutable; callers may hold it indefinitely.
func (s *Store) State() *Tree {
	unlock := s.lockUnlessOwner()
	defer unlock()
	return s.tree
}

// stillSubscribed reports whether the listener id is still registered.
// Called with the dispatch lock held.
func (s *Store) stillSubscribed(id int64) bool {
	for _, entry := range s.listeners {
		if entry.id == id {
			return true
		}
	}
	return false
}

// lockUnlessOwner acquires the store lock unless the calling goroutine
// is the one currently dispatching (in which case the lock is already
// held and reads/registrations are safe). Returns the matching release.
func (s *Store) lockUnlessOwner() func() {
	if s.owner.Load() == goroutineID() {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// goroutineID returns the runtime id of the calling goroutine.
//
// The runtime does not expose goroutine ids, so this parses the
// "goroutine N [" header of a stack dump. Used only to tell reentrancy
// (same goroutine, fault) apart from contention (different goroutine,
// block) - never for scheduling.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return -1
	}
	id, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
