// Package testutil provides deterministic helpers shared by strata
// tests: a snapshot recorder and scriptable rate providers.
package testutil

import (
	"sync"

	"github.com/tomhutton/strata/internal/state"
)

// Recorder collects the snapshots a store notifies, in order.
//
// Thread-safe: effect terminals notify from other goroutines.
type Recorder struct {
	mu    sync.Mutex
	trees []*state.Tree
}

// Listen returns the listener to pass to Store.Subscribe.
func (r *Recorder) Listen(t *state.Tree) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trees = append(r.trees, t)
}

// Trees returns the notified snapshots in notification order.
func (r *Recorder) Trees() []*state.Tree {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]*state.Tree, len(r.trees))
	copy(cp, r.trees)
	return cp
}

// Len returns the number of notifications observed.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trees)
}

// Last returns the most recent snapshot, or nil if none arrived.
func (r *Recorder) Last() *state.Tree {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.trees) == 0 {
		return nil
	}
	return r.trees[len(r.trees)-1]
}
