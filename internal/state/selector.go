package state

import "sync"

// Selector derives a read-only value from a whole-tree snapshot.
//
// Selectors must be referentially transparent: same tree, same result,
// no side effects. Consumers compose selectors instead of reaching into
// the tree shape directly.
type Selector[V any] func(t *Tree) V

// SliceOf returns the accessor selector for a slice's state.
//
// The returned selector panics if the slice is not registered or holds
// a different state type - both are composition defects, consistent
// with the store's fault taxonomy.
func SliceOf[S any](name string) Selector[S] {
	return func(t *Tree) S {
		return t.Slice(name).(S)
	}
}

// Lift composes a slice-local selector with a tree-scope accessor,
// producing a tree-scope selector:
//
//	Lift(acc, sel)(t) == sel(acc(t))
//
// Lift is the one composition primitive; chains are built left-to-right
// and composition is associative:
//
//	Lift(Lift(acc, f), g) == Lift(acc, func(s) { return g(f(s)) })
func Lift[S, V any](accessor Selector[S], sel func(S) V) Selector[V] {
	return func(t *Tree) V {
		return sel(accessor(t))
	}
}

// Memoize caches a selector's result keyed by last-input identity.
//
// Because snapshots are immutable and no-op dispatches keep the same
// *Tree, pointer identity of the tree is a sound cache key. Memoization
// is an optimization only; a memoized selector is observationally
// identical to the original.
//
// The returned selector is safe for concurrent use.
func Memoize[V any](sel Selector[V]) Selector[V] {
	var (
		mu   sync.Mutex
		last *Tree
		val  V
	)
	return func(t *Tree) V {
		mu.Lock()
		defer mu.Unlock()
		if t != nil && t == last {
			return val
		}
		val = sel(t)
		last = t
		return val
	}
}
