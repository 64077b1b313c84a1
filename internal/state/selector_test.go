package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceOf_ReturnsTypedState(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Dispatch(incrAction{By: 4}))

	counter := SliceOf[*counterState]("counter")
	assert.Equal(t, 4, counter(s.State()).N)
}

func TestSliceOf_UnknownSlicePanics(t *testing.T) {
	s := newTestStore(t)
	missing := SliceOf[*counterState]("missing")
	assert.Panics(t, func() { missing(s.State()) })
}

func TestSliceOf_WrongTypePanics(t *testing.T) {
	s := newTestStore(t)
	wrong := SliceOf[*flagState]("counter")
	assert.Panics(t, func() { wrong(s.State()) })
}

func TestLift_Composes(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Dispatch(incrAction{By: 5}))

	counter := SliceOf[*counterState]("counter")
	n := Lift(counter, func(st *counterState) int { return st.N })
	doubled := Lift(n, func(v int) int { return v * 2 })

	tree := s.State()
	assert.Equal(t, 5, n(tree))
	assert.Equal(t, 10, doubled(tree))
}

func TestLift_Associative(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Dispatch(incrAction{By: 3}))
	tree := s.State()

	counter := SliceOf[*counterState]("counter")
	f := func(st *counterState) int { return st.N }
	g := func(v int) int { return v + 100 }

	left := Lift(Lift(counter, f), g)
	right := Lift(counter, func(st *counterState) int { return g(f(st)) })
	assert.Equal(t, left(tree), right(tree))
}

func TestMemoize_CachesByTreeIdentity(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Dispatch(incrAction{By: 1}))

	evals := 0
	counter := SliceOf[*counterState]("counter")
	n := Memoize(Lift(counter, func(st *counterState) int {
		evals++
		return st.N
	}))

	tree := s.State()
	assert.Equal(t, 1, n(tree))
	assert.Equal(t, 1, n(tree))
	assert.Equal(t, 1, evals, "same tree must not recompute")

	require.NoError(t, s.Dispatch(incrAction{By: 1}))
	assert.Equal(t, 2, n(s.State()))
	assert.Equal(t, 2, evals, "new tree recomputes once")
}

func TestMemoize_NoOpDispatchStaysCached(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Dispatch(incrAction{By: 1}))

	evals := 0
	n := Memoize(Lift(SliceOf[*counterState]("counter"), func(st *counterState) int {
		evals++
		return st.N
	}))

	assert.Equal(t, 1, n(s.State()))
	require.NoError(t, s.Dispatch(unknownAction{}))
	assert.Equal(t, 1, n(s.State()), "no-op keeps the same snapshot")
	assert.Equal(t, 1, evals)
}
