package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures shared across the package tests: a counter slice and a
// flag slice, both with pointer-shaped state.

type counterState struct {
	N int
}

type flagState struct {
	On bool
}

type incrAction struct {
	By int
}

func (incrAction) Kind() Kind { return "counter/incr" }

type toggleAction struct{}

func (toggleAction) Kind() Kind { return "flag/toggle" }

type unknownAction struct{}

func (unknownAction) Kind() Kind { return "test/unknown" }

func counterSlice() Slice {
	return Slice{
		Name:    "counter",
		Initial: &counterState{},
		Reduce: func(prior any, act Action) any {
			st := prior.(*counterState)
			switch a := act.(type) {
			case incrAction:
				return &counterState{N: st.N + a.By}
			default:
				return prior
			}
		},
	}
}

func flagSlice() Slice {
	return Slice{
		Name:    "flag",
		Initial: &flagState{},
		Reduce: func(prior any, act Action) any {
			st := prior.(*flagState)
			switch act.(type) {
			case toggleAction:
				return &flagState{On: !st.On}
			default:
				return prior
			}
		},
	}
}

func TestNewMetaReducer_Valid(t *testing.T) {
	meta, err := NewMetaReducer(counterSlice(), flagSlice())
	require.NoError(t, err)
	assert.Equal(t, []string{"counter", "flag"}, meta.Names(), "registration order defines slice order")
}

func TestNewMetaReducer_EmptyName(t *testing.T) {
	sl := counterSlice()
	sl.Name = ""
	_, err := NewMetaReducer(sl)
	require.Error(t, err)
	assert.True(t, IsFault(err, FaultInvalidSlice))
}

func TestNewMetaReducer_NilReducer(t *testing.T) {
	sl := counterSlice()
	sl.Reduce = nil
	_, err := NewMetaReducer(sl)
	require.Error(t, err)
	assert.True(t, IsFault(err, FaultInvalidSlice))
}

func TestNewMetaReducer_NonReferenceInitial(t *testing.T) {
	sl := counterSlice()
	sl.Initial = counterState{} // value, not pointer
	_, err := NewMetaReducer(sl)
	require.Error(t, err)
	assert.True(t, IsFault(err, FaultInvalidSlice))
}

func TestNewMetaReducer_NilPointerInitial(t *testing.T) {
	sl := counterSlice()
	sl.Initial = (*counterState)(nil)
	_, err := NewMetaReducer(sl)
	require.Error(t, err)
	assert.True(t, IsFault(err, FaultInvalidSlice))
}

func TestNewMetaReducer_DuplicateName(t *testing.T) {
	_, err := NewMetaReducer(counterSlice(), counterSlice())
	require.Error(t, err)
	assert.True(t, IsFault(err, FaultDuplicateSlice))
}

func TestMetaReducer_InitialTree(t *testing.T) {
	meta, err := NewMetaReducer(counterSlice(), flagSlice())
	require.NoError(t, err)

	tree := meta.InitialTree()
	assert.Equal(t, int64(0), tree.Seq())
	assert.Equal(t, &counterState{}, tree.Slice("counter"))
	assert.Equal(t, &flagState{}, tree.Slice("flag"))
	assert.Nil(t, tree.Slice("missing"), "unregistered name yields nil")
}

func TestMetaReducer_Reduce_SingleSliceChanges(t *testing.T) {
	meta, err := NewMetaReducer(counterSlice(), flagSlice())
	require.NoError(t, err)

	prior := meta.InitialTree()
	next := meta.Reduce(prior, incrAction{By: 3})

	require.NotSame(t, prior, next)
	assert.Equal(t, &counterState{N: 3}, next.Slice("counter"))
	// The untouched slice keeps its exact reference.
	assert.Same(t, prior.Slice("flag"), next.Slice("flag"))
	// The prior tree is untouched.
	assert.Equal(t, &counterState{}, prior.Slice("counter"))
}

func TestMetaReducer_Reduce_NoSliceChanges(t *testing.T) {
	meta, err := NewMetaReducer(counterSlice(), flagSlice())
	require.NoError(t, err)

	prior := meta.InitialTree()
	next := meta.Reduce(prior, unknownAction{})
	assert.Same(t, prior, next, "no-op must return the prior tree reference")
}

func TestMetaReducer_Reduce_CompositionEquivalence(t *testing.T) {
	// Composed result per slice equals running that slice's reducer alone.
	meta, err := NewMetaReducer(counterSlice(), flagSlice())
	require.NoError(t, err)

	prior := meta.InitialTree()
	act := toggleAction{}
	next := meta.Reduce(prior, act)

	standalone := flagSlice().Reduce(prior.Slice("flag"), act)
	assert.Equal(t, standalone, next.Slice("flag"))
	assert.Same(t, prior.Slice("counter"), next.Slice("counter"))
}

func TestIsReferenceState(t *testing.T) {
	assert.True(t, isReferenceState(&counterState{}))
	assert.True(t, isReferenceState(make(chan int)))
	assert.False(t, isReferenceState(nil))
	assert.False(t, isReferenceState(counterState{}))
	assert.False(t, isReferenceState(42))
	assert.False(t, isReferenceState("state"))
	assert.False(t, isReferenceState((*counterState)(nil)))
}
