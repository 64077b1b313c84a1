package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomhutton/strata/internal/codec"
	"github.com/tomhutton/strata/internal/ledger"
	"github.com/tomhutton/strata/internal/rates"
	"github.com/tomhutton/strata/internal/state"
)

func testCodec() *codec.Codec {
	c := codec.New()
	ledger.RegisterCodec(c)
	rates.RegisterCodec(c)
	return c
}

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path, testCodec())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func newLedgerStore(t *testing.T) *state.Store {
	t.Helper()
	meta, err := state.NewMetaReducer(ledger.Slice(), rates.Slice("USD", "EUR"))
	require.NoError(t, err)
	return state.New(meta)
}

func TestJournal_Open_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j1, err := Open(path, testCodec())
	require.NoError(t, err)
	require.NoError(t, j1.Close())

	j2, err := Open(path, testCodec())
	require.NoError(t, err)
	defer j2.Close()

	n, err := j2.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestJournal_AppendAndEntries(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, ledger.Add{ID: 1, Reason: "rent", Amount: -90000}))
	require.NoError(t, j.Append(ctx, rates.ChangeCurrency{Code: "EUR"}))

	entries, err := j.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, ledger.Add{ID: 1, Reason: "rent", Amount: -90000}, entries[0].Action)
	assert.Equal(t, rates.ChangeCurrency{Code: "EUR"}, entries[1].Action)
}

func TestJournal_Len(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	n, err := j.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, j.Append(ctx, ledger.Add{ID: 1, Reason: "a", Amount: 1}))
	n, err = j.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestJournal_Attach_RecordsDispatchedActions(t *testing.T) {
	j := openTestJournal(t)
	store := newLedgerStore(t)
	j.Attach(store)

	require.NoError(t, store.Dispatch(ledger.Add{ID: 1, Reason: "salary", Amount: 250000}))
	require.NoError(t, store.Dispatch(ledger.Remove{ID: 1}))

	entries, err := j.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.KindAdd, entries[0].Action.Kind())
	assert.Equal(t, ledger.KindRemove, entries[1].Action.Kind())
}

type unregisteredAction struct{}

func (unregisteredAction) Kind() state.Kind { return "test/unregistered" }

func TestJournal_Attach_SkipsUnregisteredKinds(t *testing.T) {
	j := openTestJournal(t)
	store := newLedgerStore(t)
	j.Attach(store)

	require.NoError(t, store.Dispatch(unregisteredAction{}))

	n, err := j.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestJournal_Attach_RecordsNoOpsToo(t *testing.T) {
	// Taps run before reduction, so actions that reduce to no-ops are
	// still journaled. Replay reproduces the same no-ops.
	j := openTestJournal(t)
	store := newLedgerStore(t)
	j.Attach(store)

	require.NoError(t, store.Dispatch(ledger.Remove{ID: 42}))

	n, err := j.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestJournal_Replay_ReconstructsState(t *testing.T) {
	j := openTestJournal(t)
	source := newLedgerStore(t)
	j.Attach(source)

	require.NoError(t, source.Dispatch(ledger.Add{ID: 1, Reason: "salary", Amount: 250000}))
	require.NoError(t, source.Dispatch(ledger.Add{ID: 2, Reason: "rent", Amount: -90000}))
	require.NoError(t, source.Dispatch(ledger.Update{ID: 2, Reason: "rent + utilities", Amount: -95000}))
	require.NoError(t, source.Dispatch(rates.ChangeCurrency{Code: "EUR"}))

	fresh := newLedgerStore(t)
	n, err := j.Replay(context.Background(), fresh)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.Equal(t,
		ledger.Current()(source.State()),
		ledger.Current()(fresh.State()),
	)
	assert.Equal(t,
		rates.Current()(source.State()),
		rates.Current()(fresh.State()),
	)
	assert.Equal(t, source.State().Seq(), fresh.State().Seq())
}

func TestJournal_Replay_HonorsContext(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.Append(context.Background(), ledger.Add{ID: 1, Reason: "a", Amount: 1}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := j.Replay(ctx, newLedgerStore(t))
	assert.ErrorIs(t, err, context.Canceled)
}
