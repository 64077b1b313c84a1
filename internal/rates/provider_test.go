package rates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomhutton/strata/internal/effects"
	"github.com/tomhutton/strata/internal/state"
)

var fixtureTable = map[string][]Rate{
	"USD": {{Code: "GBP", Value: 0.8}, {Code: "EUR", Value: 0.9}},
}

func TestTableProvider_Fetch(t *testing.T) {
	p := &TableProvider{Table: fixtureTable}
	fetched, err := p.Fetch(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, []Rate{{Code: "EUR", Value: 0.9}, {Code: "GBP", Value: 0.8}}, fetched, "rates come back sorted by code")
}

func TestTableProvider_Fetch_UnknownBase(t *testing.T) {
	p := &TableProvider{Table: fixtureTable}
	_, err := p.Fetch(context.Background(), "JPY")
	assert.ErrorContains(t, err, "JPY")
}

func TestTableProvider_Fetch_CopyDoesNotAliasTable(t *testing.T) {
	p := &TableProvider{Table: fixtureTable}
	fetched, err := p.Fetch(context.Background(), "USD")
	require.NoError(t, err)

	fetched[0].Value = 999
	again, err := p.Fetch(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, 0.9, again[0].Value)
}

func TestTableProvider_Fetch_HonorsCancellation(t *testing.T) {
	p := &TableProvider{Table: fixtureTable, Delay: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Fetch(ctx, "USD")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkflow_SuccessTerminal(t *testing.T) {
	meta, err := state.NewMetaReducer(Slice("USD"))
	require.NoError(t, err)
	store := state.New(meta)

	b := effects.New(store)
	defer b.Close()
	require.NoError(t, b.Register(Workflow(&TableProvider{Table: fixtureTable})))

	require.NoError(t, store.Dispatch(LoadRates{Base: "USD"}))
	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, b.Drain(drainCtx))

	st := Current()(store.State())
	assert.False(t, st.Loading)
	assert.Equal(t, []Rate{{Code: "EUR", Value: 0.9}, {Code: "GBP", Value: 0.8}}, st.Rates)
}

func TestWorkflow_FailureTerminal(t *testing.T) {
	meta, err := state.NewMetaReducer(Slice("JPY"))
	require.NoError(t, err)
	store := state.New(meta)

	b := effects.New(store)
	defer b.Close()
	require.NoError(t, b.Register(Workflow(&TableProvider{Table: fixtureTable})))

	require.NoError(t, store.Dispatch(LoadRates{Base: "JPY"}))
	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, b.Drain(drainCtx))

	st := Current()(store.State())
	assert.False(t, st.Loading)
	assert.Contains(t, st.LastError, "JPY")
}
