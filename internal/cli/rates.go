package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomhutton/strata/internal/effects"
	"github.com/tomhutton/strata/internal/harness"
	"github.com/tomhutton/strata/internal/ledger"
	"github.com/tomhutton/strata/internal/rates"
	"github.com/tomhutton/strata/internal/state"
)

// RatesOptions holds flags for the rates command.
type RatesOptions struct {
	*RootOptions
	Base string
}

// NewRatesCommand creates the rates command.
func NewRatesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RatesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Fetch exchange rates through the effects boundary",
		Long: `Dispatch a currency change followed by a rate load and print the
rates that land in the store. This is a small end-to-end exercise of the
three-action effect protocol: the load Start is observed by the effects
boundary, the provider runs outside the store, and a terminal action
carries the result back in.

Example:
  strata rates --base GBP`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRates(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Base, "base", "USD", "base currency code")

	return cmd
}

func showRates(opts *RatesOptions, cmd *cobra.Command) error {
	base := strings.ToUpper(opts.Base)

	meta, err := state.NewMetaReducer(
		ledger.Slice(),
		rates.Slice(harness.DefaultCurrencies...),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build store", err)
	}
	store := state.New(meta)

	boundary := effects.New(store)
	defer boundary.Close()
	provider := &rates.TableProvider{Table: harness.DefaultRateTable}
	if err := boundary.Register(rates.Workflow(provider)); err != nil {
		return WrapExitError(ExitCommandError, "failed to register workflow", err)
	}

	if err := store.Dispatch(rates.ChangeCurrency{Code: base}); err != nil {
		return WrapExitError(ExitCommandError, "dispatch failed", err)
	}
	if err := store.Dispatch(rates.LoadRates{Base: base}); err != nil {
		return WrapExitError(ExitCommandError, "dispatch failed", err)
	}
	if err := boundary.Drain(cmd.Context()); err != nil {
		return WrapExitError(ExitCommandError, "rate load did not settle", err)
	}

	tree := store.State()
	currencyState := rates.Current()(tree)
	if currencyState.LastError != "" {
		return WrapExitError(ExitFailure, "rate load failed", fmt.Errorf("%s", currencyState.LastError))
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), currencyState)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "rates for %s:\n", currencyState.Selected)
	for _, r := range currencyState.Rates {
		fmt.Fprintf(out, "  %s\n", formatRate(r.Code, r.Value))
	}
	return nil
}
