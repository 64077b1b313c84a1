package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tomhutton/strata/internal/harness"
	"github.com/tomhutton/strata/internal/journal"
	"github.com/tomhutton/strata/internal/ledger"
	"github.com/tomhutton/strata/internal/rates"
	"github.com/tomhutton/strata/internal/state"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <journal.db>",
		Short: "Rebuild state from an action journal",
		Long: `Replay a journal recorded by a previous run: dispatch every
journaled action, in order, through a fresh store, and print the
reconstructed final state. Because reducers are pure and ordering is
logical, the result is identical to the run that recorded the journal.

Example:
  strata replay ./budget.db
  strata replay ./budget.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayJournal(opts, args[0], cmd)
		},
	}

	return cmd
}

func replayJournal(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	h, err := harness.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build wiring", err)
	}

	j, err := openJournal(path, h)
	if err != nil {
		return err
	}
	defer j.Close()

	meta, err := state.NewMetaReducer(
		ledger.Slice(),
		rates.Slice(harness.DefaultCurrencies...),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build store", err)
	}
	store := state.New(meta)

	// No effects boundary on replay: Start actions replay as recorded
	// and their recorded terminals follow - refetching would diverge
	// from the journal.
	n, err := j.Replay(cmd.Context(), store)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}
	slog.Info("replay complete", "actions", n, "seq", store.State().Seq())

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), finalSlices(store.State()))
	}
	return printTreeText(cmd, store.State())
}

// openJournal opens a journal wired to the harness codec.
func openJournal(path string, h *harness.Harness) (*journal.Journal, error) {
	j, err := journal.Open(path, h.Codec())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return j, nil
}

// printTreeText prints the final state the same way run does.
func printTreeText(cmd *cobra.Command, tree *state.Tree) error {
	out := cmd.OutOrStdout()
	ledgerState := ledger.Current()(tree)
	currencyState := rates.Current()(tree)

	fmt.Fprintf(out, "operations (%d):\n", len(ledgerState.Entities))
	for _, op := range ledgerState.Entities {
		fmt.Fprintf(out, "  #%-4d %-20s %s\n", op.ID, op.Reason, formatAmount(op.Amount, currencyState.Selected))
	}
	fmt.Fprintf(out, "  total: %s\n", formatAmount(ledger.Total()(tree), currencyState.Selected))
	fmt.Fprintf(out, "selected currency: %s\n", currencyState.Selected)
	for _, r := range currencyState.Rates {
		fmt.Fprintf(out, "  %s\n", formatRate(r.Code, r.Value))
	}
	return nil
}
