package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tomhutton/strata/internal/harness"
	"github.com/tomhutton/strata/internal/ledger"
	"github.com/tomhutton/strata/internal/rates"
	"github.com/tomhutton/strata/internal/scenario"
	"github.com/tomhutton/strata/internal/state"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario against a fresh store",
		Long: `Execute a scenario file: validate its steps against the action
schema, dispatch them in order (draining effects between steps), check
the scenario's assertions, and print the trace and final state.

Example:
  strata run ./scenarios/budget.yaml
  strata run ./scenarios/budget.yaml --journal ./budget.db --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to a SQLite journal to record dispatched actions")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	slog.Info("scenario loaded", "name", sc.Name, "steps", len(sc.Steps))

	h, err := harness.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build harness", err)
	}

	var hooks []harness.StoreHook
	if opts.Journal != "" {
		j, err := openJournal(opts.Journal, h)
		if err != nil {
			return err
		}
		defer j.Close()
		hooks = append(hooks, j.Attach)
	}

	result, err := h.RunWithHooks(cmd.Context(), sc, hooks...)
	if err != nil {
		if result == nil {
			return WrapExitError(ExitCommandError, "scenario execution failed", err)
		}
		// Steps ran; an assertion failed.
		return WrapExitError(ExitFailure, "scenario assertions failed", err)
	}

	if opts.Format == "json" {
		return printRunJSON(cmd, result)
	}
	return printRunText(cmd, result)
}

// printRunJSON emits the trace and final slice states as one document.
func printRunJSON(cmd *cobra.Command, result *harness.Result) error {
	doc := map[string]any{
		"scenario": result.Scenario,
		"trace":    result.Trace,
		"final":    finalSlices(result.Final),
	}
	return printJSON(cmd.OutOrStdout(), doc)
}

// printRunText emits a human-readable trace and final state summary.
func printRunText(cmd *cobra.Command, result *harness.Result) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scenario %s: %d actions dispatched\n\n", result.Scenario, len(result.Trace))

	for _, ev := range result.Trace {
		if ev.Seq == 0 {
			fmt.Fprintf(out, "  --- %-22s (no-op)\n", ev.Kind)
			continue
		}
		fmt.Fprintf(out, "  %3d %-22s changed=%v\n", ev.Seq, ev.Kind, ev.Changed)
	}

	tree := result.Final
	ledgerState := ledger.Current()(tree)
	currencyState := rates.Current()(tree)

	fmt.Fprintf(out, "\noperations (%d):\n", len(ledgerState.Entities))
	for _, op := range ledgerState.Entities {
		fmt.Fprintf(out, "  #%-4d %-20s %s\n", op.ID, op.Reason, formatAmount(op.Amount, currencyState.Selected))
	}
	fmt.Fprintf(out, "  total: %s\n", formatAmount(ledger.Total()(tree), currencyState.Selected))

	fmt.Fprintf(out, "\ncurrencies: selected=%s loading=%v\n", currencyState.Selected, currencyState.Loading)
	if currencyState.LastError != "" {
		fmt.Fprintf(out, "  last error: %s\n", currencyState.LastError)
	}
	for _, r := range currencyState.Rates {
		fmt.Fprintf(out, "  %s\n", formatRate(r.Code, r.Value))
	}
	return nil
}

// finalSlices projects the final tree into a JSON-friendly map.
func finalSlices(tree *state.Tree) map[string]any {
	out := make(map[string]any, len(tree.Names()))
	for _, name := range tree.Names() {
		out[name] = tree.Slice(name)
	}
	return out
}
