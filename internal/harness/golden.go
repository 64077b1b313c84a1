package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/tomhutton/strata/internal/scenario"
)

// RunWithGolden executes a scenario and compares the recorded trace
// against a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution fails; a trace mismatch fails
// the test through goldie.
func (h *Harness) RunWithGolden(t *testing.T, sc *scenario.Scenario) (*Result, error) {
	t.Helper()

	result, err := h.Run(context.Background(), sc)
	if err != nil {
		return result, err
	}

	traceJSON, err := result.TraceJSON()
	if err != nil {
		return result, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, traceJSON)

	return result, nil
}
