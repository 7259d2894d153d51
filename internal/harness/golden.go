package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/council/internal/canonical"
)

// Snapshot renders the golden form of a run: canonical JSON of the
// session id and trace, without event ids, reasons or public ids.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, e := range result.Trace {
		trace[i] = map[string]any{
			"seq":      e.Seq,
			"op":       e.Op,
			"step":     e.Step,
			"from":     e.From,
			"to":       e.To,
			"accepted": e.Accepted,
		}
	}
	return canonical.Marshal(map[string]any{
		"scenario_name": name,
		"session":       result.SessionID,
		"trace":         trace,
	})
}

// RunWithGolden runs scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
