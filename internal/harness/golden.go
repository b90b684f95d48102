package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/scenesync/internal/engine"
	"github.com/roach88/scenesync/internal/snapshot"
)

// Snapshot is the golden view of a scenario run: the trace, every settle
// report and the final state. It is serialized as canonical JSON.
type Snapshot struct {
	Name   string
	Result *Result
}

// Value converts the snapshot to the value tree MarshalCanonical accepts.
// Optional parts are omitted when empty.
func (s Snapshot) Value() map[string]any {
	trace := make([]any, len(s.Result.Trace))
	for i, ev := range s.Result.Trace {
		m := map[string]any{"seq": ev.Seq, "op": ev.Op}
		if ev.Detail != "" {
			m["detail"] = ev.Detail
		}
		trace[i] = m
	}

	reports := make([]any, len(s.Result.Reports))
	for i, rep := range s.Result.Reports {
		reports[i] = reportValue(rep)
	}

	final := s.Result.Final
	out := map[string]any{
		"name":    s.Name,
		"trace":   trace,
		"reports": reports,
		"rprims":  primValues(final.Rprims),
		"sprims":  primValues(final.Sprims),
		"tables": map[string]any{
			"shapes":      final.Tables.Shapes,
			"renderItems": final.Tables.RenderItems,
			"cameras":     final.Tables.Cameras,
			"lights":      final.Tables.Lights,
			"materials":   final.Tables.Materials,
		},
	}
	if len(final.Producers) > 0 {
		producers := make(map[string]any, len(final.Producers))
		for vp, names := range final.Producers {
			producers[vp] = names
		}
		out["producers"] = producers
	}
	if len(s.Result.Errors) > 0 {
		out["errors"] = s.Result.Errors
	}
	return out
}

func reportValue(rep engine.SettleReport) map[string]any {
	m := map[string]any{"frame": rep.Frame}
	for k, v := range rep.Counts() {
		m[k] = v
	}
	return m
}

func primValues(prims []PrimRef) []any {
	out := make([]any, len(prims))
	for i, p := range prims {
		out[i] = map[string]any{"path": p.Path, "type": p.Type}
	}
	return out
}

// Marshal returns the canonical JSON of the snapshot.
func (s Snapshot) Marshal() ([]byte, error) {
	return snapshot.MarshalCanonical(s.Value())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario could not run. A snapshot mismatch fails t
// through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot{Name: scenarioName, Result: result}.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
