package harness

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/config"
	"github.com/roach88/scenesync/internal/journal"
)

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func requirePass(t *testing.T, r *Result) {
	t.Helper()
	require.True(t, r.Pass, "errors: %v", r.Errors)
}

func TestRun_MinimalScenario(t *testing.T) {
	result, err := Run(mustParse(t, minimalScenario))
	require.NoError(t, err)
	requirePass(t, result)

	require.Len(t, result.Trace, 1)
	assert.Equal(t, TraceEvent{Seq: 1, Op: OpPopulate}, result.Trace[0])
	assert.Empty(t, result.Final.Rprims)
	require.Len(t, result.Final.Sprims, 1, "default material")
	assert.Equal(t, "/__default_material__", result.Final.Sprims[0].Path)
}

func TestRun_TestdataScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			result, err := Run(s)
			require.NoError(t, err)
			requirePass(t, result)
		})
	}
}

func TestRun_FailedAssertionReported(t *testing.T) {
	result, err := Run(mustParse(t, `
name: failing
description: "expects a prim that never appears"
steps:
  - op: populate
assertions:
  - type: prim_exists
    rprim: "|ghost|ghostShape"
  - type: prim_count
    kind: sprim
    count: 1
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[0], "Assertion failed: prim_exists")
	assert.Contains(t, result.Errors[0], "/SceneSync/rprims/ghost/ghostShape")
}

func TestRun_StepErrorStopsRun(t *testing.T) {
	result, err := Run(mustParse(t, `
name: bad_step
description: "deletes a node that does not exist"
steps:
  - op: populate
  - op: delete
    name: nothing
  - op: settle
assertions:
  - type: prim_count
    kind: rprim
    count: 0
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `steps[1] delete: no node named "nothing"`)
	assert.Len(t, result.Trace, 1, "later steps not executed")
	assert.Empty(t, result.Reports)
}

func TestRun_SettleExpectMismatch(t *testing.T) {
	result, err := Run(mustParse(t, `
name: expect_mismatch
description: "settle counters differ"
steps:
  - op: populate
  - op: settle
    expect:
      lightsAdded: 2
assertions:
  - type: prim_count
    kind: rprim
    count: 0
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "lightsAdded: expected 2, got 0")
}

func TestRun_UnknownSettleCounter(t *testing.T) {
	result, err := Run(mustParse(t, `
name: unknown_counter
description: "settle counter typo"
steps:
  - op: settle
    expect:
      lightz: 1
assertions:
  - type: prim_count
    kind: rprim
    count: 0
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], `unknown settle counter "lightz"`)
}

func TestRun_InvalidParams(t *testing.T) {
	_, err := Run(mustParse(t, `
name: bad_params
description: "motion samples out of order"
params:
  motion_sample_start: 1
  motion_sample_end: -1
steps:
  - op: populate
assertions:
  - type: prim_count
    kind: rprim
    count: 0
`))
	require.Error(t, err)
	var invalid *config.InvalidParamsError
	require.True(t, errors.As(err, &invalid))
	assert.NotEmpty(t, invalid.Errors)
}

func TestRun_DisplayStyleAndParams(t *testing.T) {
	result, err := Run(mustParse(t, `
name: display_style
description: "default-material mode overrides bindings until switched off"
params:
  use_mesh_adapter: true
steps:
  - op: create
    type: transform
    name: cube
  - op: create
    type: mesh
    name: cubeShape
    parent: cube
  - op: populate
  - op: set_display_style
    style: [default_material, xray]
  - op: settle
    expect:
      styleToggles: 2
  - op: set_params
    params:
      display_smooth_meshes: true
assertions:
  - type: material_id
    rprim: "|cube|cubeShape"
    bound: default
`))
	require.NoError(t, err)
	requirePass(t, result)
}

func TestRun_DeferredWork(t *testing.T) {
	result, err := Run(mustParse(t, `
name: deferred_work
description: "rebuilds and recreates requested by path run at the next settle"
params:
  use_mesh_adapter: true
steps:
  - op: create
    type: transform
    name: cube
  - op: create
    type: mesh
    name: cubeShape
    parent: cube
  - op: create
    type: shadingEngine
    name: glassSG
  - op: assign
    name: cubeShape
    shading_group: glassSG
  - op: populate
  - op: settle
  - op: sync
  - op: rebuild
    rprim: "|cube|cubeShape"
    flags: [callbacks, prim]
  - op: settle
    expect:
      rebuilt: 1
  - op: recreate
    rprim: "|cube|cubeShape"
  - op: rebuild
    rprim: "|cube|cubeShape"
    flags: [prim]
  - op: settle
    expect:
      recreated: 1
      rebuilt: 0
  - op: sync
  - op: set_attribute
    name: glassSG
    attr: transparency
    value: 0.5
  - op: settle
    expect:
      tagChanges: 1
      rebuilt: 1
  - op: tag_changed
    material: glassSG
  - op: settle
    expect:
      tagChanges: 0
assertions:
  - type: prim_exists
    material: glassSG
  - type: visible
    rprim: "|cube|cubeShape"
    visible: true
  - type: table_counts
    counts:
      shapes: 1
      materials: 1
`))
	require.NoError(t, err)
	requirePass(t, result)
	assert.Len(t, result.Reports, 5)
	assert.Equal(t, int64(5), result.Reports[4].Frame)
}

func TestRun_RenderItemBatches(t *testing.T) {
	result, err := Run(mustParse(t, `
name: batches
description: "render items arrive, change and leave through viewport batches"
steps:
  - op: populate
  - op: batch
    items:
      - fast_id: 1
        name: wire
        source: "|curve|curveShape"
        primitive: lines
      - fast_id: 2
        name: shaded
        source: "|cube|cubeShape"
      - fast_id: 3
        name: hidden
        source: "|cube|cubeShape"
        flags: [none]
  - op: batch
    items:
      - fast_id: 2
        name: shaded
        source: "|cube|cubeShape"
        translate: [5, 0, 0]
        flags: [matrix]
    removals: [1]
assertions:
  - type: prim_absent
    item:
      source: "|curve|curveShape"
      name: wire
      fast_id: 1
  - type: prim_absent
    item:
      source: "|cube|cubeShape"
      name: hidden
      fast_id: 3
  - type: transform
    item:
      source: "|cube|cubeShape"
      name: shaded
      fast_id: 2
    translate: [5, 0, 0]
  - type: material_id
    item:
      source: "|cube|cubeShape"
      name: shaded
      fast_id: 2
    bound: fallback
  - type: prim_count
    kind: rprim
    count: 1
`))
	require.NoError(t, err)
	requirePass(t, result)
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/render_items_basic.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := Snapshot{Name: s.Name, Result: first}.Marshal()
	require.NoError(t, err)
	b, err := Snapshot{Name: s.Name, Result: second}.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunWithOptions_Journal(t *testing.T) {
	ctx := context.Background()
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s, err := LoadScenario("testdata/scenarios/reparent_recreates.yaml")
	require.NoError(t, err)

	result, err := RunWithOptions(ctx, s, Options{Store: store})
	require.NoError(t, err)
	requirePass(t, result)
	assert.Equal(t, "reparent_recreates", result.Session)

	frames, err := store.ReadFrames(ctx, result.Session)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, 1, frames[1].Counts["recreated"])
	require.NoError(t, store.VerifyChain(ctx, result.Session))

	history, err := store.PathHistory(ctx, "/SceneSync/rprims/group/cubeShape")
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, journal.OpInsertRprim, history[0].Kind)

	again, err := RunWithOptions(ctx, s, Options{Store: store, SessionID: "again"})
	require.NoError(t, err)
	requirePass(t, again)

	sessions, err := store.ReadSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestRunWithOptions_BaseParams(t *testing.T) {
	base := config.Default()
	base.UseMeshAdapter = true

	result, err := RunWithOptions(context.Background(), mustParse(t, `
name: base_params
description: "base params select structural mode"
steps:
  - op: create
    type: transform
    name: cube
  - op: create
    type: mesh
    name: cubeShape
    parent: cube
  - op: populate
assertions:
  - type: prim_exists
    rprim: "|cube|cubeShape"
`), Options{Params: &base})
	require.NoError(t, err)
	requirePass(t, result)
}
