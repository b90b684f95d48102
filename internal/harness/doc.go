// Package harness runs YAML scenarios against a synchronizer engine wired
// to an in-memory host scene and render index.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	params:
//	  use_mesh_adapter: true
//	steps:
//	  - op: create
//	    type: transform
//	    name: cube
//	  - op: create
//	    type: mesh
//	    name: cubeShape
//	    parent: cube
//	  - op: populate
//	  - op: settle
//	    expect: { recreated: 0 }
//	assertions:
//	  - type: prim_exists
//	    rprim: "|cube|cubeShape"
//
// Params are overlaid on config.Default() and validated before the run.
//
// # Steps
//
// Scene edits: create, delete, assign, connect, disconnect, set_matrix,
// set_visible, set_attribute, instance, reparent.
//
// Engine: populate, batch (a complete viewport update), settle, sync,
// set_display_style, set_params, tag_changed, rebuild, recreate.
//
// Producers: add_producer, remove_producer, viewport_added,
// viewport_removed.
//
// Engine invariants are checked after every step; the first failing step
// ends the run.
//
// # Targets
//
// Steps and assertions that name a prim use exactly one of rprim or sprim
// (a host DAG path), material (a shading engine name), item (source, name
// and fast_id of a render item) or path (a raw render-index path).
//
// # Assertion Types
//
//   - prim_exists, prim_absent: the target is (not) in the render index
//   - prim_count: number of rprims or sprims
//   - table_counts: adapter table sizes
//   - transform, visible, material_id: delegate answers for the target
//   - dirty: the target's dirty bits, empty meaning clean
//   - producer_count: producers inserted into a viewport
//
// # Golden Files
//
// RunWithGolden snapshots the trace, settle reports and final state as
// canonical JSON under testdata/golden. Runs are deterministic: frame
// numbers are logical and producer ids come from a sequence.
package harness
