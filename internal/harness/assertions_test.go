package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertVisible,
		Target:   "rprim |cube|cubeShape",
		Expected: "visible=true",
		Actual:   "visible=false",
	}
	assert.Equal(t,
		"Assertion failed: visible\n  Target: rprim |cube|cubeShape\n  Expected: visible=true\n  Actual: visible=false",
		err.Error())

	noTarget := &AssertionError{Type: AssertTableCounts, Expected: "a", Actual: "b"}
	assert.NotContains(t, noTarget.Error(), "Target")
}

const cubeSetup = `
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
  - op: sync
`

func runAssertions(t *testing.T, assertions string) *Result {
	t.Helper()
	result, err := Run(mustParse(t, "name: a\ndescription: d\n"+cubeSetup+"assertions:\n"+assertions))
	require.NoError(t, err)
	return result
}

func TestAssertions_Failures(t *testing.T) {
	tests := []struct {
		name       string
		assertions string
		wantErr    string
	}{
		{
			name:       "prim absent",
			assertions: "  - type: prim_absent\n    rprim: '|cube|cubeShape'\n",
			wantErr:    "Expected: no prim",
		},
		{
			name:       "prim count",
			assertions: "  - type: prim_count\n    kind: rprim\n    count: 2\n",
			wantErr:    "Actual: 1",
		},
		{
			name:       "table counts",
			assertions: "  - type: table_counts\n    counts: {shapes: 2}\n",
			wantErr:    "shapes=1",
		},
		{
			name:       "unknown table",
			assertions: "  - type: table_counts\n    counts: {meshes: 1}\n",
			wantErr:    `unknown table "meshes"`,
		},
		{
			name:       "transform",
			assertions: "  - type: transform\n    rprim: '|cube|cubeShape'\n    translate: [0, 1, 0]\n",
			wantErr:    "Expected: [0 1 0]",
		},
		{
			name:       "visible",
			assertions: "  - type: visible\n    rprim: '|cube|cubeShape'\n    visible: false\n",
			wantErr:    "Actual: visible=true",
		},
		{
			name:       "material",
			assertions: "  - type: material_id\n    rprim: '|cube|cubeShape'\n    bound: redSG\n",
			wantErr:    "Actual: (fallback)",
		},
		{
			name:       "dirty",
			assertions: "  - type: dirty\n    rprim: '|cube|cubeShape'\n    dirty: [points]\n",
			wantErr:    "Actual: []",
		},
		{
			name:       "dirty missing prim",
			assertions: "  - type: dirty\n    rprim: '|nope'\n",
			wantErr:    "Actual: no prim",
		},
		{
			name:       "producer count",
			assertions: "  - type: producer_count\n    viewport: vp1\n    count: 1\n",
			wantErr:    "Actual: 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runAssertions(t, tt.assertions)
			assert.False(t, result.Pass)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], tt.wantErr)
		})
	}
}

func TestAssertions_Passing(t *testing.T) {
	result := runAssertions(t, `
  - type: prim_exists
    rprim: "|cube|cubeShape"
  - type: prim_exists
    path: /__default_material__
  - type: dirty
    rprim: "|cube|cubeShape"
  - type: transform
    rprim: "|cube|cubeShape"
    translate: [0, 0, 0]
  - type: visible
    rprim: "|cube|cubeShape"
    visible: true
  - type: material_id
    rprim: "|cube|cubeShape"
    bound: fallback
  - type: producer_count
    viewport: vp1
    count: 0
`)
	requirePass(t, result)
}
