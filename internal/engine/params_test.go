package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// structuralScene populates a structural engine with a mesh, a light and a
// material, then syncs so every prim starts clean.
func structuralScene(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, true)
	_, cube := f.mesh("cube")
	sg := f.scene.MustCreate(host.TypeShadingEngine, "lambert1SG", nil)
	f.scene.Assign(cube, sg)
	f.light("key")
	f.eng.Populate()
	f.index.Sync()
	return f
}

func (f *fixture) rprimDirty(p scenepath.Path) renderindex.DirtyBits {
	f.t.Helper()
	r, ok := f.index.Rprim(p)
	require.True(f.t, ok, "rprim %s", p)
	return r.Dirty
}

func (f *fixture) sprimDirty(p scenepath.Path) renderindex.DirtyBits {
	f.t.Helper()
	s, ok := f.index.Sprim(p)
	require.True(f.t, ok, "sprim %s", p)
	return s.Dirty
}

func TestSetParams_FixedFieldsIgnored(t *testing.T) {
	f := newFixture(t, false)
	p := f.eng.Params()
	p.Root = "/Elsewhere"
	p.UseMeshAdapter = true
	p.LightsEnabled = false

	f.eng.SetParams(p)
	got := f.eng.Params()
	assert.Equal(t, "/SceneSync", got.Root)
	assert.False(t, got.UseMeshAdapter)
	assert.False(t, got.LightsEnabled, "other fields still apply")
}

func TestSetParams_SmoothMeshesDirtiesTopology(t *testing.T) {
	f := structuralScene(t)
	shape := f.rprim("|cube|cubeShape")

	p := f.eng.Params()
	p.DisplaySmoothMeshes = true
	f.eng.SetParams(p)
	assert.NotZero(t, f.rprimDirty(shape)&renderindex.DirtyTopology)
	assert.Equal(t, renderindex.Clean, f.sprimDirty(f.sprim("|key|keyShape")))
}

func TestSetParams_SmoothMeshesDirtiesRenderItems(t *testing.T) {
	f := newFixture(t, false)
	f.eng.OnCompleteSceneUpdate(batch(item(1, "a")))
	f.index.Sync()

	p := f.eng.Params()
	p.DisplaySmoothMeshes = true
	f.eng.SetParams(p)
	assert.Equal(t, renderindex.DirtyTopology, f.rprimDirty(f.eng.Mapper().RenderItemPath("", "a", 1)))
}

func TestSetParams_MotionSamples(t *testing.T) {
	f := structuralScene(t)

	p := f.eng.Params()
	p.MotionSampleEnd = 0.5
	f.eng.SetParams(p)

	bits := f.rprimDirty(f.rprim("|cube|cubeShape"))
	assert.NotZero(t, bits&renderindex.DirtyPoints)
	assert.NotZero(t, bits&renderindex.DirtyTransform)
	assert.NotZero(t, f.sprimDirty(f.sprim("|key|keyShape"))&renderindex.DirtyTransform)
}

func TestSetParams_TextureMemoryDirtiesMaterials(t *testing.T) {
	f := structuralScene(t)

	p := f.eng.Params()
	p.TextureMemoryPerTexture *= 2
	f.eng.SetParams(p)

	assert.Equal(t, renderindex.AllDirty, f.sprimDirty(f.eng.Mapper().MaterialPath("lambert1SG")))
	assert.Equal(t, renderindex.Clean, f.rprimDirty(f.rprim("|cube|cubeShape")))
}

func TestSetParams_ShadowResolutionDirtiesLights(t *testing.T) {
	f := structuralScene(t)

	p := f.eng.Params()
	p.MaximumShadowMapResolution = 4096
	f.eng.SetParams(p)

	assert.Equal(t, renderindex.AllDirty, f.sprimDirty(f.sprim("|key|keyShape")))
}

func TestSetParams_UnchangedIsNoOp(t *testing.T) {
	f := structuralScene(t)
	before := f.index.Stats()

	f.eng.SetParams(f.eng.Params())
	assert.Equal(t, before, f.index.Stats())
}
