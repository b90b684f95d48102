package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/adapter"
	"github.com/roach88/scenesync/internal/config"
	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/journal"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
	"github.com/roach88/scenesync/internal/testutil"
)

func (f *fixture) settleWith(dc host.DrawContext) SettleReport {
	return f.eng.PreFrame(context.Background(), dc)
}

func TestSettle_FrameNumbersAdvance(t *testing.T) {
	f := newFixture(t, false)
	assert.Equal(t, int64(1), f.settle().Frame)
	assert.Equal(t, int64(2), f.settle().Frame)
	assert.Equal(t, int64(2), f.eng.Frame())
}

func TestSettle_ResumedClock(t *testing.T) {
	f := newFixture(t, false, WithFrameClock(NewFrameClock(41)))
	assert.Equal(t, int64(42), f.settle().Frame)
}

func TestSettle_DefaultMaterialToggle(t *testing.T) {
	f := newFixture(t, true)
	f.mesh("cube")
	f.eng.Populate()
	f.index.Sync()
	id := f.rprim("|cube|cubeShape")

	rep := f.settleWith(host.DrawContext{Style: host.DisplayDefaultMaterial})
	assert.Equal(t, 1, rep.StyleToggles)
	r, ok := f.index.Rprim(id)
	require.True(t, ok)
	assert.NotZero(t, r.Dirty&renderindex.DirtyMaterialID)
	assert.Equal(t, DefaultMaterialPath, f.eng.MaterialID(id))

	f.index.Sync()
	rep = f.settleWith(host.DrawContext{Style: host.DisplayDefaultMaterial})
	assert.Zero(t, rep.StyleToggles, "unchanged style is not a toggle")

	rep = f.settleWith(host.DrawContext{})
	assert.Equal(t, 1, rep.StyleToggles)
	assert.Equal(t, FallbackMaterial, f.eng.MaterialID(id))
}

func TestSettle_XRayReachesNewMaterials(t *testing.T) {
	f := newFixture(t, true)
	_, cube := f.mesh("cube")
	sg := f.scene.MustCreate(host.TypeShadingEngine, "blinnSG", nil)
	f.scene.Assign(cube, sg)
	f.eng.Populate()

	xray := host.DrawContext{Style: host.DisplayXRay}
	rep := f.settleWith(xray)
	assert.Equal(t, 1, rep.StyleToggles)

	m, ok := f.eng.materials.get(f.eng.Mapper().MaterialPath("blinnSG"))
	require.True(t, ok)
	assert.True(t, m.(*adapter.Material).XRay())

	_, sphere := f.mesh("sphere")
	sg2 := f.scene.MustCreate(host.TypeShadingEngine, "phongSG", nil)
	f.scene.Assign(sphere, sg2)

	rep = f.settleWith(xray)
	assert.Zero(t, rep.StyleToggles)
	m2, ok := f.eng.materials.get(f.eng.Mapper().MaterialPath("phongSG"))
	require.True(t, ok, "new shape brings its material")
	assert.True(t, m2.(*adapter.Material).XRay())

	f.settleWith(host.DrawContext{})
	assert.False(t, m.(*adapter.Material).XRay())
	assert.False(t, m2.(*adapter.Material).XRay())
}

func TestSettle_XRayToggleRetagsMaterials(t *testing.T) {
	f := newFixture(t, true)
	_, cube := f.mesh("cube")
	sg := f.scene.MustCreate(host.TypeShadingEngine, "blinnSG", nil)
	f.scene.Assign(cube, sg)
	f.eng.Populate()
	f.index.Sync()

	mat := f.eng.Mapper().MaterialPath("blinnSG")
	m, ok := f.eng.materials.get(mat)
	require.True(t, ok)
	require.Equal(t, adapter.TagDefault, m.Tag())

	rep := f.settleWith(host.DrawContext{Style: host.DisplayXRay})
	assert.Equal(t, 1, rep.StyleToggles)
	assert.Equal(t, 1, rep.TagChanges)
	assert.Equal(t, 1, rep.Rebuilt, "bound shape rebuilt into the translucent collection")
	assert.Equal(t, adapter.TagTranslucent, m.Tag())
	assert.True(t, f.eng.Pending().Empty())

	f.index.Sync()
	rep = f.settleWith(host.DrawContext{})
	assert.Equal(t, 1, rep.StyleToggles)
	assert.Equal(t, 1, rep.TagChanges)
	assert.Equal(t, 1, rep.Rebuilt)
	assert.Equal(t, adapter.TagDefault, m.Tag())
}

func TestSettle_MaterialCreatedUnderXRayIsTranslucent(t *testing.T) {
	f := newFixture(t, true)
	f.eng.Populate()
	f.settleWith(host.DrawContext{Style: host.DisplayXRay})

	_, cube := f.mesh("cube")
	sg := f.scene.MustCreate(host.TypeShadingEngine, "phongSG", nil)
	f.scene.Assign(cube, sg)
	f.settleWith(host.DrawContext{Style: host.DisplayXRay})

	m, ok := f.eng.materials.get(f.eng.Mapper().MaterialPath("phongSG"))
	require.True(t, ok)
	assert.Equal(t, adapter.TagTranslucent, m.Tag())
}

func TestSettle_MaterialTagChangeRebuildsBoundPrims(t *testing.T) {
	f := newFixture(t, true)
	_, cube := f.mesh("cube")
	sg := f.scene.MustCreate(host.TypeShadingEngine, "glassSG", nil)
	f.scene.Assign(cube, sg)
	f.eng.Populate()
	f.index.Sync()

	mat := f.eng.Mapper().MaterialPath("glassSG")
	r, ok := f.index.Rprim(f.rprim("|cube|cubeShape"))
	require.True(t, ok)
	require.Equal(t, mat, r.MaterialID)

	f.scene.SetAttribute(sg, "transparency", 0.5)
	assert.Equal(t, 1, f.eng.Pending().Tags)

	rep := f.settle()
	assert.Equal(t, 1, rep.TagChanges)
	assert.Equal(t, 1, rep.Rebuilt)
	m, _ := f.eng.materials.get(mat)
	assert.Equal(t, adapter.TagTranslucent, m.Tag())

	f.scene.SetAttribute(sg, "transparency", 0.75)
	rep = f.settle()
	assert.Zero(t, rep.TagChanges, "tag unchanged")
	assert.Zero(t, rep.Rebuilt)
}

func TestSettle_TagsIgnoredWithoutLighting(t *testing.T) {
	params := config.Default()
	params.UseMeshAdapter = true
	params.RequiresLighting = false
	f := newFixtureWithParams(t, params)
	_, cube := f.mesh("cube")
	sg := f.scene.MustCreate(host.TypeShadingEngine, "glassSG", nil)
	f.scene.Assign(cube, sg)
	f.eng.Populate()

	f.scene.SetAttribute(sg, "transparency", 0.5)
	rep := f.settle()
	assert.Zero(t, rep.TagChanges)
	assert.True(t, f.eng.Pending().Empty(), "tag queue cleared")
}

func TestSettle_ActiveLights(t *testing.T) {
	f := newFixture(t, false)
	_, keyShape := f.light("key")
	f.eng.Populate()
	require.Equal(t, 1, f.settle().LightsAdded)

	id := f.sprim("|key|keyShape")
	l, ok := f.eng.lights.get(id)
	require.True(t, ok)
	assert.True(t, l.LightingOn())

	rep := f.settleWith(host.DrawContext{})
	assert.Equal(t, 1, rep.LightsOff)
	assert.False(t, l.LightingOn())
	assert.Equal(t, false, f.eng.LightParamValue(id, renderindex.ParamLighting))

	rep = f.settle()
	assert.Equal(t, 1, rep.LightsOn)
	assert.True(t, l.LightingOn())
	assert.Nil(t, f.eng.LightParamValue(id, renderindex.ParamShadowMatrix))

	f.scene.SetAttribute(keyShape, host.AttrShadow, true)
	active := f.scene.ActiveLights()
	require.Len(t, active, 1)
	require.True(t, active[0].HasShadow)

	rep = f.settle()
	assert.Zero(t, rep.LightsOn)
	assert.Equal(t, active[0].ShadowMatrix, f.eng.LightParamValue(id, renderindex.ParamShadowMatrix))
}

func TestSettle_UntrackedActiveLightGetsAdapter(t *testing.T) {
	f := newFixture(t, false)
	f.light("key")

	rep := f.settle()
	assert.Zero(t, rep.LightsAdded)
	assert.Equal(t, 1, rep.LightsCreated)
	assert.Equal(t, []scenepath.Path{f.sprim("|key|keyShape")}, f.eng.Paths(adapter.KindLight))

	rep = f.settle()
	assert.Zero(t, rep.LightsCreated)
}

func TestSettle_LightsDisabled(t *testing.T) {
	params := config.Default()
	params.LightsEnabled = false
	f := newFixtureWithParams(t, params)
	f.light("key")
	f.eng.Populate()
	assert.Zero(t, f.eng.Pending().Lights)

	rep := f.settle()
	assert.Zero(t, rep.LightsCreated)
	assert.Zero(t, f.eng.Counts().Lights)
}

func TestSettle_DeletedShapeIsRecreatedAway(t *testing.T) {
	f := newFixture(t, true)
	xf, _ := f.mesh("cube")
	f.eng.Populate()
	id := f.rprim("|cube|cubeShape")

	require.NoError(t, f.scene.Delete(xf))
	assert.Equal(t, 1, f.eng.Pending().Recreate)

	rep := f.settle()
	assert.Equal(t, 1, rep.Recreated)
	assert.Zero(t, f.eng.Counts().Shapes)
	_, ok := f.index.Rprim(id)
	assert.False(t, ok)
	f.requireInvariants()
}

func TestSettle_ReparentMovesShape(t *testing.T) {
	f := newFixture(t, true)
	_, cube := f.mesh("cube")
	group := f.scene.MustCreate(host.TypeTransform, "group", nil)
	f.eng.Populate()
	f.settle()

	require.NoError(t, f.scene.Reparent(cube, group))
	rep := f.settle()
	assert.Equal(t, 1, rep.Recreated)
	assert.Equal(t, []scenepath.Path{f.rprim("|group|cubeShape")}, f.eng.Paths(adapter.KindShape))
	f.requireInvariants()
}

func TestSettle_NewInstanceRecreatesMaster(t *testing.T) {
	f := newFixture(t, true)
	_, cube := f.mesh("cube")
	f.eng.Populate()
	f.settle()
	id := f.rprim("|cube|cubeShape")

	inst := f.scene.MustCreate(host.TypeTransform, "inst", nil)
	require.NoError(t, f.scene.AddInstance(cube, inst))

	rep := f.settle()
	assert.Equal(t, 1, rep.NodesAdded)
	assert.Equal(t, 1, rep.Recreated)

	s, ok := f.eng.shapes.get(id)
	require.True(t, ok)
	assert.True(t, s.IsInstanced())
	assert.Equal(t, id.AppendProperty("instancer"), f.eng.InstancerID(id))
	assert.Equal(t, []int{0, 1}, f.eng.InstanceIndices(f.eng.InstancerID(id), id))
	assert.Equal(t, 1, f.eng.Counts().Shapes, "instances share one adapter")
}

func TestSettle_Journal(t *testing.T) {
	ctx := context.Background()
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.BeginSession(ctx, journal.Session{ID: "s1", Root: "/SceneSync", Renderer: "Storm"}))

	idx := renderindex.NewMemory()
	rec := journal.NewRecorder(store, idx, "s1")
	params := config.Default()
	params.UseMeshAdapter = true
	scene := host.NewScene()
	eng := New(scene, idx, nil, WithParams(params), WithLogger(testutil.QuietLogger()), WithJournal(rec))
	t.Cleanup(eng.Close)

	f := &fixture{t: t, scene: scene, index: idx, eng: eng}
	f.mesh("cube")
	eng.Populate()
	assert.Same(t, rec, eng.Index())

	f.settle()
	f.settle()
	assert.Zero(t, rec.Buffered())

	frames, err := store.ReadFrames(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, int64(1), frames[0].Frame)
	assert.NotEmpty(t, frames[0].StateHash)
	assert.Equal(t, frames[0].StateHash, frames[1].StateHash, "nothing changed between frames")
	assert.NotEqual(t, frames[0].FrameHash, frames[1].FrameHash)

	ops, err := store.ReadOps(ctx, "s1", 1)
	require.NoError(t, err)
	var kinds []journal.OpKind
	for _, op := range ops {
		kinds = append(kinds, op.Kind)
	}
	assert.Contains(t, kinds, journal.OpInsertRprim)
	assert.Contains(t, kinds, journal.OpInsertSprim)

	require.NoError(t, store.VerifyChain(ctx, "s1"))
}
