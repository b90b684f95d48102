package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

func TestResolvePickHit_RenderItem(t *testing.T) {
	f := newFixture(t, false)
	f.mesh("cube")
	it := item(4, "shaded")
	it.Source = "|cube|cubeShape"
	f.eng.OnCompleteSceneUpdate(batch(it))
	id := f.eng.Mapper().RenderItemPath("|cube|cubeShape", "shaded", 4)

	dag, ok := f.eng.ResolvePickHit(id)
	require.True(t, ok)
	assert.Equal(t, host.DagPath("|cube"), dag, "selection goes to the transform")

	dag, ok = f.eng.ResolvePickHit(id.AppendProperty("instancer"))
	require.True(t, ok)
	assert.Equal(t, host.DagPath("|cube"), dag)
}

func TestResolvePickHit_Misses(t *testing.T) {
	f := newFixture(t, false)
	f.eng.OnCompleteSceneUpdate(batch(item(1, "orphan")))

	_, ok := f.eng.ResolvePickHit(f.eng.Mapper().RenderItemPath("", "orphan", 1))
	assert.False(t, ok, "item without a source")

	_, ok = f.eng.ResolvePickHit(scenepath.MustParse("/Other/rprims/x"))
	assert.False(t, ok, "outside the rprim root")

	_, ok = f.eng.ResolvePickHit(f.eng.Mapper().RprimRoot().AppendChild("unknown"))
	assert.False(t, ok)
}

func TestResolvePickHit_Shape(t *testing.T) {
	f := newFixture(t, true)
	f.mesh("cube")
	f.eng.Populate()

	dag, ok := f.eng.ResolvePickHit(f.rprim("|cube|cubeShape"))
	require.True(t, ok)
	assert.Equal(t, host.DagPath("|cube"), dag)
}

func TestSetCameraViewport(t *testing.T) {
	f := newFixture(t, true)
	persp := f.scene.MustCreate(host.TypeTransform, "persp", nil)
	f.scene.MustCreate("camera", "perspShape", persp)
	f.eng.Populate()

	vp := mgl64.Vec4{0, 0, 640, 480}
	id, ok := f.eng.SetCameraViewport("|persp|perspShape", vp)
	require.True(t, ok)
	assert.Equal(t, f.sprim("|persp|perspShape"), id)
	assert.Equal(t, vp, f.eng.CameraParamValue(id, renderindex.ParamViewport))

	_, ok = f.eng.SetCameraViewport("|persp", vp)
	assert.False(t, ok)
}
