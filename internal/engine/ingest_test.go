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

func item(fastID int, name string) *host.RenderItem {
	return &host.RenderItem{FastID: fastID, Name: name, Matrix: mgl64.Ident4(), Visible: true}
}

func batch(items ...*host.RenderItem) host.ViewportScene {
	vs := host.ViewportScene{Items: items}
	for range items {
		vs.Flags = append(vs.Flags, host.ChangedGeometry|host.ChangedEffect)
	}
	return vs
}

func TestIngest_UnknownRemovalIsIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.eng.OnCompleteSceneUpdate(batch(item(1, "a")))

	f.eng.OnCompleteSceneUpdate(host.ViewportScene{Removals: []int{host.InvalidFastID, 99}})
	assert.Equal(t, 1, f.eng.Counts().RenderItems)
	f.requireInvariants()
}

func TestIngest_BatchRemovalKeepsSurvivorOrder(t *testing.T) {
	f := newFixture(t, false)
	f.eng.OnCompleteSceneUpdate(batch(item(1, "a"), item(2, "b"), item(3, "c"), item(4, "d")))
	require.Equal(t, 4, f.eng.Counts().RenderItems)
	removesBefore := f.index.Stats().Removes

	f.eng.OnCompleteSceneUpdate(host.ViewportScene{Removals: []int{3, 1, 3}})

	assert.Equal(t, 2, f.eng.Counts().RenderItems)
	assert.Equal(t, 2, f.index.Stats().Removes-removesBefore, "a repeated removal detaches once")
	_, ok := f.eng.RenderItemByFastID(1)
	assert.False(t, ok)
	b, ok := f.eng.RenderItemByFastID(2)
	require.True(t, ok)
	d, ok := f.eng.RenderItemByFastID(4)
	require.True(t, ok)
	assert.Equal(t, []scenepath.Path{b.ID(), d.ID()}, f.eng.items.keys())
	f.requireInvariants()
}

func TestIngest_SkippedItems(t *testing.T) {
	tests := []struct {
		name       string
		structural bool
		item       *host.RenderItem
		flags      host.ChangeFlags
	}{
		{name: "invalid fast id", item: item(host.InvalidFastID, "a"), flags: host.ChangedGeometry},
		{name: "no flags", item: item(1, "a")},
		{name: "nil item", flags: host.ChangedGeometry},
		{name: "shaded item in structural mode", structural: true, item: item(1, StandardShadedItem), flags: host.ChangedGeometry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.structural)
			f.eng.OnCompleteSceneUpdate(host.ViewportScene{
				Items: []*host.RenderItem{tt.item},
				Flags: []host.ChangeFlags{tt.flags},
			})
			assert.Zero(t, f.eng.Counts().RenderItems)
		})
	}
}

func TestIngest_ShadedItemKeptOutsideStructuralMode(t *testing.T) {
	f := newFixture(t, false)
	f.eng.OnCompleteSceneUpdate(batch(item(1, StandardShadedItem)))
	assert.Equal(t, 1, f.eng.Counts().RenderItems)
}

func TestIngest_MissingFlagsDefaultToNone(t *testing.T) {
	f := newFixture(t, false)
	f.eng.OnCompleteSceneUpdate(host.ViewportScene{Items: []*host.RenderItem{item(1, "a")}})
	assert.Zero(t, f.eng.Counts().RenderItems)
}

func TestIngest_LineItemsUseFallbackMaterial(t *testing.T) {
	f := newFixture(t, false)
	sg := f.scene.MustCreate(host.TypeShadingEngine, "S", nil)
	wire := item(1, "wire")
	wire.Primitive = host.PrimitiveLines
	wire.ShadingGroup = sg

	f.eng.OnCompleteSceneUpdate(batch(wire))
	id := f.eng.Mapper().RenderItemPath("", "wire", 1)
	assert.Equal(t, FallbackMaterial, f.eng.MaterialID(id))
	assert.Zero(t, f.eng.Counts().Materials, "no material for line items")

	f.index.Sync()
	r, ok := f.index.Rprim(id)
	require.True(t, ok)
	assert.Equal(t, renderindex.PrimBasisCurves, r.Type)
}

func TestIngest_DeltasUpdateExistingItem(t *testing.T) {
	f := newFixture(t, false)
	it := item(1, "a")
	f.eng.OnCompleteSceneUpdate(batch(it))
	id := f.eng.Mapper().RenderItemPath("", "a", 1)
	f.index.Sync()

	moved := *it
	moved.Matrix = mgl64.Translate3D(1, 2, 3)
	moved.Visible = false
	f.eng.OnCompleteSceneUpdate(host.ViewportScene{
		Items: []*host.RenderItem{&moved},
		Flags: []host.ChangeFlags{host.ChangedMatrix | host.ChangedVisibility},
	})
	assert.Equal(t, 1, f.eng.Counts().RenderItems, "same fast id reuses the adapter")

	r, _ := f.index.Rprim(id)
	assert.NotZero(t, r.Dirty&renderindex.DirtyTransform)
	assert.NotZero(t, r.Dirty&renderindex.DirtyVisibility)

	f.index.Sync()
	r, _ = f.index.Rprim(id)
	assert.Equal(t, moved.Matrix, r.Transform)
	assert.False(t, r.Visible)
}

func TestIngest_PlaybackToggleDirtiesDependentItems(t *testing.T) {
	f := newFixture(t, false)
	anim := item(1, "anim")
	anim.DependsOnPlayback = true
	f.eng.OnCompleteSceneUpdate(batch(anim, item(2, "still")))
	f.index.Sync()

	f.eng.OnCompleteSceneUpdate(host.ViewportScene{PlaybackRunning: true})

	r, _ := f.index.Rprim(f.eng.Mapper().RenderItemPath("", "anim", 1))
	assert.Equal(t, renderindex.DirtyVisibility, r.Dirty)
	r, _ = f.index.Rprim(f.eng.Mapper().RenderItemPath("", "still", 2))
	assert.Equal(t, renderindex.Clean, r.Dirty)

	f.index.Sync()
	f.eng.OnCompleteSceneUpdate(host.ViewportScene{PlaybackRunning: true})
	r, _ = f.index.Rprim(f.eng.Mapper().RenderItemPath("", "anim", 1))
	assert.Equal(t, renderindex.Clean, r.Dirty, "unchanged playback state")
}

func TestIngest_LightSetMembership(t *testing.T) {
	f := newFixture(t, false)
	key, _ := f.light("key")
	f.eng.Populate()
	f.settle()
	id := f.sprim("|key|keyShape")
	set, _ := f.scene.Lookup(host.DefaultLightSet)

	f.scene.Disconnect(key, host.PlugInstObjGroups, set, host.PlugDagSetMembers)
	_, ok := f.index.Sprim(id)
	assert.False(t, ok, "light leaves the index with its set membership")
	assert.Equal(t, 1, f.eng.Counts().Lights, "adapter stays")

	f.scene.Connect(key, host.PlugInstObjGroups, set, host.PlugDagSetMembers)
	_, ok = f.index.Sprim(id)
	assert.True(t, ok)
}

func TestIngest_OtherConnectionsIgnored(t *testing.T) {
	f := newFixture(t, false)
	key, _ := f.light("key")
	f.eng.Populate()
	f.settle()
	other := f.scene.MustCreate(host.TypeObjectSet, "mySet", nil)
	before := f.index.Stats()

	f.scene.Connect(key, host.PlugInstObjGroups, other, host.PlugDagSetMembers)
	f.scene.Disconnect(key, host.PlugInstObjGroups, other, host.PlugDagSetMembers)
	assert.Equal(t, before, f.index.Stats())
}

func TestIngest_PendingLightCancelledByDelete(t *testing.T) {
	f := newFixture(t, false)
	f.eng.Populate()

	_, keyShape := f.light("key")
	require.Equal(t, 1, f.eng.Pending().Lights)
	require.NoError(t, f.scene.Delete(keyShape))
	assert.Zero(t, f.eng.Pending().Lights)

	rep := f.settle()
	assert.Zero(t, rep.LightsAdded)
	assert.Zero(t, rep.Stale)
}

func TestIngest_NilEntitiesIgnored(t *testing.T) {
	f := newFixture(t, true)
	f.eng.OnEntityAdded(nil)
	f.eng.OnEntityRemoved(nil)
	f.eng.OnConnectionChanged(host.Plug{}, host.Plug{}, true)
	assert.True(t, f.eng.Pending().Empty())
}
