package scenepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapper_Roots(t *testing.T) {
	m := NewMapper(MustParse("/SceneSync"))

	assert.Equal(t, "/SceneSync", m.Root().String())
	assert.Equal(t, "/SceneSync/rprims", m.RprimRoot().String())
	assert.Equal(t, "/SceneSync/sprims", m.SprimRoot().String())
	assert.Equal(t, "/SceneSync/materials", m.MaterialRoot().String())
}

func TestMapper_DefaultRoot(t *testing.T) {
	m := NewMapper(Empty)
	assert.Equal(t, "/SceneSync", m.Root().String())
}

func TestMapper_PrimPath(t *testing.T) {
	m := NewMapper(MustParse("/vp1"))

	assert.Equal(t, "/vp1/rprims/grp/cube/cubeShape",
		m.PrimPath("|grp|cube|cubeShape", false).String())
	assert.Equal(t, "/vp1/sprims/keyLight/keyLightShape",
		m.PrimPath("|keyLight|keyLightShape", true).String())
	assert.Equal(t, "/vp1/rprims/ns/cube",
		m.PrimPath("|ns:cube", false).String())
}

func TestMapper_Deterministic(t *testing.T) {
	a := NewMapper(MustParse("/vp1"))
	b := NewMapper(MustParse("/vp1"))

	assert.Equal(t, a.PrimPath("|x|y", false), b.PrimPath("|x|y", false))
	assert.NotEqual(t, a.PrimPath("|x|y", false), a.PrimPath("|x|y", true))
}

func TestMapper_MaterialPath(t *testing.T) {
	m := NewMapper(MustParse("/vp1"))

	assert.Equal(t, "/vp1/materials/lambert2SG", m.MaterialPath("lambert2SG").String())
	assert.True(t, m.MaterialPath("").IsEmpty())
}

func TestMapper_RenderItemPath(t *testing.T) {
	m := NewMapper(MustParse("/vp1"))

	assert.Equal(t, "/vp1/rprims/cube/cubeShape/StandardShadedItem_7",
		m.RenderItemPath("|cube|cubeShape", "StandardShadedItem", 7).String())
	assert.Equal(t, "/vp1/rprims/grid_3",
		m.RenderItemPath("", "grid", 3).String())
}
