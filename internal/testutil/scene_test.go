package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/host"
)

func TestLightSet_CreatedOnce(t *testing.T) {
	s := host.NewScene()
	a := LightSet(s)
	b := LightSet(s)
	assert.Same(t, a, b)
	assert.Equal(t, host.TypeObjectSet, a.TypeName())
}

func TestLight_IsLinked(t *testing.T) {
	s := host.NewScene()
	xf, light := Light(s, "pointLight", "key")

	dag, ok := s.PathTo(light)
	require.True(t, ok)
	assert.Equal(t, host.DagPath("|key|keyShape"), dag)
	assert.True(t, s.IlluminatesByDefault(dag))

	UnlinkLight(s, xf)
	assert.False(t, s.IlluminatesByDefault(dag))
}

func TestMesh_AndMaterial(t *testing.T) {
	s := host.NewScene()
	_, shape := Mesh(s, "cube")
	sg := Material(s, "redSG", shape)

	dag, ok := s.PathTo(shape)
	require.True(t, ok)
	got, ok := s.ShadingGroup(dag)
	require.True(t, ok)
	assert.Equal(t, sg.Name(), got.Name())
}

func TestLogRecorder(t *testing.T) {
	rec, logger := NewLogRecorder()
	logger.With("component", "test").Warn("careful", "n", 1)
	logger.Debug("detail")

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "careful", entries[0].Message)
	assert.Equal(t, "test", entries[0].Attrs["component"])
	assert.Equal(t, int64(1), entries[0].Attrs["n"])
	assert.Equal(t, []string{"careful"}, rec.Messages(slog.LevelWarn))
}
