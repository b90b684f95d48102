package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/scenesync/internal/config"
)

func TestParamsCommand_Defaults(t *testing.T) {
	out, _, err := execute(t, "params")
	require.NoError(t, err)
	assert.Contains(t, out, "renderer_name: HdStormRendererPlugin")
	assert.Contains(t, out, "root: /SceneSync")
}

func TestParamsCommand_FileOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "params.yaml", "lights_enabled: false\nuse_mesh_adapter: true\n")

	out, _, err := execute(t, "params", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   config.Params `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Data.LightsEnabled)
	assert.True(t, resp.Data.UseMeshAdapter)
	assert.Equal(t, config.RendererStorm, resp.Data.RendererName)
}

func TestParamsCommand_EnvOverride(t *testing.T) {
	t.Setenv("SCENESYNC_RENDERER_NAME", "HdEmbreeRendererPlugin")

	out, _, err := execute(t, "params")
	require.NoError(t, err)
	assert.Contains(t, out, "renderer_name: HdEmbreeRendererPlugin")
}

func TestParamsCommand_WriteOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "params.yaml", "maximum_shadow_map_resolution: 4096\n")
	dst := filepath.Join(dir, "resolved.yaml")

	out, _, err := execute(t, "params", src, "-o", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "Params written to "+dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	var p config.Params
	require.NoError(t, yaml.Unmarshal(data, &p))
	assert.Equal(t, 4096, p.MaximumShadowMapResolution)
	assert.Empty(t, config.Validate(p))
}

func TestParamsCommand_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		out, _, err := execute(t, "params", filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E005]")
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "params.yaml", "maximum_shadow_map_resolution: 8\n")
		out, _, err := execute(t, "params", path)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E006]")
	})
}
