package config

import "strings"

// Renderer plugin names known to need special handling.
const (
	RendererStorm  = "HdStormRendererPlugin"
	RendererEmbree = "HdEmbreeRendererPlugin"
)

// Params are the synchronizer parameters.
type Params struct {
	// RendererName is the active render delegate.
	RendererName string `mapstructure:"renderer_name" yaml:"renderer_name" json:"rendererName" default:"HdStormRendererPlugin"`
	// RequiresLighting enables the active-light pass of settle and material
	// tag handling. Set for rasterizing delegates that draw host lights.
	RequiresLighting bool `mapstructure:"requires_lighting" yaml:"requires_lighting" json:"requiresLighting" default:"true"`
	// LightsEnabled controls whether light adapters are created at all.
	LightsEnabled bool `mapstructure:"lights_enabled" yaml:"lights_enabled" json:"lightsEnabled" default:"true"`
	// UseMeshAdapter selects structural mode: meshes are represented by
	// shape adapters instead of render items.
	UseMeshAdapter      bool    `mapstructure:"use_mesh_adapter" yaml:"use_mesh_adapter" json:"useMeshAdapter" default:"false"`
	DisplaySmoothMeshes bool    `mapstructure:"display_smooth_meshes" yaml:"display_smooth_meshes" json:"displaySmoothMeshes" default:"false"`
	MotionSampleStart   float64 `mapstructure:"motion_sample_start" yaml:"motion_sample_start" json:"motionSampleStart" default:"0"`
	MotionSampleEnd     float64 `mapstructure:"motion_sample_end" yaml:"motion_sample_end" json:"motionSampleEnd" default:"0"`
	// TextureMemoryPerTexture is in bytes.
	TextureMemoryPerTexture    int `mapstructure:"texture_memory_per_texture" yaml:"texture_memory_per_texture" json:"textureMemoryPerTexture" default:"4194304"`
	MaximumShadowMapResolution int `mapstructure:"maximum_shadow_map_resolution" yaml:"maximum_shadow_map_resolution" json:"maximumShadowMapResolution" default:"2048"`
	// Root is the path under which every synchronized prim is inserted.
	Root string `mapstructure:"root" yaml:"root" json:"root" default:"/SceneSync"`
}

// Default returns the parameters used when nothing is configured.
func Default() Params {
	return Params{
		RendererName:               RendererStorm,
		RequiresLighting:           true,
		LightsEnabled:              true,
		MotionSampleStart:          0,
		MotionSampleEnd:            0,
		TextureMemoryPerTexture:    4 * 1024 * 1024,
		MaximumShadowMapResolution: 2048,
		Root:                       "/SceneSync",
	}
}

// IsStorm reports whether the renderer is the rasterizing Storm delegate.
func (p Params) IsStorm() bool {
	return strings.EqualFold(p.RendererName, RendererStorm)
}

// HasMotionBlur reports whether more than one motion sample is requested.
func (p Params) HasMotionBlur() bool {
	return p.MotionSampleStart != p.MotionSampleEnd
}
