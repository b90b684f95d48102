package adapter

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// Material tags. A tag change moves every bound rprim to a different
// render pass, which needs a prim rebuild.
const (
	TagDefault     = "defaultMaterialTag"
	TagTranslucent = "translucent"
	TagMasked      = "masked"
)

// Shader identifiers used in material networks.
const (
	ShaderPreviewSurface = "UsdPreviewSurface"
)

const (
	attrTransparency = "transparency"
	xrayOpacity      = 0.3
)

var (
	defaultGray  = mgl64.Vec3{0.5, 0.5, 0.5}.Mul(0.8)
	previewColor = mgl64.Vec3{0.18, 0.18, 0.18}
)

// Material adapts a host shading engine.
type Material struct {
	base
	tag  string
	xray bool
}

var _ MaterialAdapter = (*Material)(nil)

// NewMaterial creates a material adapter.
func NewMaterial(ctx Context, id scenepath.Path, e host.Entity) *Material {
	m := &Material{base: newBase(ctx, id, e)}
	m.tag = m.computeTag()
	return m
}

// IsSupported implements Adapter.
func (m *Material) IsSupported() bool {
	return m.entityValid() && m.ctx.Index().IsSprimTypeSupported(renderindex.PrimMaterial)
}

// HasType implements Adapter.
func (m *Material) HasType(t renderindex.PrimType) bool { return t == renderindex.PrimMaterial }

// Populate implements Adapter.
func (m *Material) Populate() { m.insertSprim(renderindex.PrimMaterial) }

// CreateCallbacks implements Adapter.
func (m *Material) CreateCallbacks() {
	m.subscribe(host.EventParams, func() {
		m.MarkDirty(renderindex.DirtyResource)
		m.ctx.MaterialTagChanged(m.id)
	})
	m.subscribe(host.EventAboutDelete, func() {
		m.ctx.RecreateAdapterOnIdle(m.id, m.entity)
	})
}

// Transform implements Adapter.
func (m *Material) Transform() mgl64.Mat4 { return mgl64.Ident4() }

// Visible implements Adapter.
func (m *Material) Visible() bool { return true }

// InvalidateTransform implements Adapter.
func (m *Material) InvalidateTransform() {}

// Tag implements MaterialAdapter.
func (m *Material) Tag() string { return m.tag }

func (m *Material) computeTag() string {
	if m.xray {
		return TagTranslucent
	}
	if t := m.stringAttr(host.AttrTag); t != "" {
		return t
	}
	if m.floatAttr(attrTransparency, 0) > 0 {
		return TagTranslucent
	}
	return TagDefault
}

// UpdateMaterialTag implements MaterialAdapter.
func (m *Material) UpdateMaterialTag() bool {
	t := m.computeTag()
	if t == m.tag {
		return false
	}
	m.tag = t
	m.MarkDirty(renderindex.DirtyResource)
	return true
}

// EnableXRayShadingMode implements MaterialAdapter.
func (m *Material) EnableXRayShadingMode(on bool) {
	if m.xray == on {
		return
	}
	m.xray = on
	m.MarkDirty(renderindex.DirtyResource)
}

// XRay reports whether x-ray shading is enabled.
func (m *Material) XRay() bool { return m.xray }

// MaterialResource implements MaterialAdapter.
func (m *Material) MaterialResource() renderindex.MaterialNetwork {
	opacity := 1 - m.floatAttr(attrTransparency, 0)
	if m.xray {
		opacity *= xrayOpacity
	}
	return renderindex.MaterialNetwork{
		Terminal: m.id,
		Nodes: []renderindex.MaterialNode{{
			Identifier: ShaderPreviewSurface,
			Path:       m.id,
			Parameters: map[string]any{
				"diffuseColor": m.vec3Attr(host.AttrColor, defaultGray),
				"opacity":      opacity,
			},
		}},
	}
}

// DefaultMaterialResource is the resource of the default-material sprim
// shown while the host's default-material display mode is on.
func DefaultMaterialResource(p scenepath.Path) renderindex.MaterialNetwork {
	return renderindex.MaterialNetwork{
		Terminal: p,
		Nodes: []renderindex.MaterialNode{{
			Identifier: ShaderPreviewSurface,
			Path:       p,
			Parameters: map[string]any{"diffuseColor": defaultGray},
		}},
	}
}

// PreviewMaterialResource is the resource answered for the fallback
// material and for unknown material paths.
func PreviewMaterialResource(p scenepath.Path) renderindex.MaterialNetwork {
	return renderindex.MaterialNetwork{
		Terminal: p,
		Nodes: []renderindex.MaterialNode{{
			Identifier: ShaderPreviewSurface,
			Path:       p,
			Parameters: map[string]any{"diffuseColor": previewColor},
		}},
	}
}
