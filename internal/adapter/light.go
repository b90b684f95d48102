package adapter

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// Light adapts a host light. The light sprim only exists while the light
// is visible and illuminates by default.
type Light struct {
	dagBase
	primType   renderindex.PrimType
	visible    bool
	lightingOn bool
	hasShadow  bool
	shadow     mgl64.Mat4
}

var _ LightAdapter = (*Light)(nil)

// NewLight creates a light adapter. When the render index does not support
// primType but supports simple lights, the light falls back to a simple light.
func NewLight(ctx Context, id scenepath.Path, dag host.DagPath, e host.Entity, primType renderindex.PrimType) *Light {
	idx := ctx.Index()
	if !idx.IsSprimTypeSupported(primType) && idx.IsSprimTypeSupported(renderindex.PrimSimpleLight) {
		primType = renderindex.PrimSimpleLight
	}
	l := &Light{dagBase: newDagBase(ctx, id, dag, e), primType: primType, lightingOn: true}
	l.visible = l.computeVisible()
	return l
}

// IsSupported implements Adapter.
func (l *Light) IsSupported() bool {
	return l.entityValid() && l.ctx.Index().IsSprimTypeSupported(l.primType)
}

// HasType implements Adapter.
func (l *Light) HasType(t renderindex.PrimType) bool { return t == l.primType }

// Populate implements Adapter.
func (l *Light) Populate() {
	if l.populated {
		return
	}
	l.visible = l.computeVisible()
	if !l.visible {
		return
	}
	l.insertSprim(l.primType)
}

// CreateCallbacks implements Adapter.
func (l *Light) CreateCallbacks() {
	l.createDagCallbacks(renderindex.DirtyTransform|renderindex.DirtyParams, func() {
		l.ctx.RebuildAdapterOnIdle(l.id, RebuildPrim)
	})
	l.subscribe(host.EventParams, func() {
		l.MarkDirty(renderindex.DirtyParams)
	})
}

func (l *Light) computeVisible() bool {
	if !l.entityValid() {
		return false
	}
	g := l.ctx.Graph()
	return g.Visible(l.dag) && g.IlluminatesByDefault(l.dag)
}

// Visible implements Adapter.
func (l *Light) Visible() bool { return l.visible }

// UpdateVisibility implements LightAdapter.
func (l *Light) UpdateVisibility() bool {
	v := l.computeVisible()
	if v == l.visible {
		return false
	}
	l.visible = v
	return true
}

// SetLightingOn implements LightAdapter.
func (l *Light) SetLightingOn(on bool) {
	if l.lightingOn == on {
		return
	}
	l.lightingOn = on
	l.MarkDirty(renderindex.DirtyParams)
}

// LightingOn implements LightAdapter.
func (l *Light) LightingOn() bool { return l.lightingOn }

// SetShadowProjectionMatrix implements LightAdapter.
func (l *Light) SetShadowProjectionMatrix(m mgl64.Mat4) {
	if l.hasShadow && l.shadow.ApproxEqual(m) {
		return
	}
	l.hasShadow = true
	l.shadow = m
	l.MarkDirty(renderindex.DirtyParams)
}

// LightParamValue implements LightAdapter.
func (l *Light) LightParamValue(key string) any {
	switch key {
	case renderindex.ParamIntensity:
		return l.floatAttr(host.AttrIntensity, 1.0)
	case renderindex.ParamColor:
		return l.vec3Attr(host.AttrColor, mgl64.Vec3{1, 1, 1})
	case renderindex.ParamLighting:
		return l.lightingOn
	case renderindex.ParamShadowMatrix:
		if l.hasShadow {
			return l.shadow
		}
	case host.AttrSkyDomeTexture:
		if s := l.stringAttr(host.AttrSkyDomeTexture); s != "" {
			return s
		}
	}
	return nil
}

// Get implements Adapter.
func (l *Light) Get(key string) any {
	if key == "transform" {
		return l.Transform()
	}
	return l.LightParamValue(key)
}
