package adapter

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// Camera adapts a host camera.
type Camera struct {
	dagBase
	viewport    mgl64.Vec4
	hasViewport bool
}

var _ CameraAdapter = (*Camera)(nil)

// NewCamera creates a camera adapter.
func NewCamera(ctx Context, id scenepath.Path, dag host.DagPath, e host.Entity) *Camera {
	return &Camera{dagBase: newDagBase(ctx, id, dag, e)}
}

// IsSupported implements Adapter.
func (c *Camera) IsSupported() bool {
	return c.entityValid() && c.ctx.Index().IsSprimTypeSupported(renderindex.PrimCamera)
}

// HasType implements Adapter.
func (c *Camera) HasType(t renderindex.PrimType) bool { return t == renderindex.PrimCamera }

// Populate implements Adapter.
func (c *Camera) Populate() { c.insertSprim(renderindex.PrimCamera) }

// CreateCallbacks implements Adapter.
func (c *Camera) CreateCallbacks() {
	c.createDagCallbacks(renderindex.DirtyTransform|renderindex.DirtyParams, func() {
		c.MarkDirty(renderindex.DirtyVisibility)
	})
	c.subscribe(host.EventParams, func() {
		c.MarkDirty(renderindex.DirtyParams)
	})
}

// SetViewport implements CameraAdapter.
func (c *Camera) SetViewport(viewport mgl64.Vec4) {
	if c.hasViewport && c.viewport == viewport {
		return
	}
	c.viewport = viewport
	c.hasViewport = true
	c.MarkDirty(renderindex.DirtyParams)
}

// CameraParamValue implements CameraAdapter.
func (c *Camera) CameraParamValue(key string) any {
	switch key {
	case renderindex.ParamFocalLength:
		return c.floatAttr(host.AttrFocalLength, 35.0)
	case renderindex.ParamViewport:
		if c.hasViewport {
			return c.viewport
		}
	case renderindex.ParamWorldToView:
		return c.Transform().Inv()
	}
	return nil
}

// Get implements Adapter.
func (c *Camera) Get(key string) any {
	return c.CameraParamValue(key)
}
