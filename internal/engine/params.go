package engine

import (
	"github.com/roach88/scenesync/internal/adapter"
	"github.com/roach88/scenesync/internal/config"
	"github.com/roach88/scenesync/internal/renderindex"
)

// SetParams replaces the synchronizer parameters and dirties whatever
// depends on the ones that changed. The root path and structural mode are
// fixed at construction; changes to them are ignored with a warning.
func (e *Engine) SetParams(p config.Params) {
	old := e.params
	if p.Root != old.Root || p.UseMeshAdapter != old.UseMeshAdapter {
		e.logger.Warn("root and mesh adapter mode cannot change after construction",
			"root", old.Root, "useMeshAdapter", old.UseMeshAdapter)
		p.Root = old.Root
		p.UseMeshAdapter = old.UseMeshAdapter
	}
	e.params = p

	if p.DisplaySmoothMeshes != old.DisplaySmoothMeshes {
		e.mapAdapters(func(a adapter.Adapter) {
			if a.HasType(renderindex.PrimMesh) || a.HasType(renderindex.PrimBasisCurves) || a.HasType(renderindex.PrimPoints) {
				a.MarkDirty(renderindex.DirtyTopology)
			}
		}, e.items)
		e.shapes.each(func(s adapter.ShapeAdapter) {
			if s.HasType(renderindex.PrimMesh) {
				s.MarkDirty(renderindex.DirtyTopology)
			}
		})
	}

	if p.MotionSampleStart != old.MotionSampleStart || p.MotionSampleEnd != old.MotionSampleEnd {
		e.items.each(func(ria *adapter.RenderItem) {
			ria.InvalidateTransform()
			ria.MarkDirty(renderindex.DirtyPoints | renderindex.DirtyTransform)
		})
		e.mapAdapters(func(a adapter.Adapter) {
			switch {
			case a.HasType(renderindex.PrimMesh):
				a.MarkDirty(renderindex.DirtyPoints)
			case a.HasType(renderindex.PrimCamera):
				a.MarkDirty(renderindex.DirtyParams)
			}
			a.InvalidateTransform()
			a.MarkDirty(renderindex.DirtyTransform)
		}, e.shapes, e.cameras, e.lights)
	}

	if p.TextureMemoryPerTexture != old.TextureMemoryPerTexture {
		e.materials.each(func(m adapter.MaterialAdapter) {
			m.MarkDirty(renderindex.AllDirty)
		})
	}

	if p.MaximumShadowMapResolution != old.MaximumShadowMapResolution {
		e.lights.each(func(l adapter.LightAdapter) {
			l.MarkDirty(renderindex.AllDirty)
		})
	}
}
