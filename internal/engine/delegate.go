package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/scenesync/internal/adapter"
	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// Capabilities shared by shapes and render items.
type (
	topologySource interface {
		Topology() renderindex.MeshTopology
	}
	curvesSource interface {
		BasisCurvesTopology() renderindex.CurvesTopology
	}
	doubleSidedSource  interface{ DoubleSided() bool }
	cullStyleSource    interface{ CullStyle() renderindex.CullStyle }
	displayStyleSource interface {
		DisplayStyle() renderindex.DisplayStyle
	}
	renderTagSource      interface{ RenderTag() string }
	shadingStyleSource   interface{ ShadingStyle() string }
	sampleTransformOwner interface {
		SampleTransform(maxSamples int) []renderindex.TimedMatrix
	}
	instanceIndexSource interface{ InstanceIndices() []int }
)

func (e *Engine) shapeTables() []adapterTable {
	return []adapterTable{e.shapes, e.items}
}

// Topology implements renderindex.Delegate.
func (e *Engine) Topology(p scenepath.Path) renderindex.MeshTopology {
	return getValue(p, renderindex.MeshTopology{}, via(topologySource.Topology), e.shapeTables()...)
}

// BasisCurvesTopology implements renderindex.Delegate.
func (e *Engine) BasisCurvesTopology(p scenepath.Path) renderindex.CurvesTopology {
	return getValue(p, renderindex.CurvesTopology{}, via(curvesSource.BasisCurvesTopology), e.shapeTables()...)
}

// SubdivTags implements renderindex.Delegate.
func (e *Engine) SubdivTags(p scenepath.Path) renderindex.SubdivTags {
	return getValue(p, renderindex.SubdivTags{}, via(adapter.ShapeAdapter.SubdivTags), e.shapes)
}

// Extent implements renderindex.Delegate.
func (e *Engine) Extent(p scenepath.Path) host.Range3 {
	return getValue(p, host.Range3{}, via(adapter.ShapeAdapter.Extent), e.shapes)
}

// Transform implements renderindex.Delegate.
func (e *Engine) Transform(p scenepath.Path) mgl64.Mat4 {
	return getValue(p, mgl64.Ident4(), func(a adapter.Adapter) (mgl64.Mat4, bool) {
		return a.Transform(), true
	}, e.shapes, e.items, e.cameras, e.lights)
}

// SampleTransform implements renderindex.Delegate.
func (e *Engine) SampleTransform(p scenepath.Path, maxSamples int) []renderindex.TimedMatrix {
	return getValue[[]renderindex.TimedMatrix](p, nil, func(a adapter.Adapter) ([]renderindex.TimedMatrix, bool) {
		s, ok := a.(sampleTransformOwner)
		if !ok {
			return nil, false
		}
		return s.SampleTransform(maxSamples), true
	}, e.shapes, e.cameras, e.lights)
}

// Visible implements renderindex.Delegate.
func (e *Engine) Visible(p scenepath.Path) bool {
	return getValue(p, false, func(a adapter.Adapter) (bool, bool) {
		return a.Visible(), true
	}, e.shapes, e.items, e.lights)
}

// DoubleSided implements renderindex.Delegate.
func (e *Engine) DoubleSided(p scenepath.Path) bool {
	return getValue(p, false, via(doubleSidedSource.DoubleSided), e.shapeTables()...)
}

// CullStyle implements renderindex.Delegate.
func (e *Engine) CullStyle(p scenepath.Path) renderindex.CullStyle {
	return getValue(p, renderindex.CullDontCare, via(cullStyleSource.CullStyle), e.shapeTables()...)
}

// DisplayStyle implements renderindex.Delegate.
func (e *Engine) DisplayStyle(p scenepath.Path) renderindex.DisplayStyle {
	return getValue(p, renderindex.DisplayStyle{}, via(displayStyleSource.DisplayStyle), e.shapeTables()...)
}

// ShadingStyle implements renderindex.Delegate.
func (e *Engine) ShadingStyle(p scenepath.Path) string {
	return getValue(p, renderindex.ShadingStyleDefault, via(shadingStyleSource.ShadingStyle), e.items)
}

// RenderTag implements renderindex.Delegate.
func (e *Engine) RenderTag(p scenepath.Path) string {
	return getValue(p.PrimPath(), "", via(renderTagSource.RenderTag), e.shapeTables()...)
}

// Get implements renderindex.Delegate. In structural mode a property path
// names an instance primvar of the shape it belongs to.
func (e *Engine) Get(p scenepath.Path, key string) any {
	if e.isStructural() && p.IsPropertyPath() {
		return getValue[any](p.PrimPath(), nil, func(a adapter.Adapter) (any, bool) {
			s, ok := a.(adapter.ShapeAdapter)
			if !ok {
				return nil, false
			}
			return s.InstancePrimvar(key), true
		}, e.shapes)
	}
	return getValue[any](p, nil, func(a adapter.Adapter) (any, bool) {
		return a.Get(key), true
	}, e.shapes, e.items, e.cameras, e.lights, e.materials)
}

// SamplePrimvar implements renderindex.Delegate.
func (e *Engine) SamplePrimvar(p scenepath.Path, key string, maxSamples int) []renderindex.TimedValue {
	if maxSamples < 1 {
		return nil
	}
	if !e.isStructural() || p.IsPropertyPath() {
		if v := e.Get(p, key); v != nil {
			return []renderindex.TimedValue{{Time: 0, Value: v}}
		}
		return nil
	}
	s, ok := e.shapes.get(p)
	if !ok {
		return nil
	}
	return s.SamplePrimvar(key, maxSamples)
}

// PrimvarDescriptors implements renderindex.Delegate.
func (e *Engine) PrimvarDescriptors(p scenepath.Path, interp renderindex.Interpolation) []renderindex.PrimvarDescriptor {
	if e.isStructural() && p.IsPropertyPath() {
		if interp != renderindex.InterpolationInstance {
			return nil
		}
		s, ok := e.shapes.get(p.PrimPath())
		if !ok {
			return nil
		}
		return s.PrimvarDescriptors(interp)
	}
	return getValue[[]renderindex.PrimvarDescriptor](p, nil, func(a adapter.Adapter) ([]renderindex.PrimvarDescriptor, bool) {
		return a.PrimvarDescriptors(interp), true
	}, e.shapeTables()...)
}

// MaterialID implements renderindex.Delegate.
//
// The default material wins while default-material mode is on. A render
// item answers its own binding, with line items and unknown bindings on
// the fallback. In structural mode a shape's shading engine gets its
// material adapter on first request.
func (e *Engine) MaterialID(p scenepath.Path) scenepath.Path {
	if e.useDefaultMaterial {
		return DefaultMaterialPath
	}
	if ria, ok := e.items.get(p); ok {
		if ria.Primitive().IsLine() {
			return FallbackMaterial
		}
		if m := ria.Material(); !m.IsEmpty() && e.materials.has(m) {
			return m
		}
		return FallbackMaterial
	}
	if !e.isStructural() {
		return FallbackMaterial
	}
	s, ok := e.shapes.get(p)
	if !ok {
		return FallbackMaterial
	}
	sg, ok := s.Material()
	if !ok {
		return FallbackMaterial
	}
	if id, ok := e.ensureMaterial(sg); ok {
		return id
	}
	return FallbackMaterial
}

// MaterialResource implements renderindex.Delegate. The default and
// fallback materials have built-in networks; an unknown path gets the
// preview network.
func (e *Engine) MaterialResource(p scenepath.Path) (renderindex.MaterialNetwork, bool) {
	switch {
	case p == DefaultMaterialPath:
		return adapter.DefaultMaterialResource(p), true
	case p == FallbackMaterial:
		return adapter.PreviewMaterialResource(p), true
	}
	if m, ok := e.materials.get(p); ok {
		return m.MaterialResource(), true
	}
	return adapter.PreviewMaterialResource(p), true
}

// LightParamValue implements renderindex.Delegate.
func (e *Engine) LightParamValue(p scenepath.Path, key string) any {
	return getValue[any](p, nil, func(a adapter.Adapter) (any, bool) {
		l, ok := a.(adapter.LightAdapter)
		if !ok {
			return nil, false
		}
		return l.LightParamValue(key), true
	}, e.lights)
}

// CameraParamValue implements renderindex.Delegate.
func (e *Engine) CameraParamValue(p scenepath.Path, key string) any {
	return getValue[any](p, nil, func(a adapter.Adapter) (any, bool) {
		c, ok := a.(adapter.CameraAdapter)
		if !ok {
			return nil, false
		}
		return c.CameraParamValue(key), true
	}, e.cameras)
}

// InstancerID implements renderindex.Delegate.
func (e *Engine) InstancerID(p scenepath.Path) scenepath.Path {
	if p.IsPropertyPath() {
		return scenepath.Empty
	}
	return getValue(p, scenepath.Empty, via(adapter.ShapeAdapter.InstancerID), e.shapes)
}

// InstanceIndices implements renderindex.Delegate. The instancer is a
// property of its shape, so the shape is found through its prim path.
func (e *Engine) InstanceIndices(instancer, _ scenepath.Path) []int {
	return getValue(instancer.PrimPath(), []int(nil), via(instanceIndexSource.InstanceIndices), e.shapes)
}

// InstancerTransform implements renderindex.Delegate. Instance transforms
// carry the full world matrix, so the instancer itself is at identity.
func (e *Engine) InstancerTransform(scenepath.Path) mgl64.Mat4 {
	return mgl64.Ident4()
}

// InstancerPrototypes implements renderindex.Delegate.
func (e *Engine) InstancerPrototypes(instancer scenepath.Path) []scenepath.Path {
	return []scenepath.Path{instancer.PrimPath()}
}

// ScenePrimPath implements renderindex.Delegate.
func (e *Engine) ScenePrimPath(rprim scenepath.Path, _ int) scenepath.Path {
	return rprim
}

// IsEnabled implements renderindex.Delegate. Parallel rprim sync is off:
// queries may create material adapters.
func (e *Engine) IsEnabled(option string) bool {
	if option != renderindex.OptionParallelRprimSync {
		e.logger.Debug("unknown delegate option", "option", option)
	}
	return false
}
