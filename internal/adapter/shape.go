package adapter

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// Primvar names.
const (
	PrimvarPoints            = "points"
	PrimvarDisplayColor      = "displayColor"
	PrimvarInstanceTransform = "instanceTransform"
)

// Property name of the instancer of an instanced shape.
const instancerProperty = "instancer"

// Subdivision schemes.
const (
	SchemeNone         = "none"
	SchemeCatmullClark = "catmullClark"
)

var defaultDisplayColor = mgl64.Vec3{0.8, 0.8, 0.8}

// Shape adapts a mesh or curve shape.
type Shape struct {
	dagBase
	primType  renderindex.PrimType
	instanced bool
}

var _ ShapeAdapter = (*Shape)(nil)

// NewShape creates a shape adapter drawn as primType.
func NewShape(ctx Context, id scenepath.Path, dag host.DagPath, e host.Entity, primType renderindex.PrimType) *Shape {
	s := &Shape{dagBase: newDagBase(ctx, id, dag, e), primType: primType}
	s.instanced = len(s.instancePaths()) > 1
	return s
}

// IsSupported implements Adapter. Intermediate objects are never drawn.
func (s *Shape) IsSupported() bool {
	return s.entityValid() && s.primType != "" && !s.ctx.Graph().IsIntermediate(s.dag)
}

// HasType implements Adapter.
func (s *Shape) HasType(t renderindex.PrimType) bool { return t == s.primType }

// Populate implements Adapter.
func (s *Shape) Populate() { s.insertRprim(s.primType) }

// CreateCallbacks implements Adapter.
func (s *Shape) CreateCallbacks() {
	s.createDagCallbacks(renderindex.DirtyTransform, func() {
		s.MarkDirty(renderindex.DirtyVisibility)
	})
	s.subscribe(host.EventGeometry, func() {
		s.MarkDirty(renderindex.DirtyPoints | renderindex.DirtyExtent |
			renderindex.DirtyTopology | renderindex.DirtyPrimvar)
	})
	s.subscribe(host.EventShading, func() {
		s.MarkDirty(renderindex.DirtyMaterialID)
	})
	s.subscribe(host.EventParams, func() {
		s.MarkDirty(renderindex.DirtyDisplayStyle | renderindex.DirtyDoubleSided)
	})
}

func (s *Shape) geometry() host.Geometry {
	if !s.entityValid() {
		return host.Geometry{}
	}
	return s.ctx.Graph().Geometry(s.entity)
}

// Topology returns the face topology of a mesh shape.
func (s *Shape) Topology() renderindex.MeshTopology {
	if s.primType != renderindex.PrimMesh {
		return renderindex.MeshTopology{}
	}
	g := s.geometry()
	scheme := s.stringAttr(host.AttrSubdivScheme)
	if scheme == "" {
		scheme = SchemeNone
		if s.ctx.Params().DisplaySmoothMeshes {
			scheme = SchemeCatmullClark
		}
	}
	return renderindex.MeshTopology{
		Scheme:            scheme,
		FaceVertexCounts:  g.FaceVertexCounts,
		FaceVertexIndices: g.FaceVertexIndices,
	}
}

// BasisCurvesTopology returns the topology of a curve shape.
func (s *Shape) BasisCurvesTopology() renderindex.CurvesTopology {
	if s.primType != renderindex.PrimBasisCurves {
		return renderindex.CurvesTopology{}
	}
	g := s.geometry()
	counts := g.CurveVertexCounts
	if len(counts) == 0 && len(g.Points) > 0 {
		counts = []int{len(g.Points)}
	}
	return renderindex.CurvesTopology{CurveType: "cubic", CurveVertexCounts: counts}
}

// Extent returns the object-space bounds.
func (s *Shape) Extent() host.Range3 { return s.geometry().Extent() }

// SubdivTags returns the subdivision tags of a mesh shape.
func (s *Shape) SubdivTags() renderindex.SubdivTags {
	if s.primType != renderindex.PrimMesh {
		return renderindex.SubdivTags{}
	}
	return renderindex.SubdivTags{VertexInterpolation: "edgeAndCorner", FaceVaryingInterp: "cornersPlus1"}
}

// DoubleSided defaults to true.
func (s *Shape) DoubleSided() bool { return s.boolAttr(host.AttrDoubleSided, true) }

// CullStyle implements ShapeAdapter.
func (s *Shape) CullStyle() renderindex.CullStyle { return renderindex.CullDontCare }

// DisplayStyle implements ShapeAdapter.
func (s *Shape) DisplayStyle() renderindex.DisplayStyle {
	if s.ctx.Params().DisplaySmoothMeshes {
		return renderindex.DisplayStyle{RefineLevel: 2}
	}
	return renderindex.DisplayStyle{}
}

// RenderTag implements ShapeAdapter.
func (s *Shape) RenderTag() string { return "geometry" }

// Get implements Adapter.
func (s *Shape) Get(key string) any {
	switch key {
	case PrimvarPoints:
		return s.geometry().Points
	case PrimvarDisplayColor:
		return defaultDisplayColor
	}
	return nil
}

// PrimvarDescriptors implements Adapter.
func (s *Shape) PrimvarDescriptors(interp renderindex.Interpolation) []renderindex.PrimvarDescriptor {
	switch interp {
	case renderindex.InterpolationVertex:
		return []renderindex.PrimvarDescriptor{{Name: PrimvarPoints, Interpolation: interp, Role: "point"}}
	case renderindex.InterpolationConstant:
		return []renderindex.PrimvarDescriptor{{Name: PrimvarDisplayColor, Interpolation: interp, Role: "color"}}
	case renderindex.InterpolationInstance:
		if s.IsInstanced() {
			return []renderindex.PrimvarDescriptor{{Name: PrimvarInstanceTransform, Interpolation: interp}}
		}
	}
	return nil
}

// Transform implements Adapter. Instanced shapes carry their placement in
// the instance transforms, so the prototype itself is untransformed.
func (s *Shape) Transform() mgl64.Mat4 {
	if s.IsInstanced() {
		return mgl64.Ident4()
	}
	return s.dagBase.Transform()
}

// SampleTransform implements ShapeAdapter.
func (s *Shape) SampleTransform(maxSamples int) []renderindex.TimedMatrix {
	times := sampleTimes(s.ctx.Params(), maxSamples)
	out := make([]renderindex.TimedMatrix, len(times))
	m := s.Transform()
	for i, t := range times {
		out[i] = renderindex.TimedMatrix{Time: t, Matrix: m}
	}
	return out
}

// SamplePrimvar implements ShapeAdapter.
func (s *Shape) SamplePrimvar(key string, maxSamples int) []renderindex.TimedValue {
	times := sampleTimes(s.ctx.Params(), maxSamples)
	out := make([]renderindex.TimedValue, len(times))
	v := s.Get(key)
	for i, t := range times {
		out[i] = renderindex.TimedValue{Time: t, Value: v}
	}
	return out
}

func (s *Shape) instancePaths() []host.DagPath {
	if !s.entityValid() {
		return nil
	}
	return s.ctx.Graph().AllPathsTo(s.entity)
}

// IsInstanced reports whether the shape had more than one location when
// the adapter was created. Gaining or losing instances needs a recreate.
func (s *Shape) IsInstanced() bool { return s.instanced }

// InstancerID returns the instancer path, or Empty when not instanced.
func (s *Shape) InstancerID() scenepath.Path {
	if !s.IsInstanced() {
		return scenepath.Empty
	}
	return s.id.AppendProperty(instancerProperty)
}

// InstanceIndices returns one index per instance location.
func (s *Shape) InstanceIndices() []int {
	paths := s.instancePaths()
	if len(paths) < 2 {
		return nil
	}
	out := make([]int, len(paths))
	for i := range out {
		out[i] = i
	}
	return out
}

// InstancePrimvar returns per-instance data.
func (s *Shape) InstancePrimvar(key string) any {
	if key != PrimvarInstanceTransform {
		return nil
	}
	paths := s.instancePaths()
	if len(paths) < 2 {
		return nil
	}
	out := make([]mgl64.Mat4, len(paths))
	for i, p := range paths {
		out[i] = s.ctx.Graph().WorldMatrix(p)
	}
	return out
}

// Material implements ShapeAdapter.
func (s *Shape) Material() (host.Entity, bool) {
	if !s.entityValid() {
		return nil, false
	}
	return s.ctx.Graph().ShadingGroup(s.dag)
}
