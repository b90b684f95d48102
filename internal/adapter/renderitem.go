package adapter

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// RenderItem adapts one entry of the host's retained draw buffer.
//
// Render items are updated by deltas from viewport scene batches rather than
// by host subscriptions, so they own no callbacks.
type RenderItem struct {
	base
	dag               host.DagPath
	name              string
	fastID            int
	primitive         host.Primitive
	primType          renderindex.PrimType
	material          scenepath.Path
	transform         mgl64.Mat4
	geometry          host.Geometry
	visible           bool
	dependsOnPlayback bool
}

// UpdateData is one delta applied to a render item.
type UpdateData struct {
	Item  *host.RenderItem
	Flags host.ChangeFlags
}

// NewRenderItem creates a render-item adapter initialized from item.
func NewRenderItem(ctx Context, id scenepath.Path, item *host.RenderItem) *RenderItem {
	var e host.Entity
	if item.Source.Valid() {
		e, _ = ctx.Graph().EntityAt(item.Source)
	}
	return &RenderItem{
		base:              newBase(ctx, id, e),
		dag:               item.Source,
		name:              item.Name,
		fastID:            item.FastID,
		primitive:         item.Primitive,
		primType:          primTypeFor(item.Primitive),
		transform:         item.Matrix,
		geometry:          item.Geometry,
		visible:           item.Visible,
		dependsOnPlayback: item.DependsOnPlayback,
	}
}

func primTypeFor(p host.Primitive) renderindex.PrimType {
	switch p {
	case host.PrimitiveLines, host.PrimitiveLineStrip:
		return renderindex.PrimBasisCurves
	case host.PrimitivePoints:
		return renderindex.PrimPoints
	default:
		return renderindex.PrimMesh
	}
}

// IsSupported implements Adapter.
func (r *RenderItem) IsSupported() bool { return true }

// HasType implements Adapter.
func (r *RenderItem) HasType(t renderindex.PrimType) bool { return t == r.primType }

// Populate implements Adapter.
func (r *RenderItem) Populate() { r.insertRprim(r.primType) }

// CreateCallbacks implements Adapter.
func (r *RenderItem) CreateCallbacks() {}

// FastID returns the host's lightweight id for the item.
func (r *RenderItem) FastID() int { return r.fastID }

// Name returns the host item name.
func (r *RenderItem) Name() string { return r.name }

// DagPath returns the source location, which may be empty.
func (r *RenderItem) DagPath() host.DagPath { return r.dag }

// Primitive returns the draw primitive.
func (r *RenderItem) Primitive() host.Primitive { return r.primitive }

// Material returns the bound material path.
func (r *RenderItem) Material() scenepath.Path { return r.material }

// SetMaterial binds a material path.
func (r *RenderItem) SetMaterial(p scenepath.Path) {
	if r.material == p {
		return
	}
	r.material = p
	r.MarkDirty(renderindex.DirtyMaterialID)
}

// UpdateFromDelta applies the non-transform parts of a batch delta.
func (r *RenderItem) UpdateFromDelta(d UpdateData) {
	bits := renderindex.Clean
	item := d.Item
	if d.Flags&host.ChangedGeometry != 0 {
		r.geometry = item.Geometry
		bits |= renderindex.DirtyPoints | renderindex.DirtyExtent | renderindex.DirtyPrimvar
	}
	if d.Flags&host.ChangedTopology != 0 {
		r.geometry = item.Geometry
		bits |= renderindex.DirtyTopology
	}
	if d.Flags&host.ChangedVisibility != 0 && r.visible != item.Visible {
		r.visible = item.Visible
		bits |= renderindex.DirtyVisibility
	}
	r.dependsOnPlayback = item.DependsOnPlayback
	r.MarkDirty(bits)
}

// UpdateTransform takes the item's matrix.
func (r *RenderItem) UpdateTransform(item *host.RenderItem) {
	r.transform = item.Matrix
	r.MarkDirty(renderindex.DirtyTransform)
}

// SetPlaybackChanged dirties visibility of playback-dependent items.
func (r *RenderItem) SetPlaybackChanged() {
	if r.dependsOnPlayback {
		r.MarkDirty(renderindex.DirtyVisibility)
	}
}

// Transform implements Adapter.
func (r *RenderItem) Transform() mgl64.Mat4 { return r.transform }

// InvalidateTransform implements Adapter.
func (r *RenderItem) InvalidateTransform() {}

// Visible implements Adapter.
func (r *RenderItem) Visible() bool { return r.visible }

// Topology returns the face topology of a triangle item.
func (r *RenderItem) Topology() renderindex.MeshTopology {
	if r.primType != renderindex.PrimMesh {
		return renderindex.MeshTopology{}
	}
	return renderindex.MeshTopology{
		Scheme:            SchemeNone,
		FaceVertexCounts:  r.geometry.FaceVertexCounts,
		FaceVertexIndices: r.geometry.FaceVertexIndices,
	}
}

// BasisCurvesTopology returns the topology of a line item.
func (r *RenderItem) BasisCurvesTopology() renderindex.CurvesTopology {
	if r.primType != renderindex.PrimBasisCurves {
		return renderindex.CurvesTopology{}
	}
	counts := r.geometry.CurveVertexCounts
	if len(counts) == 0 && len(r.geometry.Points) > 0 {
		counts = []int{len(r.geometry.Points)}
	}
	curveType := "linear"
	if r.primitive == host.PrimitiveLines {
		curveType = "segmented"
	}
	return renderindex.CurvesTopology{CurveType: curveType, CurveVertexCounts: counts}
}

// Extent returns the bounds of the item's points.
func (r *RenderItem) Extent() host.Range3 { return r.geometry.Extent() }

// DoubleSided implements the shared shape queries.
func (r *RenderItem) DoubleSided() bool { return true }

// CullStyle implements the shared shape queries.
func (r *RenderItem) CullStyle() renderindex.CullStyle { return renderindex.CullDontCare }

// DisplayStyle implements the shared shape queries.
func (r *RenderItem) DisplayStyle() renderindex.DisplayStyle { return renderindex.DisplayStyle{} }

// RenderTag implements the shared shape queries.
func (r *RenderItem) RenderTag() string { return "geometry" }

// ShadingStyle reports constant lighting for line items.
func (r *RenderItem) ShadingStyle() string {
	if r.primitive.IsLine() {
		return renderindex.ShadingStyleConstantLighting
	}
	return renderindex.ShadingStyleDefault
}

// Get implements Adapter.
func (r *RenderItem) Get(key string) any {
	switch key {
	case PrimvarPoints:
		return r.geometry.Points
	case PrimvarDisplayColor:
		return defaultDisplayColor
	}
	return nil
}

// PrimvarDescriptors implements Adapter.
func (r *RenderItem) PrimvarDescriptors(interp renderindex.Interpolation) []renderindex.PrimvarDescriptor {
	switch interp {
	case renderindex.InterpolationVertex:
		return []renderindex.PrimvarDescriptor{{Name: PrimvarPoints, Interpolation: interp, Role: "point"}}
	case renderindex.InterpolationConstant:
		return []renderindex.PrimvarDescriptor{{Name: PrimvarDisplayColor, Interpolation: interp, Role: "color"}}
	}
	return nil
}
