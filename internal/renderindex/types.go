package renderindex

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/scenesync/internal/scenepath"
)

// PrimType names a render-index primitive type.
type PrimType string

// Rprim types.
const (
	PrimMesh        PrimType = "mesh"
	PrimBasisCurves PrimType = "basisCurves"
	PrimPoints      PrimType = "points"
)

// Sprim types.
const (
	PrimCamera       PrimType = "camera"
	PrimMaterial     PrimType = "material"
	PrimDistantLight PrimType = "distantLight"
	PrimSphereLight  PrimType = "sphereLight"
	PrimRectLight    PrimType = "rectLight"
	PrimDiskLight    PrimType = "diskLight"
	PrimDomeLight    PrimType = "domeLight"
	PrimSimpleLight  PrimType = "simpleLight"
)

// IsLight reports whether t is one of the light sprim types.
func (t PrimType) IsLight() bool {
	switch t {
	case PrimDistantLight, PrimSphereLight, PrimRectLight, PrimDiskLight, PrimDomeLight, PrimSimpleLight:
		return true
	}
	return false
}

// DirtyBits marks which aspects of a primitive are stale.
type DirtyBits uint32

// Clean has no aspect marked.
const Clean DirtyBits = 0

const (
	DirtyTransform DirtyBits = 1 << iota
	DirtyVisibility
	DirtyMaterialID
	DirtyTopology
	DirtyPoints
	DirtyPrimvar
	DirtyInstancer
	DirtyInstanceIndex
	DirtyExtent
	DirtyDisplayStyle
	DirtyRenderTag
	DirtyDoubleSided
	DirtyCullStyle
	DirtyParams
	DirtyResource
)

// AllDirty marks every aspect.
const AllDirty DirtyBits = ^DirtyBits(0)

var dirtyNames = []struct {
	bit  DirtyBits
	name string
}{
	{DirtyTransform, "transform"},
	{DirtyVisibility, "visibility"},
	{DirtyMaterialID, "materialId"},
	{DirtyTopology, "topology"},
	{DirtyPoints, "points"},
	{DirtyPrimvar, "primvar"},
	{DirtyInstancer, "instancer"},
	{DirtyInstanceIndex, "instanceIndex"},
	{DirtyExtent, "extent"},
	{DirtyDisplayStyle, "displayStyle"},
	{DirtyRenderTag, "renderTag"},
	{DirtyDoubleSided, "doubleSided"},
	{DirtyCullStyle, "cullStyle"},
	{DirtyParams, "params"},
	{DirtyResource, "resource"},
}

// Names lists the set bits by name, in bit order.
func (b DirtyBits) Names() []string {
	if b == AllDirty {
		return []string{"all"}
	}
	var out []string
	for _, d := range dirtyNames {
		if b&d.bit != 0 {
			out = append(out, d.name)
		}
	}
	return out
}

// String implements fmt.Stringer.
func (b DirtyBits) String() string {
	if b == Clean {
		return "clean"
	}
	return strings.Join(b.Names(), "|")
}

// ParseDirtyBits parses a single bit name as produced by Names.
func ParseDirtyBits(name string) (DirtyBits, bool) {
	if name == "all" {
		return AllDirty, true
	}
	for _, d := range dirtyNames {
		if d.name == name {
			return d.bit, true
		}
	}
	return Clean, false
}

// Interpolation is a primvar interpolation mode.
type Interpolation string

const (
	InterpolationConstant    Interpolation = "constant"
	InterpolationUniform     Interpolation = "uniform"
	InterpolationVarying     Interpolation = "varying"
	InterpolationVertex      Interpolation = "vertex"
	InterpolationFaceVarying Interpolation = "faceVarying"
	InterpolationInstance    Interpolation = "instance"
)

// PrimvarDescriptor describes one primvar of a primitive.
type PrimvarDescriptor struct {
	Name          string
	Interpolation Interpolation
	Role          string
}

// MeshTopology is the face topology of a mesh. The zero value is empty.
type MeshTopology struct {
	Scheme            string
	FaceVertexCounts  []int
	FaceVertexIndices []int
}

// IsEmpty reports whether the topology has no faces.
func (t MeshTopology) IsEmpty() bool {
	return len(t.FaceVertexCounts) == 0
}

// CurvesTopology is the topology of basis curves.
type CurvesTopology struct {
	CurveType         string
	CurveVertexCounts []int
}

// SubdivTags holds subdivision surface tags.
type SubdivTags struct {
	VertexInterpolation string
	FaceVaryingInterp   string
}

// CullStyle controls back/front face culling.
type CullStyle string

const (
	CullDontCare CullStyle = "dontCare"
	CullNothing  CullStyle = "nothing"
	CullBack     CullStyle = "back"
	CullFront    CullStyle = "front"
)

// DisplayStyle controls refinement and display of an rprim.
type DisplayStyle struct {
	RefineLevel int
	Flat        bool
}

// Shading styles reported by Delegate.ShadingStyle.
const (
	ShadingStyleDefault          = ""
	ShadingStyleConstantLighting = "constantLighting"
)

// MaterialNode is one node of a material network.
type MaterialNode struct {
	Identifier string
	Path       scenepath.Path
	Parameters map[string]any
}

// MaterialNetwork is the opaque material resource produced by a material adapter.
type MaterialNetwork struct {
	Terminal scenepath.Path
	Nodes    []MaterialNode
}

// TimedMatrix is one motion sample of a transform.
type TimedMatrix struct {
	Time   float64
	Matrix mgl64.Mat4
}

// TimedValue is one motion sample of a primvar.
type TimedValue struct {
	Time  float64
	Value any
}
