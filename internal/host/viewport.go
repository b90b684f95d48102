package host

import "github.com/go-gl/mathgl/mgl64"

// Primitive is the draw primitive of a render item.
type Primitive int

const (
	PrimitiveTriangles Primitive = iota
	PrimitiveLines
	PrimitiveLineStrip
	PrimitivePoints
)

// String implements fmt.Stringer.
func (p Primitive) String() string {
	switch p {
	case PrimitiveTriangles:
		return "triangles"
	case PrimitiveLines:
		return "lines"
	case PrimitiveLineStrip:
		return "lineStrip"
	case PrimitivePoints:
		return "points"
	default:
		return "unknown"
	}
}

// ParsePrimitive maps a name back to a Primitive. Unknown names are triangles.
func ParsePrimitive(s string) Primitive {
	switch s {
	case "lines":
		return PrimitiveLines
	case "lineStrip", "linestrip":
		return PrimitiveLineStrip
	case "points":
		return PrimitivePoints
	default:
		return PrimitiveTriangles
	}
}

// IsLine reports whether the primitive draws lines.
func (p Primitive) IsLine() bool {
	return p == PrimitiveLines || p == PrimitiveLineStrip
}

// ChangeFlags is the per-item change bitmask of a viewport scene batch.
type ChangeFlags uint32

const (
	ChangedEffect ChangeFlags = 1 << iota
	ChangedMatrix
	ChangedGeometry
	ChangedVisibility
	ChangedTopology
)

// InvalidFastID is never assigned to a render item.
const InvalidFastID = 0

// RenderItem is one entry of the host's retained draw buffer.
type RenderItem struct {
	FastID    int
	Name      string
	Source    DagPath
	Primitive Primitive
	// ShadingGroup is the shading engine matched to this item, or nil.
	ShadingGroup      Entity
	Matrix            mgl64.Mat4
	Geometry          Geometry
	Visible           bool
	DependsOnPlayback bool
}

// ViewportScene is a batched complete-viewport update. Items and Flags are
// parallel; Removals lists fast ids of items gone since the last batch.
type ViewportScene struct {
	Items           []*RenderItem
	Flags           []ChangeFlags
	Removals        []int
	PlaybackRunning bool
}

// DisplayStyle holds per-frame display toggles.
type DisplayStyle uint32

const (
	DisplayDefaultMaterial DisplayStyle = 1 << iota
	DisplayXRay
)

// ActiveLight is a light the host will draw with this frame.
type ActiveLight struct {
	Path      DagPath
	HasShadow bool
	// ShadowMatrix is the light's view-projection matrix when HasShadow is set.
	ShadowMatrix mgl64.Mat4
}

// DrawContext is the per-frame state handed to settle.
type DrawContext struct {
	Style  DisplayStyle
	Lights []ActiveLight
}
