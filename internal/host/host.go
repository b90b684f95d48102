package host

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// EntityID identifies a host entity for the lifetime of the host session.
type EntityID uint64

// Entity is a non-owning handle to a host scene-graph entity.
type Entity interface {
	ID() EntityID
	// Valid reports whether the handle still refers to a live entity.
	Valid() bool
	// TypeName is the host node type ("mesh", "pointLight", "transform", ...).
	TypeName() string
	// Name is the short node name.
	Name() string
}

// CallbackID identifies a host subscription.
type CallbackID uint64

// Event is a per-entity change notification kind.
type Event string

const (
	EventTransform   Event = "transform"
	EventVisibility  Event = "visibility"
	EventGeometry    Event = "geometry"
	EventShading     Event = "shading"
	EventParams      Event = "params"
	EventReparent    Event = "reparent"
	EventAboutDelete Event = "aboutToDelete"
)

// Well-known type and attribute names.
const (
	TypeTransform     = "transform"
	TypeShadingEngine = "shadingEngine"
	TypeObjectSet     = "objectSet"

	DefaultLightSet    = "defaultLightSet"
	PlugInstObjGroups  = "instObjGroups"
	PlugDagSetMembers  = "dagSetMembers"
	AttrTag            = "tag"
	AttrIntensity      = "intensity"
	AttrColor          = "color"
	AttrIntermediate   = "intermediateObject"
	AttrDependsOnPlay  = "dependsOnPlayback"
	AttrSubdivScheme   = "subdivisionScheme"
	AttrDoubleSided    = "doubleSided"
	AttrFocalLength    = "focalLength"
	AttrSkyDomeTexture = "texture"
	AttrShadow         = "shadow"
)

// Plug is one end of a host connection.
type Plug struct {
	Entity Entity
	Name   string
}

// DagPath is a '|' separated full path name from the world root
// ("|group1|cube1|cubeShape1"). Instanced entities have one DagPath per
// parent chain.
type DagPath string

// Valid reports whether p names a location.
func (p DagPath) Valid() bool {
	return strings.HasPrefix(string(p), "|") && len(p) > 1
}

// Leaf returns the last element.
func (p DagPath) Leaf() string {
	s := string(p)
	return s[strings.LastIndex(s, "|")+1:]
}

// Parent returns the parent location, or "" for top-level entities.
func (p DagPath) Parent() DagPath {
	s := string(p)
	idx := strings.LastIndex(s, "|")
	if idx <= 0 {
		return ""
	}
	return DagPath(s[:idx])
}

// Push returns the child location with the given name.
func (p DagPath) Push(name string) DagPath {
	return p + "|" + DagPath(name)
}

// String implements fmt.Stringer.
func (p DagPath) String() string { return string(p) }

// Geometry is the drawable data exposed by a shape or render item.
type Geometry struct {
	Points            []mgl64.Vec3
	FaceVertexCounts  []int
	FaceVertexIndices []int
	CurveVertexCounts []int
}

// Extent returns the axis-aligned bounds of the points.
func (g Geometry) Extent() Range3 {
	if len(g.Points) == 0 {
		return Range3{}
	}
	r := Range3{Min: g.Points[0], Max: g.Points[0]}
	for _, p := range g.Points[1:] {
		for i := 0; i < 3; i++ {
			r.Min[i] = min(r.Min[i], p[i])
			r.Max[i] = max(r.Max[i], p[i])
		}
	}
	return r
}

// Range3 is an axis-aligned box. The zero value is the empty extent.
type Range3 struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Graph is the host scene-graph surface the synchronizer consumes.
type Graph interface {
	// PathTo resolves the first live location of an entity.
	PathTo(e Entity) (DagPath, bool)
	// AllPathsTo returns every instance location of an entity.
	AllPathsTo(e Entity) []DagPath
	// EntityAt resolves a location back to its entity.
	EntityAt(p DagPath) (Entity, bool)
	Children(p DagPath) []DagPath
	// Walk visits every DAG location depth-first, parents before children.
	Walk(fn func(DagPath, Entity))
	IsTransform(p DagPath) bool
	IsIntermediate(p DagPath) bool
	// InstanceNumber is the index of p among its entity's locations.
	InstanceNumber(p DagPath) int
	// WorldMatrix is the inclusive world matrix of a location.
	WorldMatrix(p DagPath) mgl64.Mat4
	// Visible reports effective visibility including ancestors.
	Visible(p DagPath) bool
	// IlluminatesByDefault reports whether a light location's transform
	// belongs to the default light set.
	IlluminatesByDefault(p DagPath) bool
	// ShadingGroup returns the shading engine assigned to a location.
	ShadingGroup(p DagPath) (Entity, bool)
	Geometry(e Entity) Geometry
	Attribute(e Entity, name string) (any, bool)

	Subscribe(e Entity, ev Event, fn func()) CallbackID
	Unsubscribe(id CallbackID)
	OnNodeAdded(fn func(Entity)) CallbackID
	OnNodeRemoved(fn func(Entity)) CallbackID
	OnConnection(fn func(src, dst Plug, made bool)) CallbackID
}
