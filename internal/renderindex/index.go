package renderindex

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/scenepath"
)

// Index is the narrow mutation and lookup surface of the render graph.
//
// Implementations report misuse (duplicate insert, unknown path) as errors;
// callers log them and continue.
type Index interface {
	InsertRprim(typ PrimType, d Delegate, p scenepath.Path) error
	InsertSprim(typ PrimType, d Delegate, p scenepath.Path) error
	// RemovePrim removes an rprim or sprim.
	RemovePrim(p scenepath.Path) error
	MarkDirty(p scenepath.Path, bits DirtyBits) error
	RprimIDs() []scenepath.Path
	Rprim(p scenepath.Path) (Rprim, bool)
	IsSprimTypeSupported(typ PrimType) bool
}

// Delegate is the pull-query surface the render graph calls during sync.
// Every method is total: unknown paths yield documented defaults.
type Delegate interface {
	Topology(p scenepath.Path) MeshTopology
	BasisCurvesTopology(p scenepath.Path) CurvesTopology
	SubdivTags(p scenepath.Path) SubdivTags
	Extent(p scenepath.Path) host.Range3
	Transform(p scenepath.Path) mgl64.Mat4
	SampleTransform(p scenepath.Path, maxSamples int) []TimedMatrix
	Visible(p scenepath.Path) bool
	DoubleSided(p scenepath.Path) bool
	CullStyle(p scenepath.Path) CullStyle
	DisplayStyle(p scenepath.Path) DisplayStyle
	ShadingStyle(p scenepath.Path) string
	RenderTag(p scenepath.Path) string
	Get(p scenepath.Path, key string) any
	SamplePrimvar(p scenepath.Path, key string, maxSamples int) []TimedValue
	PrimvarDescriptors(p scenepath.Path, interp Interpolation) []PrimvarDescriptor
	MaterialID(p scenepath.Path) scenepath.Path
	MaterialResource(p scenepath.Path) (MaterialNetwork, bool)
	LightParamValue(p scenepath.Path, key string) any
	CameraParamValue(p scenepath.Path, key string) any
	InstancerID(p scenepath.Path) scenepath.Path
	InstanceIndices(instancer, prototype scenepath.Path) []int
	InstancerTransform(instancer scenepath.Path) mgl64.Mat4
	InstancerPrototypes(instancer scenepath.Path) []scenepath.Path
	ScenePrimPath(rprim scenepath.Path, instanceIndex int) scenepath.Path
	IsEnabled(option string) bool
}

// Delegate options queried through IsEnabled.
const (
	OptionParallelRprimSync = "parallelRprimSync"
)

// Rprim is the render-index record of a drawable primitive, including the
// values cached by the last Sync.
type Rprim struct {
	Type       PrimType
	Path       scenepath.Path
	Dirty      DirtyBits
	Transform  mgl64.Mat4
	Visible    bool
	MaterialID scenepath.Path
	Topology   MeshTopology
	Curves     CurvesTopology
	Extent     host.Range3
	Instancer  scenepath.Path
	RenderTag  string
	Synced     bool
}

// Sprim is the render-index record of a state primitive.
type Sprim struct {
	Type   PrimType
	Path   scenepath.Path
	Dirty  DirtyBits
	Params map[string]any
	Synced bool
}
