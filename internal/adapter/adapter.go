package adapter

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/scenesync/internal/config"
	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// Kind is an adapter table kind.
type Kind int

const (
	KindShape Kind = iota + 1
	KindRenderItem
	KindCamera
	KindLight
	KindMaterial
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindShape:
		return "shape"
	case KindRenderItem:
		return "renderItem"
	case KindCamera:
		return "camera"
	case KindLight:
		return "light"
	case KindMaterial:
		return "material"
	default:
		return "unknown"
	}
}

// RebuildFlags select what a non-destructive rebuild redoes.
type RebuildFlags uint8

const (
	// RebuildCallbacks unsubscribes and resubscribes host callbacks.
	RebuildCallbacks RebuildFlags = 1 << iota
	// RebuildPrim drops and repopulates the render-index primitive.
	RebuildPrim
)

// Context is the synchronizer surface adapters call back into.
type Context interface {
	Graph() host.Graph
	Index() renderindex.Index
	Delegate() renderindex.Delegate
	Mapper() *scenepath.Mapper
	Params() config.Params
	Logger() *slog.Logger

	// RecreateAdapterOnIdle queues a destructive recreate of the adapter at id.
	RecreateAdapterOnIdle(id scenepath.Path, e host.Entity)
	// RebuildAdapterOnIdle queues a non-destructive rebuild of the adapter at id.
	RebuildAdapterOnIdle(id scenepath.Path, flags RebuildFlags)
	// MaterialTagChanged queues a tag recomputation for the material at id.
	MaterialTagChanged(id scenepath.Path)
}

// Adapter is the capability every adapter variant shares.
type Adapter interface {
	ID() scenepath.Path
	Entity() host.Entity
	// IsSupported is checked once after construction; unsupported adapters
	// are discarded before they reach a table.
	IsSupported() bool
	IsPopulated() bool
	Populate()
	RemovePrim()
	CreateCallbacks()
	RemoveCallbacks()
	CallbackCount() int
	MarkDirty(bits renderindex.DirtyBits)
	// DirtyBits is the union of bits marked since construction.
	DirtyBits() renderindex.DirtyBits
	HasType(t renderindex.PrimType) bool
	Get(key string) any
	Transform() mgl64.Mat4
	Visible() bool
	PrimvarDescriptors(interp renderindex.Interpolation) []renderindex.PrimvarDescriptor
	InvalidateTransform()
}

// ShapeAdapter represents a host mesh or curve shape.
type ShapeAdapter interface {
	Adapter
	DagPath() host.DagPath
	Topology() renderindex.MeshTopology
	BasisCurvesTopology() renderindex.CurvesTopology
	Extent() host.Range3
	SubdivTags() renderindex.SubdivTags
	DoubleSided() bool
	CullStyle() renderindex.CullStyle
	DisplayStyle() renderindex.DisplayStyle
	RenderTag() string
	IsInstanced() bool
	InstancerID() scenepath.Path
	InstanceIndices() []int
	InstancePrimvar(key string) any
	SampleTransform(maxSamples int) []renderindex.TimedMatrix
	SamplePrimvar(key string, maxSamples int) []renderindex.TimedValue
	// Material returns the shading engine bound to the shape.
	Material() (host.Entity, bool)
}

// LightAdapter represents a host light.
type LightAdapter interface {
	Adapter
	DagPath() host.DagPath
	LightParamValue(key string) any
	SetLightingOn(on bool)
	LightingOn() bool
	// UpdateVisibility recomputes visibility and reports whether it changed.
	UpdateVisibility() bool
	SetShadowProjectionMatrix(m mgl64.Mat4)
	SampleTransform(maxSamples int) []renderindex.TimedMatrix
}

// CameraAdapter represents a host camera.
type CameraAdapter interface {
	Adapter
	DagPath() host.DagPath
	CameraParamValue(key string) any
	SetViewport(viewport mgl64.Vec4)
	SampleTransform(maxSamples int) []renderindex.TimedMatrix
}

// MaterialAdapter represents a host shading engine.
type MaterialAdapter interface {
	Adapter
	MaterialResource() renderindex.MaterialNetwork
	Tag() string
	// UpdateMaterialTag recomputes the tag and reports whether it changed.
	UpdateMaterialTag() bool
	EnableXRayShadingMode(on bool)
}

// base carries the state common to every adapter.
type base struct {
	ctx       Context
	id        scenepath.Path
	entity    host.Entity
	callbacks []host.CallbackID
	populated bool
	dirty     renderindex.DirtyBits
}

func newBase(ctx Context, id scenepath.Path, e host.Entity) base {
	return base{ctx: ctx, id: id, entity: e}
}

// ID implements Adapter.
func (b *base) ID() scenepath.Path { return b.id }

// Entity implements Adapter.
func (b *base) Entity() host.Entity { return b.entity }

// IsPopulated implements Adapter.
func (b *base) IsPopulated() bool { return b.populated }

// CallbackCount implements Adapter.
func (b *base) CallbackCount() int { return len(b.callbacks) }

// DirtyBits implements Adapter.
func (b *base) DirtyBits() renderindex.DirtyBits { return b.dirty }

// Get implements Adapter.
func (b *base) Get(string) any { return nil }

// PrimvarDescriptors implements Adapter.
func (b *base) PrimvarDescriptors(renderindex.Interpolation) []renderindex.PrimvarDescriptor {
	return nil
}

func (b *base) entityValid() bool {
	return b.entity != nil && b.entity.Valid()
}

func (b *base) subscribe(ev host.Event, fn func()) {
	if !b.entityValid() {
		return
	}
	b.callbacks = append(b.callbacks, b.ctx.Graph().Subscribe(b.entity, ev, fn))
}

// RemoveCallbacks implements Adapter.
func (b *base) RemoveCallbacks() {
	g := b.ctx.Graph()
	for _, id := range b.callbacks {
		g.Unsubscribe(id)
	}
	b.callbacks = nil
}

// MarkDirty implements Adapter. Bits are dropped while the adapter has no
// primitive in the index.
func (b *base) MarkDirty(bits renderindex.DirtyBits) {
	if !b.populated || bits == renderindex.Clean {
		return
	}
	b.dirty |= bits
	if err := b.ctx.Index().MarkDirty(b.id, bits); err != nil {
		b.ctx.Logger().Warn("mark dirty failed", "path", b.id, "bits", bits, "error", err)
	}
}

func (b *base) insertRprim(t renderindex.PrimType) {
	if b.populated {
		return
	}
	if err := b.ctx.Index().InsertRprim(t, b.ctx.Delegate(), b.id); err != nil {
		b.ctx.Logger().Warn("insert rprim failed", "path", b.id, "type", t, "error", err)
		return
	}
	b.populated = true
}

func (b *base) insertSprim(t renderindex.PrimType) {
	if b.populated {
		return
	}
	if err := b.ctx.Index().InsertSprim(t, b.ctx.Delegate(), b.id); err != nil {
		b.ctx.Logger().Warn("insert sprim failed", "path", b.id, "type", t, "error", err)
		return
	}
	b.populated = true
}

// RemovePrim implements Adapter.
func (b *base) RemovePrim() {
	if !b.populated {
		return
	}
	if err := b.ctx.Index().RemovePrim(b.id); err != nil {
		b.ctx.Logger().Warn("remove prim failed", "path", b.id, "error", err)
	}
	b.populated = false
}

func (b *base) attr(name string) (any, bool) {
	if !b.entityValid() {
		return nil, false
	}
	return b.ctx.Graph().Attribute(b.entity, name)
}

func (b *base) floatAttr(name string, def float64) float64 {
	v, ok := b.attr(name)
	if !ok {
		return def
	}
	switch f := v.(type) {
	case float64:
		return f
	case float32:
		return float64(f)
	case int:
		return float64(f)
	}
	return def
}

func (b *base) vec3Attr(name string, def mgl64.Vec3) mgl64.Vec3 {
	v, ok := b.attr(name)
	if !ok {
		return def
	}
	switch c := v.(type) {
	case mgl64.Vec3:
		return c
	case []float64:
		if len(c) == 3 {
			return mgl64.Vec3{c[0], c[1], c[2]}
		}
	}
	return def
}

func (b *base) boolAttr(name string, def bool) bool {
	if v, ok := b.attr(name); ok {
		if bv, ok := v.(bool); ok {
			return bv
		}
	}
	return def
}

func (b *base) stringAttr(name string) string {
	if v, ok := b.attr(name); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// sampleTimes returns the motion sample times for the current params.
func sampleTimes(p config.Params, maxSamples int) []float64 {
	if maxSamples <= 0 {
		return nil
	}
	if !p.HasMotionBlur() || maxSamples == 1 {
		return []float64{0}
	}
	return []float64{p.MotionSampleStart, p.MotionSampleEnd}
}
