package renderindex

import (
	"fmt"
	"maps"

	"cogentcore.org/core/base/ordmap"

	"github.com/roach88/scenesync/internal/scenepath"
)

// Parameter keys pulled for sprims during Sync.
const (
	ParamIntensity    = "intensity"
	ParamColor        = "color"
	ParamLighting     = "lighting"
	ParamShadowMatrix = "shadowMatrix"
	ParamFocalLength  = "focalLength"
	ParamViewport     = "viewport"
	ParamWorldToView  = "worldToView"
	ParamResource     = "resource"
)

var (
	lightParamKeys  = []string{ParamIntensity, ParamColor, ParamLighting, ParamShadowMatrix}
	cameraParamKeys = []string{ParamFocalLength, ParamViewport, ParamWorldToView}
)

// Stats counts mutations applied to a Memory index.
type Stats struct {
	Inserts   int
	Removes   int
	MarkDirty int
	// Stray counts rejected operations: duplicate inserts and removals or
	// dirty marks for unknown paths.
	Stray int
}

type rprimEntry struct {
	Rprim
	delegate Delegate
}

type sprimEntry struct {
	Sprim
	delegate Delegate
}

// Memory is an in-memory Index. It is not safe for concurrent use.
type Memory struct {
	rprims    *ordmap.Map[scenepath.Path, *rprimEntry]
	sprims    *ordmap.Map[scenepath.Path, *sprimEntry]
	supported map[PrimType]bool
	stats     Stats
}

// MemoryOption configures a Memory index.
type MemoryOption func(*Memory)

// WithSprimTypes restricts the supported sprim types. By default every
// sprim type is supported.
func WithSprimTypes(types ...PrimType) MemoryOption {
	return func(m *Memory) {
		m.supported = make(map[PrimType]bool, len(types))
		for _, t := range types {
			m.supported[t] = true
		}
	}
}

// NewMemory creates an empty in-memory index.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		rprims: ordmap.New[scenepath.Path, *rprimEntry](),
		sprims: ordmap.New[scenepath.Path, *sprimEntry](),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InsertRprim implements Index.
func (m *Memory) InsertRprim(typ PrimType, d Delegate, p scenepath.Path) error {
	if p.IsEmpty() {
		m.stats.Stray++
		return fmt.Errorf("insert rprim: empty path")
	}
	if m.has(p) {
		m.stats.Stray++
		return fmt.Errorf("insert rprim %s: already present", p)
	}
	m.rprims.Add(p, &rprimEntry{
		Rprim:    Rprim{Type: typ, Path: p, Dirty: AllDirty},
		delegate: d,
	})
	m.stats.Inserts++
	return nil
}

// InsertSprim implements Index.
func (m *Memory) InsertSprim(typ PrimType, d Delegate, p scenepath.Path) error {
	if !m.IsSprimTypeSupported(typ) {
		m.stats.Stray++
		return fmt.Errorf("insert sprim %s: type %q not supported", p, typ)
	}
	if p.IsEmpty() {
		m.stats.Stray++
		return fmt.Errorf("insert sprim: empty path")
	}
	if m.has(p) {
		m.stats.Stray++
		return fmt.Errorf("insert sprim %s: already present", p)
	}
	m.sprims.Add(p, &sprimEntry{
		Sprim:    Sprim{Type: typ, Path: p, Dirty: AllDirty},
		delegate: d,
	})
	m.stats.Inserts++
	return nil
}

// RemovePrim implements Index.
func (m *Memory) RemovePrim(p scenepath.Path) error {
	if m.rprims.DeleteKey(p) || m.sprims.DeleteKey(p) {
		m.stats.Removes++
		return nil
	}
	m.stats.Stray++
	return fmt.Errorf("remove prim %s: not present", p)
}

// MarkDirty implements Index.
func (m *Memory) MarkDirty(p scenepath.Path, bits DirtyBits) error {
	if r, ok := m.rprims.ValueByKeyTry(p); ok {
		r.Dirty |= bits
		m.stats.MarkDirty++
		return nil
	}
	if s, ok := m.sprims.ValueByKeyTry(p); ok {
		s.Dirty |= bits
		m.stats.MarkDirty++
		return nil
	}
	m.stats.Stray++
	return fmt.Errorf("mark dirty %s: not present", p)
}

// RprimIDs implements Index. Paths are returned in insertion order.
func (m *Memory) RprimIDs() []scenepath.Path {
	return m.rprims.Keys()
}

// Rprim implements Index.
func (m *Memory) Rprim(p scenepath.Path) (Rprim, bool) {
	r, ok := m.rprims.ValueByKeyTry(p)
	if !ok {
		return Rprim{}, false
	}
	return r.Rprim, true
}

// SprimIDs returns sprim paths in insertion order.
func (m *Memory) SprimIDs() []scenepath.Path {
	return m.sprims.Keys()
}

// Sprim returns a copy of the sprim record at p.
func (m *Memory) Sprim(p scenepath.Path) (Sprim, bool) {
	s, ok := m.sprims.ValueByKeyTry(p)
	if !ok {
		return Sprim{}, false
	}
	out := s.Sprim
	out.Params = maps.Clone(s.Params)
	return out, true
}

// IsSprimTypeSupported implements Index.
func (m *Memory) IsSprimTypeSupported(typ PrimType) bool {
	if m.supported == nil {
		return true
	}
	return m.supported[typ]
}

// Stats returns the mutation counters.
func (m *Memory) Stats() Stats {
	return m.stats
}

func (m *Memory) has(p scenepath.Path) bool {
	_, r := m.rprims.ValueByKeyTry(p)
	_, s := m.sprims.ValueByKeyTry(p)
	return r || s
}

// Sync pulls every dirty aspect from the owning delegates and clears the
// dirty bits. It returns the number of primitives synced.
func (m *Memory) Sync() int {
	n := 0
	for _, kv := range m.sprims.Order {
		if kv.Value.Dirty != Clean {
			m.syncSprim(kv.Value)
			n++
		}
	}
	for _, kv := range m.rprims.Order {
		if kv.Value.Dirty != Clean {
			m.syncRprim(kv.Value)
			n++
		}
	}
	return n
}

func (m *Memory) syncRprim(r *rprimEntry) {
	d, p, bits := r.delegate, r.Path, r.Dirty
	if bits&DirtyTransform != 0 {
		r.Transform = d.Transform(p)
	}
	if bits&DirtyVisibility != 0 {
		r.Visible = d.Visible(p)
	}
	if bits&DirtyMaterialID != 0 {
		r.MaterialID = d.MaterialID(p)
	}
	if bits&DirtyTopology != 0 {
		switch r.Type {
		case PrimBasisCurves:
			r.Curves = d.BasisCurvesTopology(p)
		default:
			r.Topology = d.Topology(p)
		}
	}
	if bits&(DirtyPoints|DirtyExtent) != 0 {
		r.Extent = d.Extent(p)
	}
	if bits&DirtyInstancer != 0 {
		r.Instancer = d.InstancerID(p)
	}
	if bits&DirtyRenderTag != 0 {
		r.RenderTag = d.RenderTag(p)
	}
	r.Dirty = Clean
	r.Synced = true
}

func (m *Memory) syncSprim(s *sprimEntry) {
	d, p := s.delegate, s.Path
	if s.Params == nil {
		s.Params = make(map[string]any)
	}
	switch {
	case s.Type.IsLight():
		for _, key := range lightParamKeys {
			setParam(s.Params, key, d.LightParamValue(p, key))
		}
	case s.Type == PrimCamera:
		for _, key := range cameraParamKeys {
			setParam(s.Params, key, d.CameraParamValue(p, key))
		}
	case s.Type == PrimMaterial:
		if res, ok := d.MaterialResource(p); ok {
			s.Params[ParamResource] = res
		} else {
			delete(s.Params, ParamResource)
		}
	}
	s.Dirty = Clean
	s.Synced = true
}

func setParam(params map[string]any, key string, v any) {
	if v == nil {
		delete(params, key)
		return
	}
	params[key] = v
}
