package snapshot

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// Source is the read side of a render index that can be captured.
type Source interface {
	RprimIDs() []scenepath.Path
	Rprim(p scenepath.Path) (renderindex.Rprim, bool)
	SprimIDs() []scenepath.Path
	Sprim(p scenepath.Path) (renderindex.Sprim, bool)
}

// Prim is the captured state of one render-index primitive.
type Prim struct {
	Path   scenepath.Path
	Type   renderindex.PrimType
	Dirty  renderindex.DirtyBits
	Synced bool
	// Fields holds canonical values pulled by the last sync.
	Fields map[string]any
}

// State is a stable view of a render index, sorted by path.
type State struct {
	Rprims []Prim
	Sprims []Prim
}

// Capture reads every primitive of src. Values are only captured for
// primitives that have synced at least once.
func Capture(src Source) State {
	var s State
	for _, p := range sortedPaths(src.RprimIDs()) {
		r, ok := src.Rprim(p)
		if !ok {
			continue
		}
		prim := Prim{Path: p, Type: r.Type, Dirty: r.Dirty, Synced: r.Synced}
		if r.Synced {
			prim.Fields = rprimFields(r)
		}
		s.Rprims = append(s.Rprims, prim)
	}
	for _, p := range sortedPaths(src.SprimIDs()) {
		sp, ok := src.Sprim(p)
		if !ok {
			continue
		}
		prim := Prim{Path: p, Type: sp.Type, Dirty: sp.Dirty, Synced: sp.Synced}
		if sp.Synced {
			prim.Fields = make(map[string]any, len(sp.Params))
			for k, v := range sp.Params {
				if cv, ok := Canonical(v); ok {
					prim.Fields[k] = cv
				}
			}
		}
		s.Sprims = append(s.Sprims, prim)
	}
	return s
}

func sortedPaths(ps []scenepath.Path) []scenepath.Path {
	out := slices.Clone(ps)
	slices.SortFunc(out, func(a, b scenepath.Path) int {
		switch {
		case scenepath.Less(a, b):
			return -1
		case scenepath.Less(b, a):
			return 1
		}
		return 0
	})
	return out
}

func rprimFields(r renderindex.Rprim) map[string]any {
	f := map[string]any{
		"transform": mat4(r.Transform),
		"visible":   r.Visible,
		"material":  r.MaterialID.String(),
		"extent": map[string]any{
			"min": vec(r.Extent.Min[:]),
			"max": vec(r.Extent.Max[:]),
		},
	}
	if !r.Instancer.IsEmpty() {
		f["instancer"] = r.Instancer.String()
	}
	if r.RenderTag != "" {
		f["renderTag"] = r.RenderTag
	}
	switch r.Type {
	case renderindex.PrimBasisCurves:
		f["topology"] = map[string]any{
			"curveType":         r.Curves.CurveType,
			"curveVertexCounts": nonNil(r.Curves.CurveVertexCounts),
		}
	default:
		f["topology"] = map[string]any{
			"scheme":            r.Topology.Scheme,
			"faceVertexCounts":  nonNil(r.Topology.FaceVertexCounts),
			"faceVertexIndices": nonNil(r.Topology.FaceVertexIndices),
		}
	}
	return f
}

func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func vec(v []float64) []any {
	out := make([]any, len(v))
	for i, f := range v {
		out[i] = f
	}
	return out
}

func mat4(m mgl64.Mat4) []any { return vec(m[:]) }

// Canonical converts a render-index value into the types MarshalCanonical
// accepts. Nil converts to nothing.
func Canonical(v any) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case string, bool, int, int64, float64:
		return val, true
	case float32:
		return float64(val), true
	case mgl64.Vec3:
		return vec(val[:]), true
	case mgl64.Vec4:
		return vec(val[:]), true
	case mgl64.Mat4:
		return mat4(val), true
	case []mgl64.Vec3:
		out := make([]any, len(val))
		for i, p := range val {
			out[i] = vec(p[:])
		}
		return out, true
	case []int:
		return nonNil(val), true
	case scenepath.Path:
		return val.String(), true
	case renderindex.MaterialNetwork:
		nodes := make([]any, 0, len(val.Nodes))
		for _, n := range val.Nodes {
			params := make(map[string]any, len(n.Parameters))
			for k, pv := range n.Parameters {
				if cv, ok := Canonical(pv); ok {
					params[k] = cv
				}
			}
			nodes = append(nodes, map[string]any{
				"identifier": n.Identifier,
				"path":       n.Path.String(),
				"parameters": params,
			})
		}
		return map[string]any{"terminal": val.Terminal.String(), "nodes": nodes}, true
	default:
		return fmt.Sprintf("%v", val), true
	}
}

// Value returns the state as a canonical value tree.
func (s State) Value() map[string]any {
	return map[string]any{
		"rprims": prims(s.Rprims),
		"sprims": prims(s.Sprims),
	}
}

func prims(ps []Prim) []any {
	out := make([]any, 0, len(ps))
	for _, p := range ps {
		m := map[string]any{
			"path":   p.Path.String(),
			"type":   string(p.Type),
			"dirty":  nonNilStrings(p.Dirty.Names()),
			"synced": p.Synced,
		}
		if p.Fields != nil {
			m["fields"] = p.Fields
		}
		out = append(out, m)
	}
	return out
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// Find returns the captured prim at p.
func (s State) Find(p scenepath.Path) (Prim, bool) {
	for _, list := range [][]Prim{s.Rprims, s.Sprims} {
		for _, prim := range list {
			if prim.Path == p {
				return prim, true
			}
		}
	}
	return Prim{}, false
}
