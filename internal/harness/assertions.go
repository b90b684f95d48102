package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/scenesync/internal/engine"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Target   string // What was checked, if the assertion has a target
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	if e.Target != "" {
		fmt.Fprintf(&buf, "  Target: %s\n", e.Target)
	}
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// translateTolerance absorbs float noise from matrix products.
const translateTolerance = 1e-9

func (h *Harness) check(a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Target: a.Target.String(), Expected: expected, Actual: actual}
	}

	switch a.Type {
	case AssertPrimCount:
		var n int
		if a.Kind == "rprim" {
			n = len(h.index.RprimIDs())
		} else {
			n = len(h.index.SprimIDs())
		}
		if n != *a.Count {
			return &AssertionError{Type: a.Type, Target: a.Kind, Expected: fmt.Sprint(*a.Count), Actual: fmt.Sprint(n)}
		}
		return nil

	case AssertTableCounts:
		return h.checkTableCounts(a.Counts)

	case AssertProducerCount:
		n := len(h.producers.Inserted(a.Viewport))
		if n != *a.Count {
			return &AssertionError{Type: a.Type, Target: a.Viewport, Expected: fmt.Sprint(*a.Count), Actual: fmt.Sprint(n)}
		}
		return nil
	}

	id, err := h.resolve(a.Target)
	if err != nil {
		return err
	}
	_, isRprim := h.index.Rprim(id)
	_, isSprim := h.index.Sprim(id)
	exists := isRprim || isSprim

	switch a.Type {
	case AssertPrimExists:
		if !exists {
			return fail("prim at "+id.String(), "no prim")
		}
	case AssertPrimAbsent:
		if exists {
			return fail("no prim", "prim at "+id.String())
		}
	case AssertTransform:
		if !exists {
			return fail("prim at "+id.String(), "no prim")
		}
		got := h.eng.Transform(id).Col(3)
		for i := range 3 {
			if math.Abs(got[i]-a.Translate[i]) > translateTolerance {
				return fail(fmt.Sprint(a.Translate), fmt.Sprint(got.Vec3()))
			}
		}
	case AssertVisible:
		if !exists {
			return fail("prim at "+id.String(), "no prim")
		}
		if got := h.eng.Visible(id); got != *a.Visible {
			return fail(fmt.Sprintf("visible=%t", *a.Visible), fmt.Sprintf("visible=%t", got))
		}
	case AssertMaterialID:
		want := h.boundMaterial(a.Bound)
		if got := h.eng.MaterialID(id); got != want {
			return fail(pathOrEmpty(want), pathOrEmpty(got))
		}
	case AssertDirty:
		var bits renderindex.DirtyBits
		if r, ok := h.index.Rprim(id); ok {
			bits = r.Dirty
		} else if s, ok := h.index.Sprim(id); ok {
			bits = s.Dirty
		} else {
			return fail("prim at "+id.String(), "no prim")
		}
		want := slices.Sorted(slices.Values(a.Dirty))
		got := slices.Sorted(slices.Values(bits.Names()))
		if !slices.Equal(want, got) {
			return fail(fmt.Sprint(want), fmt.Sprint(got))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func (h *Harness) checkTableCounts(expect map[string]int) error {
	c := h.eng.Counts()
	got := map[string]int{
		"shapes":      c.Shapes,
		"renderItems": c.RenderItems,
		"cameras":     c.Cameras,
		"lights":      c.Lights,
		"materials":   c.Materials,
	}
	var diffs []string
	for _, key := range sortedKeys(expect) {
		have, ok := got[key]
		if !ok {
			return fmt.Errorf("unknown table %q", key)
		}
		if have != expect[key] {
			diffs = append(diffs, fmt.Sprintf("%s=%d", key, have))
		}
	}
	if len(diffs) > 0 {
		return &AssertionError{
			Type:     AssertTableCounts,
			Expected: fmt.Sprint(expect),
			Actual:   strings.Join(diffs, " "),
		}
	}
	return nil
}

// boundMaterial maps an assertion's bound value to a material path.
func (h *Harness) boundMaterial(bound string) scenepath.Path {
	switch bound {
	case "fallback":
		return engine.FallbackMaterial
	case "default":
		return engine.DefaultMaterialPath
	}
	return h.eng.Mapper().MaterialPath(bound)
}

func pathOrEmpty(p scenepath.Path) string {
	if p.IsEmpty() {
		return "(fallback)"
	}
	return p.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
