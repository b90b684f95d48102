package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario drives an engine over an in-memory host scene and checks the
// resulting render index.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Params overrides config.Default(). Keys use the params file names
	// (use_mesh_adapter, lights_enabled, ...).
	Params yaml.Node `yaml:"params,omitempty"`

	// Steps run in order. See the Op constants.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Target names a render-index path. Exactly one field is set.
type Target struct {
	// Rprim is a host DAG path mapped under the rprim root.
	Rprim string `yaml:"rprim,omitempty"`
	// Sprim is a host DAG path mapped under the sprim root.
	Sprim string `yaml:"sprim,omitempty"`
	// Material is a shading engine name.
	Material string `yaml:"material,omitempty"`
	// Item identifies a render item.
	Item *ItemRef `yaml:"item,omitempty"`
	// Path is a raw render-index path.
	Path string `yaml:"path,omitempty"`
}

func (t Target) set() int {
	n := 0
	for _, s := range []string{t.Rprim, t.Sprim, t.Material, t.Path} {
		if s != "" {
			n++
		}
	}
	if t.Item != nil {
		n++
	}
	return n
}

// String implements fmt.Stringer.
func (t Target) String() string {
	switch {
	case t.Rprim != "":
		return "rprim " + t.Rprim
	case t.Sprim != "":
		return "sprim " + t.Sprim
	case t.Material != "":
		return "material " + t.Material
	case t.Item != nil:
		return fmt.Sprintf("item %s/%s#%d", t.Item.Source, t.Item.Name, t.Item.FastID)
	}
	return t.Path
}

// ItemRef identifies a render item the way its path is derived.
type ItemRef struct {
	Source string `yaml:"source,omitempty"`
	Name   string `yaml:"name"`
	FastID int    `yaml:"fast_id"`
}

// ItemSpec is one render item of a batch step.
type ItemSpec struct {
	FastID       int       `yaml:"fast_id"`
	Name         string    `yaml:"name"`
	Source       string    `yaml:"source,omitempty"`
	Primitive    string    `yaml:"primitive,omitempty"`
	ShadingGroup string    `yaml:"shading_group,omitempty"`
	Translate    []float64 `yaml:"translate,omitempty"`
	// Visible defaults to true.
	Visible           *bool `yaml:"visible,omitempty"`
	DependsOnPlayback bool  `yaml:"depends_on_playback,omitempty"`
	// Flags lists change flags (effect, matrix, geometry, visibility,
	// topology). Empty means all of them; "none" means no change.
	Flags []string `yaml:"flags,omitempty"`
}

// Step is one action of a scenario. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// Scene edits.
	Type         string    `yaml:"type,omitempty"`
	Name         string    `yaml:"name,omitempty"`
	Parent       string    `yaml:"parent,omitempty"`
	Set          string    `yaml:"set,omitempty"`
	ShadingGroup string    `yaml:"shading_group,omitempty"`
	Translate    []float64 `yaml:"translate,omitempty"`
	Visible      *bool     `yaml:"visible,omitempty"`
	Attr         string    `yaml:"attr,omitempty"`
	Value        any       `yaml:"value,omitempty"`

	// Viewport batches.
	Items    []ItemSpec `yaml:"items,omitempty"`
	Removals []int      `yaml:"removals,omitempty"`
	Playback bool       `yaml:"playback,omitempty"`

	// Settle and display style.
	Style    []string       `yaml:"style,omitempty"`
	NoLights bool           `yaml:"no_lights,omitempty"`
	Expect   map[string]int `yaml:"expect,omitempty"`

	// Deferred work requests.
	Target `yaml:",inline"`
	Flags  []string `yaml:"flags,omitempty"`

	// Parameter changes.
	Params yaml.Node `yaml:"params,omitempty"`

	// Producer registrations.
	Viewport  string `yaml:"viewport,omitempty"`
	Renderer  string `yaml:"renderer,omitempty"`
	Renderers string `yaml:"renderers,omitempty"`
	Root      string `yaml:"root,omitempty"`
}

// Step ops.
const (
	OpCreate          = "create"
	OpDelete          = "delete"
	OpAssign          = "assign"
	OpConnect         = "connect"
	OpDisconnect      = "disconnect"
	OpSetMatrix       = "set_matrix"
	OpSetVisible      = "set_visible"
	OpSetAttribute    = "set_attribute"
	OpInstance        = "instance"
	OpReparent        = "reparent"
	OpPopulate        = "populate"
	OpBatch           = "batch"
	OpSettle          = "settle"
	OpSync            = "sync"
	OpSetDisplayStyle = "set_display_style"
	OpSetParams       = "set_params"
	OpTagChanged      = "tag_changed"
	OpRebuild         = "rebuild"
	OpRecreate        = "recreate"
	OpAddProducer     = "add_producer"
	OpRemoveProducer  = "remove_producer"
	OpViewportAdded   = "viewport_added"
	OpViewportRemoved = "viewport_removed"
)

// Assertion checks the final state.
type Assertion struct {
	Type string `yaml:"type"`

	Target `yaml:",inline"`

	// Kind is rprim or sprim (prim_count).
	Kind  string `yaml:"kind,omitempty"`
	Count *int   `yaml:"count,omitempty"`
	// Counts are expected adapter table sizes (table_counts).
	Counts map[string]int `yaml:"counts,omitempty"`
	// Translate is the expected world translation (transform).
	Translate []float64 `yaml:"translate,omitempty"`
	Visible   *bool     `yaml:"visible,omitempty"`
	// Bound is the expected material: a shading engine name, "fallback" or
	// "default" (material_id).
	Bound string `yaml:"bound,omitempty"`
	// Dirty lists expected dirty bit names; empty means clean (dirty).
	Dirty []string `yaml:"dirty,omitempty"`
	// Viewport selects the producer viewport (producer_count).
	Viewport string `yaml:"viewport,omitempty"`
}

// Assertion types.
const (
	AssertPrimExists    = "prim_exists"
	AssertPrimAbsent    = "prim_absent"
	AssertPrimCount     = "prim_count"
	AssertTableCounts   = "table_counts"
	AssertTransform     = "transform"
	AssertVisible       = "visible"
	AssertMaterialID    = "material_id"
	AssertDirty         = "dirty"
	AssertProducerCount = "producer_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	need := func(ok bool, what string) error {
		if !ok {
			return fmt.Errorf("steps[%d]: %s is required for %s", index, what, s.Op)
		}
		return nil
	}

	switch s.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpCreate:
		if err := need(s.Type != "", "type"); err != nil {
			return err
		}
		return need(s.Name != "", "name")
	case OpDelete, OpConnect, OpDisconnect:
		return need(s.Name != "", "name")
	case OpAssign:
		if err := need(s.Name != "", "name"); err != nil {
			return err
		}
		return need(s.ShadingGroup != "", "shading_group")
	case OpSetMatrix:
		if err := need(s.Name != "", "name"); err != nil {
			return err
		}
		return need(len(s.Translate) == 3, "translate [x, y, z]")
	case OpSetVisible:
		if err := need(s.Name != "", "name"); err != nil {
			return err
		}
		return need(s.Visible != nil, "visible")
	case OpSetAttribute:
		if err := need(s.Name != "", "name"); err != nil {
			return err
		}
		return need(s.Attr != "", "attr")
	case OpInstance, OpReparent:
		if err := need(s.Name != "", "name"); err != nil {
			return err
		}
		if s.Op == OpInstance {
			return need(s.Parent != "", "parent")
		}
	case OpBatch:
		for j, item := range s.Items {
			if len(item.Translate) != 0 && len(item.Translate) != 3 {
				return fmt.Errorf("steps[%d].items[%d]: translate must have 3 components", index, j)
			}
		}
	case OpRebuild:
		if err := need(s.Target.set() == 1, "exactly one target"); err != nil {
			return err
		}
		return need(len(s.Flags) > 0, "flags")
	case OpRecreate, OpTagChanged:
		return need(s.Target.set() == 1, "exactly one target")
	case OpAddProducer, OpRemoveProducer:
		return need(s.Name != "", "name")
	case OpViewportAdded, OpViewportRemoved:
		return need(s.Viewport != "", "viewport")
	case OpPopulate, OpSettle, OpSync, OpSetDisplayStyle, OpSetParams:
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPrimExists, AssertPrimAbsent, AssertDirty:
		if a.Target.set() != 1 {
			return fmt.Errorf("assertions[%d]: exactly one target is required for %s", index, a.Type)
		}
	case AssertTransform:
		if a.Target.set() != 1 || len(a.Translate) != 3 {
			return fmt.Errorf("assertions[%d]: a target and translate [x, y, z] are required for transform", index)
		}
	case AssertVisible:
		if a.Target.set() != 1 || a.Visible == nil {
			return fmt.Errorf("assertions[%d]: a target and visible are required for visible", index)
		}
	case AssertMaterialID:
		if a.Target.set() != 1 || a.Bound == "" {
			return fmt.Errorf("assertions[%d]: a target and bound are required for material_id", index)
		}
	case AssertPrimCount:
		if a.Kind != "rprim" && a.Kind != "sprim" {
			return fmt.Errorf("assertions[%d]: kind must be rprim or sprim for prim_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for prim_count", index)
		}
	case AssertTableCounts:
		if len(a.Counts) == 0 {
			return fmt.Errorf("assertions[%d]: counts is required for table_counts", index)
		}
	case AssertProducerCount:
		if a.Viewport == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: viewport and count are required for producer_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
