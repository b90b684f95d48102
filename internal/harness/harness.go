package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/roach88/scenesync/internal/adapter"
	"github.com/roach88/scenesync/internal/config"
	"github.com/roach88/scenesync/internal/engine"
	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/ids"
	"github.com/roach88/scenesync/internal/journal"
	"github.com/roach88/scenesync/internal/producer"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
	"github.com/roach88/scenesync/internal/snapshot"
	"github.com/roach88/scenesync/internal/testutil"
)

// Options configure a scenario run.
type Options struct {
	// Store, when set, receives the run as a journal session.
	Store *journal.Store
	// SessionID names the journal session. Defaults to the scenario name.
	SessionID string
	// Logger receives engine logs. Defaults to a discarding logger.
	Logger *slog.Logger
	// Params are the base the scenario's params overlay. Defaults to
	// config.Default().
	Params *config.Params
}

// Harness executes one scenario against a fresh scene, engine and render
// index.
type Harness struct {
	scene     *host.Scene
	index     *renderindex.Memory
	eng       *engine.Engine
	producers *producer.Registry
	indexes   map[string]*sceneIndex
	style     host.DisplayStyle
	result    *Result
	logger    *slog.Logger
}

// sceneIndex is the stand-in scene index a producer step registers.
type sceneIndex struct{ name string }

func (s *sceneIndex) Name() string { return s.name }

// Run executes a scenario with default options.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithOptions(context.Background(), scenario, Options{})
}

// RunWithOptions executes a scenario and returns the result.
//
// Execution flow:
//  1. Decode params over the base params and validate them
//  2. Build the scene, render index and engine (journaled when a store is set)
//  3. Execute steps in order, checking engine invariants after each
//  4. Evaluate assertions against the final state
//
// An error is returned only when the run could not start. Step and
// assertion failures are reported in the result.
func RunWithOptions(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	base := config.Default()
	if opts.Params != nil {
		base = *opts.Params
	}
	params, err := decodeParams(base, &scenario.Params)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = testutil.QuietLogger()
	}

	h := &Harness{
		scene:   host.NewScene(),
		index:   renderindex.NewMemory(),
		indexes: make(map[string]*sceneIndex),
		result:  NewResult(),
		logger:  logger,
	}

	engOpts := []engine.EngineOption{engine.WithParams(params), engine.WithLogger(logger)}
	if opts.Store != nil {
		session := opts.SessionID
		if session == "" {
			session = scenario.Name
		}
		err := opts.Store.BeginSession(ctx, journal.Session{
			ID:       session,
			Root:     params.Root,
			Renderer: params.RendererName,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to begin journal session: %w", err)
		}
		engOpts = append(engOpts, engine.WithJournal(journal.NewRecorder(opts.Store, h.index, session)))
		h.result.Session = session
	}
	h.eng = engine.New(h.scene, h.index, nil, engOpts...)
	defer h.eng.Close()

	h.producers = producer.NewRegistry(h,
		producer.WithIDGenerator(ids.NewSequence("producer")),
		producer.WithLogger(logger),
	)

	for i, step := range scenario.Steps {
		if err := h.execute(ctx, step); err != nil {
			h.result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Op, err))
			return h.finish(), nil
		}
		if err := h.eng.CheckInvariants(); err != nil {
			h.result.AddError(fmt.Sprintf("steps[%d] %s: invariant violated: %v", i, step.Op, err))
			return h.finish(), nil
		}
	}

	for i, a := range scenario.Assertions {
		if err := h.check(a); err != nil {
			h.result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return h.finish(), nil
}

// finish captures the final state into the result.
func (h *Harness) finish() *Result {
	state := snapshot.Capture(h.index)
	final := FinalState{
		Rprims: primRefs(state.Rprims),
		Sprims: primRefs(state.Sprims),
		Tables: h.eng.Counts(),
	}
	for _, vp := range h.producers.Viewports() {
		if final.Producers == nil {
			final.Producers = make(map[string][]string)
		}
		names := []string{}
		for _, reg := range h.producers.Inserted(vp) {
			names = append(names, reg.SceneIndex.Name())
		}
		final.Producers[vp] = names
	}
	h.result.Final = final
	return h.result
}

func primRefs(prims []snapshot.Prim) []PrimRef {
	out := make([]PrimRef, 0, len(prims))
	for _, p := range prims {
		out = append(out, PrimRef{Path: p.Path.String(), Type: string(p.Type)})
	}
	return out
}

// decodeParams overlays a params node onto base and validates the result.
func decodeParams(base config.Params, node *yaml.Node) (config.Params, error) {
	if node.Kind != 0 {
		if err := node.Decode(&base); err != nil {
			return base, fmt.Errorf("failed to decode params: %w", err)
		}
	}
	if errs := config.Validate(base); len(errs) > 0 {
		return base, &config.InvalidParamsError{Errors: errs}
	}
	return base, nil
}

// Insert implements producer.Sink.
func (h *Harness) Insert(viewport string, reg *producer.Registration) {
	h.result.AddTrace("producer_inserted", viewport+":"+reg.SceneIndex.Name())
}

// Remove implements producer.Sink.
func (h *Harness) Remove(viewport string, reg *producer.Registration) {
	h.result.AddTrace("producer_removed", viewport+":"+reg.SceneIndex.Name())
}

func (h *Harness) lookup(name string) (*host.Node, error) {
	n, ok := h.scene.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("no node named %q", name)
	}
	return n, nil
}

func (h *Harness) optionalParent(name string) (*host.Node, error) {
	if name == "" {
		return nil, nil
	}
	return h.lookup(name)
}

func (h *Harness) execute(ctx context.Context, s Step) error {
	switch s.Op {
	case OpCreate:
		parent, err := h.optionalParent(s.Parent)
		if err != nil {
			return err
		}
		if _, err := h.scene.Create(s.Type, s.Name, parent); err != nil {
			return err
		}
		h.result.AddTrace(s.Op, s.Type+" "+s.Name)

	case OpDelete:
		n, err := h.lookup(s.Name)
		if err != nil {
			return err
		}
		if err := h.scene.Delete(n); err != nil {
			return err
		}
		h.result.AddTrace(s.Op, s.Name)

	case OpAssign:
		shape, err := h.lookup(s.Name)
		if err != nil {
			return err
		}
		sg, err := h.lookup(s.ShadingGroup)
		if err != nil {
			return err
		}
		h.scene.Assign(shape, sg)
		h.result.AddTrace(s.Op, s.Name+" "+s.ShadingGroup)

	case OpConnect, OpDisconnect:
		xf, err := h.lookup(s.Name)
		if err != nil {
			return err
		}
		set, err := h.lightSet(s.Set, s.Op == OpConnect)
		if err != nil {
			return err
		}
		if s.Op == OpConnect {
			h.scene.Connect(xf, host.PlugInstObjGroups, set, host.PlugDagSetMembers)
		} else {
			h.scene.Disconnect(xf, host.PlugInstObjGroups, set, host.PlugDagSetMembers)
		}
		h.result.AddTrace(s.Op, s.Name+" "+set.Name())

	case OpSetMatrix:
		n, err := h.lookup(s.Name)
		if err != nil {
			return err
		}
		h.scene.SetMatrix(n, translate(s.Translate))
		h.result.AddTrace(s.Op, s.Name)

	case OpSetVisible:
		n, err := h.lookup(s.Name)
		if err != nil {
			return err
		}
		h.scene.SetVisible(n, *s.Visible)
		h.result.AddTrace(s.Op, fmt.Sprintf("%s %t", s.Name, *s.Visible))

	case OpSetAttribute:
		n, err := h.lookup(s.Name)
		if err != nil {
			return err
		}
		h.scene.SetAttribute(n, s.Attr, s.Value)
		h.result.AddTrace(s.Op, s.Name+"."+s.Attr)

	case OpInstance:
		shape, err := h.lookup(s.Name)
		if err != nil {
			return err
		}
		parent, err := h.lookup(s.Parent)
		if err != nil {
			return err
		}
		if err := h.scene.AddInstance(shape, parent); err != nil {
			return err
		}
		h.result.AddTrace(s.Op, s.Name+" "+s.Parent)

	case OpReparent:
		n, err := h.lookup(s.Name)
		if err != nil {
			return err
		}
		parent, err := h.optionalParent(s.Parent)
		if err != nil {
			return err
		}
		if err := h.scene.Reparent(n, parent); err != nil {
			return err
		}
		h.result.AddTrace(s.Op, s.Name)

	case OpPopulate:
		h.eng.Populate()
		h.result.AddTrace(s.Op, "")

	case OpBatch:
		batch, err := h.batch(s)
		if err != nil {
			return err
		}
		h.eng.OnCompleteSceneUpdate(batch)
		h.result.AddTrace(s.Op, fmt.Sprintf("items=%d removals=%d", len(batch.Items), len(batch.Removals)))

	case OpSettle:
		dc := host.DrawContext{Style: h.style}
		if !s.NoLights {
			dc.Lights = h.scene.ActiveLights()
		}
		rep := h.eng.PreFrame(ctx, dc)
		h.result.Reports = append(h.result.Reports, rep)
		h.result.AddTrace(s.Op, fmt.Sprintf("frame=%d", rep.Frame))
		return compareReport(rep, s.Expect)

	case OpSync:
		n := h.index.Sync()
		h.result.AddTrace(s.Op, fmt.Sprintf("synced=%d", n))

	case OpSetDisplayStyle:
		style, err := parseStyle(s.Style)
		if err != nil {
			return err
		}
		h.style = style
		h.result.AddTrace(s.Op, strings.Join(s.Style, ","))

	case OpSetParams:
		params, err := decodeParams(h.eng.Params(), &s.Params)
		if err != nil {
			return err
		}
		h.eng.SetParams(params)
		h.result.AddTrace(s.Op, "")

	case OpTagChanged:
		id, err := h.resolve(s.Target)
		if err != nil {
			return err
		}
		h.eng.MaterialTagChanged(id)
		h.result.AddTrace(s.Op, id.String())

	case OpRebuild:
		id, err := h.resolve(s.Target)
		if err != nil {
			return err
		}
		flags, err := parseRebuildFlags(s.Flags)
		if err != nil {
			return err
		}
		h.eng.RebuildAdapterOnIdle(id, flags)
		h.result.AddTrace(s.Op, id.String())

	case OpRecreate:
		id, err := h.resolve(s.Target)
		if err != nil {
			return err
		}
		a, _, ok := h.eng.Adapter(id)
		if !ok {
			return fmt.Errorf("no adapter at %s", id)
		}
		h.eng.RecreateAdapterOnIdle(id, a.Entity())
		h.result.AddTrace(s.Op, id.String())

	case OpAddProducer:
		si := h.sceneIndex(s.Name)
		renderers := s.Renderers
		if renderers == "" {
			renderers = s.Renderer
		}
		_, err := h.producers.Add(si, producer.Options{Viewport: s.Viewport, Renderers: renderers, Root: s.Root})
		if err != nil {
			return err
		}
		h.result.AddTrace(s.Op, s.Name)

	case OpRemoveProducer:
		h.producers.Remove(h.sceneIndex(s.Name), s.Viewport)
		h.result.AddTrace(s.Op, s.Name)

	case OpViewportAdded:
		h.producers.ViewportAdded(producer.ViewportInfo{ID: s.Viewport, Renderer: s.Renderer})
		h.result.AddTrace(s.Op, s.Viewport)

	case OpViewportRemoved:
		h.producers.RemoveAllForViewport(s.Viewport)
		h.result.AddTrace(s.Op, s.Viewport)

	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}

// lightSet returns the named object set. The default light set is created
// on first connect.
func (h *Harness) lightSet(name string, create bool) (*host.Node, error) {
	if name == "" || name == host.DefaultLightSet {
		if create {
			return testutil.LightSet(h.scene), nil
		}
		name = host.DefaultLightSet
	}
	return h.lookup(name)
}

func (h *Harness) sceneIndex(name string) *sceneIndex {
	si, ok := h.indexes[name]
	if !ok {
		si = &sceneIndex{name: name}
		h.indexes[name] = si
	}
	return si
}

func (h *Harness) batch(s Step) (host.ViewportScene, error) {
	batch := host.ViewportScene{Removals: s.Removals, PlaybackRunning: s.Playback}
	for _, is := range s.Items {
		item := &host.RenderItem{
			FastID:            is.FastID,
			Name:              is.Name,
			Source:            host.DagPath(is.Source),
			Primitive:         host.ParsePrimitive(is.Primitive),
			Matrix:            translate(is.Translate),
			Visible:           is.Visible == nil || *is.Visible,
			DependsOnPlayback: is.DependsOnPlayback,
		}
		if is.ShadingGroup != "" {
			sg, err := h.lookup(is.ShadingGroup)
			if err != nil {
				return batch, err
			}
			item.ShadingGroup = sg
		}
		flags, err := parseChangeFlags(is.Flags)
		if err != nil {
			return batch, fmt.Errorf("item %d: %w", is.FastID, err)
		}
		batch.Items = append(batch.Items, item)
		batch.Flags = append(batch.Flags, flags)
	}
	return batch, nil
}

// resolve maps a target to its render-index path.
func (h *Harness) resolve(t Target) (scenepath.Path, error) {
	m := h.eng.Mapper()
	var id scenepath.Path
	switch {
	case t.Rprim != "":
		id = m.PrimPath(t.Rprim, false)
	case t.Sprim != "":
		id = m.PrimPath(t.Sprim, true)
	case t.Material != "":
		id = m.MaterialPath(t.Material)
	case t.Item != nil:
		id = m.RenderItemPath(t.Item.Source, t.Item.Name, t.Item.FastID)
	case t.Path != "":
		p, err := scenepath.Parse(t.Path)
		if err != nil {
			return scenepath.Empty, err
		}
		id = p
	default:
		return scenepath.Empty, errors.New("target is empty")
	}
	if id.IsEmpty() {
		return id, fmt.Errorf("%s maps to no path", t)
	}
	return id, nil
}

func translate(v []float64) mgl64.Mat4 {
	if len(v) != 3 {
		return mgl64.Ident4()
	}
	return mgl64.Translate3D(v[0], v[1], v[2])
}

func compareReport(rep engine.SettleReport, expect map[string]int) error {
	if len(expect) == 0 {
		return nil
	}
	got := rep.Counts()
	got["frame"] = int(rep.Frame)
	var diffs []string
	for _, key := range sortedKeys(expect) {
		have, ok := got[key]
		if !ok {
			return fmt.Errorf("unknown settle counter %q", key)
		}
		if have != expect[key] {
			diffs = append(diffs, fmt.Sprintf("%s: expected %d, got %d", key, expect[key], have))
		}
	}
	if len(diffs) > 0 {
		return fmt.Errorf("settle report mismatch: %s", strings.Join(diffs, "; "))
	}
	return nil
}

var changeFlagNames = map[string]host.ChangeFlags{
	"effect":     host.ChangedEffect,
	"matrix":     host.ChangedMatrix,
	"geometry":   host.ChangedGeometry,
	"visibility": host.ChangedVisibility,
	"topology":   host.ChangedTopology,
}

func parseChangeFlags(names []string) (host.ChangeFlags, error) {
	if len(names) == 0 {
		return host.ChangedEffect | host.ChangedMatrix | host.ChangedGeometry |
			host.ChangedVisibility | host.ChangedTopology, nil
	}
	var flags host.ChangeFlags
	for _, n := range names {
		if n == "none" {
			continue
		}
		f, ok := changeFlagNames[n]
		if !ok {
			return 0, fmt.Errorf("unknown change flag %q", n)
		}
		flags |= f
	}
	return flags, nil
}

func parseRebuildFlags(names []string) (adapter.RebuildFlags, error) {
	var flags adapter.RebuildFlags
	for _, n := range names {
		switch n {
		case "callbacks":
			flags |= adapter.RebuildCallbacks
		case "prim":
			flags |= adapter.RebuildPrim
		default:
			return 0, fmt.Errorf("unknown rebuild flag %q", n)
		}
	}
	return flags, nil
}

func parseStyle(names []string) (host.DisplayStyle, error) {
	var style host.DisplayStyle
	for _, n := range names {
		switch n {
		case "default_material":
			style |= host.DisplayDefaultMaterial
		case "xray":
			style |= host.DisplayXRay
		default:
			return 0, fmt.Errorf("unknown display style %q", n)
		}
	}
	return style, nil
}
