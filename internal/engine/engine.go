package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/scenesync/internal/adapter"
	"github.com/roach88/scenesync/internal/config"
	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/journal"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// FallbackMaterial is the material id answered when nothing better is
// bound. The render index draws it with its own fallback shader.
var FallbackMaterial = scenepath.Empty

// DefaultMaterialPath is the sprim shown on every prim while the host's
// default-material display mode is on.
var DefaultMaterialPath = scenepath.AbsoluteRoot().AppendChild("__default_material__")

// StandardShadedItem is the render-item name of a mesh's shaded draw. In
// structural mode meshes are represented by shape adapters, so these items
// are skipped.
const StandardShadedItem = "StandardShadedItem"

// Engine is the scene synchronizer.
//
// INVARIANTS:
//   - a path appears in at most one table
//   - every render item is reachable both by path and by fast id
//   - an entity is in at most one add queue, at most once
//   - tables are only mutated by creation, removal and recreate
type Engine struct {
	graph    host.Graph
	index    renderindex.Index
	registry *adapter.Registry
	mapper   *scenepath.Mapper
	params   config.Params
	logger   *slog.Logger
	journal  *journal.Recorder
	clock    *FrameClock

	shapes    *table[adapter.ShapeAdapter]
	items     *table[*adapter.RenderItem]
	fast      map[int]*adapter.RenderItem
	cameras   *table[adapter.CameraAdapter]
	lights    *table[adapter.LightAdapter]
	materials *table[adapter.MaterialAdapter]
	queue     *pending

	callbacks []host.CallbackID
	populated bool

	useDefaultMaterial bool
	xray               bool
	playbackRunning    bool
}

var (
	_ adapter.Context      = (*Engine)(nil)
	_ renderindex.Delegate = (*Engine)(nil)
)

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithParams sets the synchronizer parameters. Default: config.Default().
func WithParams(p config.Params) EngineOption {
	return func(e *Engine) {
		e.params = p
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMapper overrides the path mapper derived from Params.Root.
func WithMapper(m *scenepath.Mapper) EngineOption {
	return func(e *Engine) {
		e.mapper = m
	}
}

// WithJournal routes render-index mutations through r and flushes it after
// every settle. r must wrap the index passed to New.
func WithJournal(r *journal.Recorder) EngineOption {
	return func(e *Engine) {
		e.journal = r
	}
}

// WithFrameClock sets the frame clock, to resume numbering after a
// journal session.
func WithFrameClock(c *FrameClock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine over a host graph and a render index.
//
// The engine does nothing until Populate is called.
func New(g host.Graph, idx renderindex.Index, reg *adapter.Registry, opts ...EngineOption) *Engine {
	if reg == nil {
		reg = adapter.NewRegistry()
	}
	e := &Engine{
		graph:     g,
		index:     idx,
		registry:  reg,
		params:    config.Default(),
		logger:    slog.Default(),
		shapes:    newTable[adapter.ShapeAdapter](adapter.KindShape),
		items:     newTable[*adapter.RenderItem](adapter.KindRenderItem),
		fast:      make(map[int]*adapter.RenderItem),
		cameras:   newTable[adapter.CameraAdapter](adapter.KindCamera),
		lights:    newTable[adapter.LightAdapter](adapter.KindLight),
		materials: newTable[adapter.MaterialAdapter](adapter.KindMaterial),
		queue:     newPending(),
	}
	e.items.onRemove = func(ria *adapter.RenderItem) {
		delete(e.fast, ria.FastID())
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.journal != nil {
		e.index = e.journal
	}
	if e.clock == nil {
		e.clock = NewFrameClock(0)
	}
	if e.mapper == nil {
		root, err := scenepath.Parse(e.params.Root)
		if err != nil {
			e.logger.Warn("invalid root, using default", "root", e.params.Root, "error", err)
			root = scenepath.Empty
		}
		e.mapper = scenepath.NewMapper(root)
	}
	return e
}

// Graph implements adapter.Context.
func (e *Engine) Graph() host.Graph { return e.graph }

// Index implements adapter.Context.
func (e *Engine) Index() renderindex.Index { return e.index }

// Delegate implements adapter.Context. The engine answers the render
// index's queries itself.
func (e *Engine) Delegate() renderindex.Delegate { return e }

// Mapper implements adapter.Context.
func (e *Engine) Mapper() *scenepath.Mapper { return e.mapper }

// Params implements adapter.Context.
func (e *Engine) Params() config.Params { return e.params }

// Logger implements adapter.Context.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Registry returns the adapter registry.
func (e *Engine) Registry() *adapter.Registry { return e.registry }

// Frame returns the number of the last settle.
func (e *Engine) Frame() int64 { return e.clock.Frame() }

func (e *Engine) isStructural() bool { return e.params.UseMeshAdapter }

// Populate performs the initial traversal and subscribes to host-wide
// notifications. Calling it twice is a no-op.
//
// In structural mode every DAG location is inserted immediately. Otherwise
// only lights are collected, and they are created by the first settle;
// geometry arrives through viewport batches.
func (e *Engine) Populate() {
	if e.populated {
		return
	}
	e.populated = true

	e.graph.Walk(func(p host.DagPath, ent host.Entity) {
		if e.isStructural() {
			e.InsertDag(p)
			return
		}
		e.OnEntityAdded(ent)
	})

	e.callbacks = append(e.callbacks,
		e.graph.OnNodeAdded(e.OnEntityAdded),
		e.graph.OnNodeRemoved(e.OnEntityRemoved),
		e.graph.OnConnection(e.OnConnectionChanged),
	)

	if e.index.IsSprimTypeSupported(renderindex.PrimMaterial) {
		if err := e.index.InsertSprim(renderindex.PrimMaterial, e, DefaultMaterialPath); err != nil {
			e.logger.Warn("insert default material failed", "path", DefaultMaterialPath, "error", err)
		}
	}
	e.logger.Debug("populated",
		"structural", e.isStructural(),
		"shapes", e.shapes.len(),
		"cameras", e.cameras.len(),
		"lights", e.lights.len(),
		"materials", e.materials.len(),
	)
}

// Close unsubscribes every host-wide and adapter callback. Adapters and
// their prims are left in place.
func (e *Engine) Close() {
	for _, id := range e.callbacks {
		e.graph.Unsubscribe(id)
	}
	e.callbacks = nil
	e.mapAdapters(func(a adapter.Adapter) {
		a.RemoveCallbacks()
	}, e.allTables()...)
}

// TableCounts reports the number of adapters per table.
type TableCounts struct {
	Shapes      int `json:"shapes" yaml:"shapes"`
	RenderItems int `json:"renderItems" yaml:"renderItems"`
	Cameras     int `json:"cameras" yaml:"cameras"`
	Lights      int `json:"lights" yaml:"lights"`
	Materials   int `json:"materials" yaml:"materials"`
}

// Total returns the number of adapters across all tables.
func (c TableCounts) Total() int {
	return c.Shapes + c.RenderItems + c.Cameras + c.Lights + c.Materials
}

// Counts returns the current table sizes.
func (e *Engine) Counts() TableCounts {
	return TableCounts{
		Shapes:      e.shapes.len(),
		RenderItems: e.items.len(),
		Cameras:     e.cameras.len(),
		Lights:      e.lights.len(),
		Materials:   e.materials.len(),
	}
}

// Pending returns the size of every deferred-work queue.
func (e *Engine) Pending() PendingCounts { return e.queue.counts() }

// Adapter returns the adapter at p from whichever table holds it.
func (e *Engine) Adapter(p scenepath.Path) (adapter.Adapter, adapter.Kind, bool) {
	for _, t := range e.allTables() {
		if a, ok := t.lookup(p); ok {
			return a, t.kind(), true
		}
	}
	return nil, 0, false
}

// Paths returns the table keys of one kind, in insertion order.
func (e *Engine) Paths(k adapter.Kind) []scenepath.Path {
	switch k {
	case adapter.KindShape:
		return e.shapes.keys()
	case adapter.KindRenderItem:
		return e.items.keys()
	case adapter.KindCamera:
		return e.cameras.keys()
	case adapter.KindLight:
		return e.lights.keys()
	case adapter.KindMaterial:
		return e.materials.keys()
	}
	return nil
}

// RenderItemByFastID looks up a render item by the host's fast id.
func (e *Engine) RenderItemByFastID(id int) (*adapter.RenderItem, bool) {
	ria, ok := e.fast[id]
	return ria, ok
}

// CheckInvariants verifies table consistency. It is meant for tests and
// the scenario harness.
func (e *Engine) CheckInvariants() error {
	seen := make(map[scenepath.Path]adapter.Kind)
	for _, t := range e.allTables() {
		for _, a := range t.all() {
			if k, dup := seen[a.ID()]; dup {
				return fmt.Errorf("path %s is in both %s and %s tables", a.ID(), k, t.kind())
			}
			seen[a.ID()] = t.kind()
		}
	}
	if len(e.fast) != e.items.len() {
		return fmt.Errorf("fast index has %d entries, render item table has %d", len(e.fast), e.items.len())
	}
	for id, ria := range e.fast {
		if ria.FastID() != id {
			return fmt.Errorf("fast index %d maps to item with fast id %d", id, ria.FastID())
		}
		if got, ok := e.items.get(ria.ID()); !ok || got != ria {
			return fmt.Errorf("fast index %d maps to %s which is not in the render item table", id, ria.ID())
		}
	}
	return nil
}

func (e *Engine) allTables() []adapterTable {
	return []adapterTable{e.shapes, e.items, e.cameras, e.lights, e.materials}
}
