package engine

import (
	"context"

	"github.com/roach88/scenesync/internal/adapter"
	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/journal"
	"github.com/roach88/scenesync/internal/renderindex"
)

// SettleReport counts the work done by one PreFrame.
type SettleReport struct {
	Frame int64 `json:"frame" yaml:"frame"`

	// StyleToggles counts display-style switches (default material, x-ray).
	StyleToggles int `json:"styleToggles" yaml:"styleToggles"`
	// TagChanges counts materials whose tag actually changed.
	TagChanges int `json:"tagChanges" yaml:"tagChanges"`
	// LightsAdded counts light adapters created from the add queue.
	LightsAdded int `json:"lightsAdded" yaml:"lightsAdded"`
	// NodesAdded counts DAG nodes handled from the add queue.
	NodesAdded int `json:"nodesAdded" yaml:"nodesAdded"`
	Recreated  int `json:"recreated" yaml:"recreated"`
	Rebuilt    int `json:"rebuilt" yaml:"rebuilt"`
	// Stale counts queue entries dropped because the entity died.
	Stale int `json:"stale" yaml:"stale"`

	LightsOn      int `json:"lightsOn" yaml:"lightsOn"`
	LightsOff     int `json:"lightsOff" yaml:"lightsOff"`
	LightsCreated int `json:"lightsCreated" yaml:"lightsCreated"`
}

// Counts flattens the report for the journal.
func (r SettleReport) Counts() map[string]int {
	return map[string]int{
		"styleToggles":  r.StyleToggles,
		"tagChanges":    r.TagChanges,
		"lightsAdded":   r.LightsAdded,
		"nodesAdded":    r.NodesAdded,
		"recreated":     r.Recreated,
		"rebuilt":       r.Rebuilt,
		"stale":         r.Stale,
		"lightsOn":      r.LightsOn,
		"lightsOff":     r.LightsOff,
		"lightsCreated": r.LightsCreated,
	}
}

// PreFrame settles all deferred work before the render index syncs. Steps
// run in a fixed order; see the package documentation.
//
// If a journal is attached the frame is flushed to it afterwards. Journal
// failures are logged, never returned: the frame itself already settled.
func (e *Engine) PreFrame(ctx context.Context, dc host.DrawContext) SettleReport {
	rep := SettleReport{Frame: e.clock.Advance()}

	e.settleDisplayStyle(dc.Style, &rep)
	e.settleMaterialTags(&rep)
	e.settleLights(&rep)
	if e.isStructural() {
		e.settleAddedNodes(&rep)
	}
	e.settleRecreates(&rep)
	e.settleRebuilds(&rep)
	if e.params.RequiresLighting {
		e.settleActiveLights(dc.Lights, &rep)
	}

	e.logger.Debug("settled",
		"frame", rep.Frame,
		"recreated", rep.Recreated,
		"rebuilt", rep.Rebuilt,
		"lightsAdded", rep.LightsAdded,
		"nodesAdded", rep.NodesAdded,
		"stale", rep.Stale,
	)

	if e.journal != nil {
		err := e.journal.Flush(ctx, journal.FrameRecord{Frame: rep.Frame, Counts: rep.Counts()})
		if err != nil {
			e.logger.Warn("journal flush failed", "frame", rep.Frame, "error", err)
		}
	}
	return rep
}

// Step 1.
func (e *Engine) settleDisplayStyle(style host.DisplayStyle, rep *SettleReport) {
	useDefault := style&host.DisplayDefaultMaterial != 0
	if useDefault != e.useDefaultMaterial {
		e.useDefaultMaterial = useDefault
		rep.StyleToggles++
		tables := []adapterTable{e.items}
		if e.isStructural() {
			tables = append(tables, e.shapes)
		}
		e.mapAdapters(func(a adapter.Adapter) {
			a.MarkDirty(renderindex.DirtyMaterialID)
		}, tables...)
	}

	xray := style&host.DisplayXRay != 0
	if xray != e.xray {
		e.xray = xray
		rep.StyleToggles++
		// X-ray moves every material into the translucent collection, so
		// each one goes through the tag step below.
		e.materials.each(func(m adapter.MaterialAdapter) {
			m.EnableXRayShadingMode(xray)
			e.MaterialTagChanged(m.ID())
		})
	}
}

// Step 2. Tags only matter to a delegate that sorts prims into passes by
// material, so without RequiresLighting the queue is just cleared.
func (e *Engine) settleMaterialTags(rep *SettleReport) {
	tags := e.queue.tags.drain()
	if !e.params.RequiresLighting {
		return
	}
	for _, kv := range tags {
		m, ok := e.materials.get(kv.Key)
		if !ok || !m.UpdateMaterialTag() {
			continue
		}
		rep.TagChanges++
		for _, rid := range e.dirtyBoundPrims(kv.Key, renderindex.Clean) {
			e.RebuildAdapterOnIdle(rid, adapter.RebuildPrim)
		}
	}
}

// Step 3.
func (e *Engine) settleLights(rep *SettleReport) {
	for _, pl := range e.queue.drainLights() {
		if !pl.entity.Valid() {
			rep.Stale++
			continue
		}
		dag, ok := e.graph.PathTo(pl.entity)
		if !ok {
			rep.Stale++
			e.logger.Debug("pending light dropped", "entity", pl.entity.Name())
			continue
		}
		if _, err := e.createLight(dag, pl.entity, pl.creator); err != nil {
			if !IsUnsupported(err) {
				e.logger.Debug("pending light not created", "dag", dag, "error", err)
			}
			continue
		}
		rep.LightsAdded++
	}
}

// Step 4.
func (e *Engine) settleAddedNodes(rep *SettleReport) {
	for _, ent := range e.queue.drainAdded() {
		if !ent.Valid() {
			rep.Stale++
			continue
		}
		dag, ok := e.graph.PathTo(ent)
		if !ok {
			rep.Stale++
			continue
		}
		rep.NodesAdded++
		if !e.graph.IsTransform(dag) {
			e.InsertDag(dag)
			continue
		}
		for _, child := range e.graph.Children(dag) {
			if e.graph.InstanceNumber(child) > 0 {
				e.AddNewInstance(child)
			}
		}
	}
}

// Step 5. A recreate supersedes any rebuild queued for the same path.
func (e *Engine) settleRecreates(rep *SettleReport) {
	for _, kv := range e.queue.recreate.drain() {
		e.queue.rebuild.cancel(kv.Key)
		if e.recreateAdapter(kv.Key, kv.Value) {
			rep.Recreated++
		}
	}
}

// Step 6.
func (e *Engine) settleRebuilds(rep *SettleReport) {
	for _, kv := range e.queue.rebuild.drain() {
		id, flags := kv.Key, kv.Value
		found := findAdapter(id, func(a adapter.Adapter) {
			if flags&adapter.RebuildCallbacks != 0 {
				a.RemoveCallbacks()
				a.CreateCallbacks()
			}
			if flags&adapter.RebuildPrim != 0 {
				a.RemovePrim()
				a.Populate()
			}
		}, e.shapes, e.items, e.cameras, e.lights, e.materials)
		if !found {
			e.logger.Debug("rebuild skipped", "path", id, "error", lookupMiss(id, "rebuild"))
			continue
		}
		rep.Rebuilt++
	}
}

// Step 7. Lights the host draws this frame are switched on and receive
// their shadow matrix; every other light adapter is switched off. Active
// lights without an adapter get one.
func (e *Engine) settleActiveLights(active []host.ActiveLight, rep *SettleReport) {
	byDag := make(map[host.DagPath]host.ActiveLight, len(active))
	for _, al := range active {
		if al.Path.Valid() {
			byDag[al.Path] = al
		}
	}

	e.lights.each(func(l adapter.LightAdapter) {
		if _, ok := byDag[l.DagPath()]; ok {
			if !l.LightingOn() {
				rep.LightsOn++
			}
			l.SetLightingOn(true)
			delete(byDag, l.DagPath())
			return
		}
		if l.LightingOn() {
			rep.LightsOff++
		}
		l.SetLightingOn(false)
	})

	if e.params.LightsEnabled {
		for _, al := range active {
			if _, untracked := byDag[al.Path]; !untracked {
				continue
			}
			delete(byDag, al.Path)
			if _, err := e.CreateLightAdapter(al.Path); err != nil {
				e.logger.Debug("active light not created", "dag", al.Path, "error", err)
				continue
			}
			rep.LightsCreated++
		}
	}

	for _, al := range active {
		if !al.HasShadow {
			continue
		}
		if l, ok := e.lights.get(e.mapper.PrimPath(al.Path.String(), true)); ok {
			l.SetShadowProjectionMatrix(al.ShadowMatrix)
		}
	}
}
