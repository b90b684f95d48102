package engine

import (
	"github.com/roach88/scenesync/internal/adapter"
	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// RecreateAdapterOnIdle implements adapter.Context. A later request for the
// same path replaces the entity.
func (e *Engine) RecreateAdapterOnIdle(id scenepath.Path, ent host.Entity) {
	e.queue.recreate.post(id, ent)
}

// RebuildAdapterOnIdle implements adapter.Context. Flags for the same path
// accumulate.
func (e *Engine) RebuildAdapterOnIdle(id scenepath.Path, flags adapter.RebuildFlags) {
	e.queue.rebuild.post(id, flags)
}

// MaterialTagChanged implements adapter.Context.
func (e *Engine) MaterialTagChanged(id scenepath.Path) {
	e.queue.tags.post(id, struct{}{})
}

// OnEntityAdded queues a new host entity. Lights always wait for settle;
// other DAG nodes are only tracked in structural mode.
func (e *Engine) OnEntityAdded(ent host.Entity) {
	if ent == nil || !ent.Valid() {
		return
	}
	if fn, ok := e.registry.LightCreator(ent.TypeName()); ok {
		if e.params.LightsEnabled {
			e.queue.lights = append(e.queue.lights, pendingLight{entity: ent, creator: fn})
		}
		return
	}
	if !e.isStructural() {
		return
	}
	// Dependency nodes (shading engines, sets) have no DAG location.
	if _, ok := e.graph.PathTo(ent); ok {
		e.queue.added = append(e.queue.added, ent)
	}
}

// OnEntityRemoved cancels any pending add of ent. Live adapters are torn
// down by their own about-to-delete callbacks.
func (e *Engine) OnEntityRemoved(ent host.Entity) {
	if ent == nil {
		return
	}
	if e.queue.cancelEntity(ent) {
		e.logger.Debug("pending add cancelled", "entity", ent.Name())
	}
}

// OnConnectionChanged reacts to default-light-set membership changes. Only
// a transform's instObjGroups linked to the set named defaultLightSet
// matters; lights directly below the transform recompute visibility.
func (e *Engine) OnConnectionChanged(src, dst host.Plug, made bool) {
	if src.Entity == nil || dst.Entity == nil || !src.Entity.Valid() || !dst.Entity.Valid() {
		return
	}
	if src.Entity.TypeName() != host.TypeTransform || src.Name != host.PlugInstObjGroups {
		return
	}
	if dst.Entity.TypeName() != host.TypeObjectSet || dst.Entity.Name() != host.DefaultLightSet {
		return
	}
	dag, ok := e.graph.PathTo(src.Entity)
	if !ok {
		return
	}
	e.logger.Debug("light set membership changed", "dag", dag, "made", made)
	for _, child := range e.graph.Children(dag) {
		if e.graph.IsTransform(child) {
			continue
		}
		e.UpdateLightVisibility(child)
	}
}

// UpdateLightVisibility recomputes a light's visibility and reinserts its
// prim when it changed.
func (e *Engine) UpdateLightVisibility(dag host.DagPath) {
	l, ok := e.lights.get(e.mapper.PrimPath(dag.String(), true))
	if !ok {
		return
	}
	if l.UpdateVisibility() {
		l.RemovePrim()
		l.Populate()
		l.InvalidateTransform()
	}
}

// OnCompleteSceneUpdate applies a complete viewport batch. Unlike entity
// notifications, render-item deltas are applied immediately.
func (e *Engine) OnCompleteSceneUpdate(batch host.ViewportScene) {
	if batch.PlaybackRunning != e.playbackRunning {
		e.playbackRunning = batch.PlaybackRunning
		e.items.each(func(ria *adapter.RenderItem) {
			ria.SetPlaybackChanged()
		})
	}

	var gone []scenepath.Path
	detached := make(map[int]struct{}, len(batch.Removals))
	for _, fastID := range batch.Removals {
		if fastID == host.InvalidFastID {
			continue
		}
		if _, dup := detached[fastID]; dup {
			continue
		}
		ria, ok := e.fast[fastID]
		if !ok {
			e.logger.Warn("render item removal", "fastId", fastID, "error", lookupMiss(scenepath.Empty, "remove render item"))
			continue
		}
		e.detach(ria)
		detached[fastID] = struct{}{}
		gone = append(gone, ria.ID())
	}
	e.items.eraseAll(gone)

	for i, item := range batch.Items {
		var flags host.ChangeFlags
		if i < len(batch.Flags) {
			flags = batch.Flags[i]
		}
		if item == nil || flags == 0 {
			continue
		}
		if e.isStructural() && item.Name == StandardShadedItem {
			continue
		}

		ria, ok := e.fast[item.FastID]
		if !ok {
			ria, ok = e.addRenderItem(item)
			if !ok {
				continue
			}
		}

		if flags&host.ChangedEffect != 0 {
			ria.SetMaterial(e.renderItemMaterial(item))
		}
		ria.UpdateFromDelta(adapter.UpdateData{Item: item, Flags: flags})
		if flags&host.ChangedMatrix != 0 {
			ria.UpdateTransform(item)
		}
	}
}

func (e *Engine) addRenderItem(item *host.RenderItem) (*adapter.RenderItem, bool) {
	if item.FastID == host.InvalidFastID {
		return nil, false
	}
	id := e.mapper.RenderItemPath(item.Source.String(), item.Name, item.FastID)
	if id.IsEmpty() {
		return nil, false
	}
	ria, err := createIn(e.items, id, item.Name, func() *adapter.RenderItem {
		return adapter.NewRenderItem(e, id, item)
	})
	if err != nil {
		e.logger.Debug("render item not created", "fastId", item.FastID, "error", err)
		return nil, false
	}
	e.fast[item.FastID] = ria
	return ria, true
}

// renderItemMaterial resolves the material a render item binds to. Line
// items always use the fallback.
func (e *Engine) renderItemMaterial(item *host.RenderItem) scenepath.Path {
	if item.Primitive.IsLine() {
		return FallbackMaterial
	}
	if id, ok := e.ensureMaterial(item.ShadingGroup); ok {
		return id
	}
	return FallbackMaterial
}

// AddNewInstance reacts to a new instance of the shape at dag. A master
// that was not instanced is recreated so it becomes one; otherwise only
// its callbacks and instancing data are refreshed.
func (e *Engine) AddNewInstance(dag host.DagPath) {
	ent, ok := e.graph.EntityAt(dag)
	if !ok || !ent.Valid() {
		return
	}
	paths := e.graph.AllPathsTo(ent)
	if len(paths) == 0 {
		return
	}
	id := e.mapper.PrimPath(paths[0].String(), false)
	shape, ok := e.shapes.get(id)
	if !ok {
		return
	}
	if len(paths) == 1 || !shape.IsInstanced() {
		e.RecreateAdapterOnIdle(id, ent)
		return
	}
	e.RebuildAdapterOnIdle(id, adapter.RebuildCallbacks)
	shape.MarkDirty(renderindex.DirtyInstancer | renderindex.DirtyInstanceIndex | renderindex.DirtyPrimvar)
}
