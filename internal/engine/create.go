package engine

import (
	"github.com/roach88/scenesync/internal/adapter"
	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// createIn runs the shared creation sequence: reject duplicates, construct,
// discard unsupported, then populate, subscribe and insert.
func createIn[T adapter.Adapter](t *table[T], id scenepath.Path, typeName string, construct func() T) (T, error) {
	var zero T
	if id.IsEmpty() {
		return zero, unsupported(id, typeName)
	}
	if t.has(id) {
		return zero, duplicate(id)
	}
	a := construct()
	if any(a) == nil || !a.IsSupported() {
		return zero, unsupported(id, typeName)
	}
	a.Populate()
	a.CreateCallbacks()
	t.insert(id, a)
	return a, nil
}

func (e *Engine) entityAt(dag host.DagPath) (host.Entity, error) {
	ent, ok := e.graph.EntityAt(dag)
	if !ok || !ent.Valid() {
		return nil, staleError(scenepath.Empty, "no live entity at %s", dag)
	}
	return ent, nil
}

// CreateLightAdapter creates the light adapter for dag.
func (e *Engine) CreateLightAdapter(dag host.DagPath) (adapter.LightAdapter, error) {
	ent, err := e.entityAt(dag)
	if err != nil {
		return nil, err
	}
	fn, ok := e.registry.LightCreator(ent.TypeName())
	if !ok {
		return nil, unsupported(scenepath.Empty, ent.TypeName())
	}
	return e.createLight(dag, ent, fn)
}

func (e *Engine) createLight(dag host.DagPath, ent host.Entity, fn adapter.LightCreateFunc) (adapter.LightAdapter, error) {
	id := e.mapper.PrimPath(dag.String(), true)
	return createIn(e.lights, id, ent.TypeName(), func() adapter.LightAdapter {
		return fn(e, id, dag, ent)
	})
}

// CreateCameraAdapter creates the camera adapter for dag.
func (e *Engine) CreateCameraAdapter(dag host.DagPath) (adapter.CameraAdapter, error) {
	ent, err := e.entityAt(dag)
	if err != nil {
		return nil, err
	}
	fn, ok := e.registry.CameraCreator(ent.TypeName())
	if !ok {
		return nil, unsupported(scenepath.Empty, ent.TypeName())
	}
	id := e.mapper.PrimPath(dag.String(), true)
	return createIn(e.cameras, id, ent.TypeName(), func() adapter.CameraAdapter {
		return fn(e, id, dag, ent)
	})
}

// CreateShapeAdapter creates the shape adapter for dag.
func (e *Engine) CreateShapeAdapter(dag host.DagPath) (adapter.ShapeAdapter, error) {
	ent, err := e.entityAt(dag)
	if err != nil {
		return nil, err
	}
	fn, ok := e.registry.ShapeCreator(ent.TypeName())
	if !ok {
		return nil, unsupported(scenepath.Empty, ent.TypeName())
	}
	id := e.mapper.PrimPath(dag.String(), false)
	return createIn(e.shapes, id, ent.TypeName(), func() adapter.ShapeAdapter {
		return fn(e, id, dag, ent)
	})
}

// CreateMaterialAdapter creates the material adapter for a shading engine
// at id. New materials pick up the current x-ray mode and its tag; nothing
// is bound to them yet, so no rebuild is queued.
func (e *Engine) CreateMaterialAdapter(id scenepath.Path, ent host.Entity) (adapter.MaterialAdapter, error) {
	if ent == nil || !ent.Valid() {
		return nil, staleError(id, "material entity is not live")
	}
	fn, ok := e.registry.MaterialCreator(ent.TypeName())
	if !ok {
		return nil, unsupported(id, ent.TypeName())
	}
	return createIn(e.materials, id, ent.TypeName(), func() adapter.MaterialAdapter {
		m := fn(e, id, ent)
		if m != nil && e.xray {
			m.EnableXRayShadingMode(true)
			m.UpdateMaterialTag()
		}
		return m
	})
}

// ensureMaterial returns the material path for a shading engine, creating
// the adapter if needed. ok is false when no adapter exists afterwards.
func (e *Engine) ensureMaterial(sg host.Entity) (scenepath.Path, bool) {
	if sg == nil || !sg.Valid() {
		return FallbackMaterial, false
	}
	id := e.mapper.MaterialPath(sg.Name())
	if e.materials.has(id) {
		return id, true
	}
	if _, err := e.CreateMaterialAdapter(id, sg); err != nil {
		e.logger.Debug("material not created", "path", id, "error", err)
		return id, false
	}
	return id, true
}

// InsertDag classifies a DAG location and creates its adapter. Transforms
// and intermediate objects are skipped, as are non-master instances.
// A new shape also gets its material.
func (e *Engine) InsertDag(dag host.DagPath) {
	if e.graph.IsTransform(dag) || e.graph.IsIntermediate(dag) {
		return
	}
	ent, err := e.entityAt(dag)
	if err != nil {
		e.logger.Debug("insert skipped", "dag", dag, "error", err)
		return
	}
	kind, ok := e.registry.Classify(ent.TypeName())
	if !ok {
		return
	}

	switch kind {
	case adapter.KindLight:
		if !e.params.LightsEnabled {
			return
		}
		_, err = e.CreateLightAdapter(dag)
	case adapter.KindCamera:
		_, err = e.CreateCameraAdapter(dag)
	case adapter.KindShape:
		if e.graph.InstanceNumber(dag) > 0 {
			return
		}
		var shape adapter.ShapeAdapter
		shape, err = e.CreateShapeAdapter(dag)
		if err == nil {
			if sg, ok := shape.Material(); ok {
				e.ensureMaterial(sg)
			}
		}
	}
	if err != nil && !IsUnsupported(err) {
		e.logger.Debug("insert failed", "dag", dag, "kind", kind, "error", err)
	}
}

// RemoveAdapter fully removes the adapter at id: callbacks, prim and table
// entry.
func (e *Engine) RemoveAdapter(id scenepath.Path) error {
	removed := removeAdapter(id, e.detach, e.items, e.shapes, e.cameras, e.lights, e.materials)
	if !removed {
		err := lookupMiss(id, "remove")
		e.logger.Warn("remove adapter", "path", id, "error", err)
		return err
	}
	return nil
}

func (e *Engine) detach(a adapter.Adapter) {
	a.RemoveCallbacks()
	a.RemovePrim()
}

// recreateAdapter destroys the adapter at id and, if the entity is still
// live, classifies it again from scratch.
func (e *Engine) recreateAdapter(id scenepath.Path, ent host.Entity) bool {
	live := ent != nil && ent.Valid()

	if a, ok := e.lights.get(id); ok {
		e.detach(a)
		e.lights.erase(id)
		if live {
			e.reinsert(ent)
		}
		return true
	}
	if a, ok := e.cameras.get(id); ok {
		e.detach(a)
		e.cameras.erase(id)
		if live {
			e.reinsert(ent)
		}
		return true
	}
	if a, ok := e.shapes.get(id); ok {
		e.detach(a)
		e.shapes.erase(id)
		if live && e.isStructural() {
			e.reinsert(ent)
		}
		return true
	}
	if a, ok := e.materials.get(id); ok {
		e.detach(a)
		e.materials.erase(id)
		e.dirtyBoundPrims(id, renderindex.DirtyMaterialID)
		if live {
			if _, err := e.CreateMaterialAdapter(e.mapper.MaterialPath(ent.Name()), ent); err != nil {
				e.logger.Debug("material not recreated", "path", id, "error", err)
			}
		}
		return true
	}
	e.logger.Warn("recreate adapter", "path", id, "error", lookupMiss(id, "recreate"))
	return false
}

// reinsert resolves a live entity's current location and inserts it.
// Lights are created even outside structural mode.
func (e *Engine) reinsert(ent host.Entity) {
	dag, ok := e.graph.PathTo(ent)
	if !ok {
		e.logger.Debug("reinsert skipped", "entity", ent.Name(), "error", staleError(scenepath.Empty, "entity has no location"))
		return
	}
	if fn, ok := e.registry.LightCreator(ent.TypeName()); ok {
		if !e.params.LightsEnabled {
			return
		}
		if _, err := e.createLight(dag, ent, fn); err != nil && !IsUnsupported(err) {
			e.logger.Debug("light not recreated", "dag", dag, "error", err)
		}
		return
	}
	e.InsertDag(dag)
}

// dirtyBoundPrims marks every rprim bound to material id.
func (e *Engine) dirtyBoundPrims(id scenepath.Path, bits renderindex.DirtyBits) []scenepath.Path {
	var out []scenepath.Path
	for _, rid := range e.index.RprimIDs() {
		r, ok := e.index.Rprim(rid)
		if !ok || r.MaterialID != id {
			continue
		}
		out = append(out, rid)
		if bits == renderindex.Clean {
			continue
		}
		if err := e.index.MarkDirty(rid, bits); err != nil {
			e.logger.Warn("mark dirty failed", "path", rid, "error", err)
		}
	}
	return out
}
