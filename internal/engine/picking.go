package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/scenepath"
)

// ResolvePickHit maps a picked prim back to the host location to select.
// Only hits below the rprim root resolve. Render items resolve to their
// source's transform, falling back to the source itself; shapes resolve to
// their transform.
func (e *Engine) ResolvePickHit(p scenepath.Path) (host.DagPath, bool) {
	if !p.HasPrefix(e.mapper.RprimRoot()) {
		return "", false
	}
	prim := p.PrimPath()

	var dag host.DagPath
	if ria, ok := e.items.get(prim); ok {
		dag = ria.DagPath()
	} else if s, ok := e.shapes.get(prim); ok {
		dag = s.DagPath()
	} else {
		return "", false
	}
	if !dag.Valid() {
		return "", false
	}
	if parent := dag.Parent(); parent.Valid() && e.graph.IsTransform(parent) {
		return parent, true
	}
	return dag, true
}

// SetCameraViewport sets the viewport (x, y, width, height) of the camera
// at dag. It returns the camera's path, or false when dag has no camera.
func (e *Engine) SetCameraViewport(dag host.DagPath, viewport mgl64.Vec4) (scenepath.Path, bool) {
	id := e.mapper.PrimPath(dag.String(), true)
	c, ok := e.cameras.get(id)
	if !ok {
		return scenepath.Empty, false
	}
	c.SetViewport(viewport)
	return id, true
}
