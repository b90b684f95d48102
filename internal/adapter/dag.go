package adapter

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// dagBase is shared by adapters that wrap a DAG location.
type dagBase struct {
	base
	dag            host.DagPath
	transform      mgl64.Mat4
	transformValid bool
}

func newDagBase(ctx Context, id scenepath.Path, dag host.DagPath, e host.Entity) dagBase {
	return dagBase{base: newBase(ctx, id, e), dag: dag}
}

// DagPath returns the host location the adapter was created for.
func (d *dagBase) DagPath() host.DagPath { return d.dag }

// Transform implements Adapter. The world matrix is cached until
// InvalidateTransform.
func (d *dagBase) Transform() mgl64.Mat4 {
	if !d.transformValid {
		d.transform = d.ctx.Graph().WorldMatrix(d.dag)
		d.transformValid = true
	}
	return d.transform
}

// InvalidateTransform implements Adapter.
func (d *dagBase) InvalidateTransform() {
	d.transformValid = false
}

// Visible implements Adapter.
func (d *dagBase) Visible() bool {
	if !d.entityValid() {
		return false
	}
	return d.ctx.Graph().Visible(d.dag)
}

// SampleTransform returns one matrix per motion sample.
func (d *dagBase) SampleTransform(maxSamples int) []renderindex.TimedMatrix {
	times := sampleTimes(d.ctx.Params(), maxSamples)
	out := make([]renderindex.TimedMatrix, len(times))
	m := d.Transform()
	for i, t := range times {
		out[i] = renderindex.TimedMatrix{Time: t, Matrix: m}
	}
	return out
}

// createDagCallbacks subscribes the callbacks every DAG adapter needs.
// Moves and deletions are structural, so they are deferred as recreates.
func (d *dagBase) createDagCallbacks(transformBits renderindex.DirtyBits, onVisibility func()) {
	d.subscribe(host.EventTransform, func() {
		d.InvalidateTransform()
		d.MarkDirty(transformBits)
	})
	d.subscribe(host.EventVisibility, onVisibility)
	d.subscribe(host.EventReparent, func() {
		d.ctx.RecreateAdapterOnIdle(d.id, d.entity)
	})
	d.subscribe(host.EventAboutDelete, func() {
		d.ctx.RecreateAdapterOnIdle(d.id, d.entity)
	})
}
