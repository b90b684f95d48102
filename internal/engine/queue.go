package engine

import (
	"cogentcore.org/core/base/ordmap"

	"github.com/roach88/scenesync/internal/adapter"
	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/scenepath"
)

// mailbox is a keyed queue of deferred work. A key appears at most once;
// posting an existing key merges the payload in place and keeps the
// original position. Settle drains a mailbox whole, so work posted while
// draining is kept for the next settle.
type mailbox[V any] struct {
	m     *ordmap.Map[scenepath.Path, V]
	merge func(old, v V) V
}

func newMailbox[V any](merge func(old, v V) V) *mailbox[V] {
	return &mailbox[V]{m: ordmap.New[scenepath.Path, V](), merge: merge}
}

func (q *mailbox[V]) post(p scenepath.Path, v V) {
	if old, ok := q.m.ValueByKeyTry(p); ok && q.merge != nil {
		v = q.merge(old, v)
	}
	q.m.Add(p, v)
}

// cancel drops a pending entry.
func (q *mailbox[V]) cancel(p scenepath.Path) bool {
	return q.m.DeleteKey(p)
}

func (q *mailbox[V]) drain() []ordmap.KeyValue[scenepath.Path, V] {
	out := q.m.Order
	q.m.Reset()
	return out
}

func (q *mailbox[V]) len() int { return q.m.Len() }

// replacePayload keeps the latest recreate payload.
func replacePayload(_, v host.Entity) host.Entity { return v }

func orFlags(old, v adapter.RebuildFlags) adapter.RebuildFlags { return old | v }

// pendingLight is a light entity waiting for its adapter, with the creator
// chosen when the entity was announced.
type pendingLight struct {
	entity  host.Entity
	creator adapter.LightCreateFunc
}

// pending holds every deferred-work queue of the engine.
type pending struct {
	recreate *mailbox[host.Entity]
	rebuild  *mailbox[adapter.RebuildFlags]
	tags     *mailbox[struct{}]
	lights   []pendingLight
	added    []host.Entity
}

func newPending() *pending {
	return &pending{
		recreate: newMailbox(replacePayload),
		rebuild:  newMailbox(orFlags),
		tags:     newMailbox[struct{}](nil),
	}
}

// cancelEntity removes an entity from the add queues. It reports whether
// anything was dropped.
func (q *pending) cancelEntity(e host.Entity) bool {
	dropped := false
	lights := q.lights[:0]
	for _, pl := range q.lights {
		if pl.entity.ID() == e.ID() {
			dropped = true
			continue
		}
		lights = append(lights, pl)
	}
	q.lights = lights
	added := q.added[:0]
	for _, a := range q.added {
		if a.ID() == e.ID() {
			dropped = true
			continue
		}
		added = append(added, a)
	}
	q.added = added
	return dropped
}

func (q *pending) drainLights() []pendingLight {
	out := q.lights
	q.lights = nil
	return out
}

func (q *pending) drainAdded() []host.Entity {
	out := q.added
	q.added = nil
	return out
}

// PendingCounts reports the size of each queue.
type PendingCounts struct {
	Recreate int `json:"recreate" yaml:"recreate"`
	Rebuild  int `json:"rebuild" yaml:"rebuild"`
	Tags     int `json:"tags" yaml:"tags"`
	Lights   int `json:"lights" yaml:"lights"`
	Added    int `json:"added" yaml:"added"`
}

func (q *pending) counts() PendingCounts {
	return PendingCounts{
		Recreate: q.recreate.len(),
		Rebuild:  q.rebuild.len(),
		Tags:     q.tags.len(),
		Lights:   len(q.lights),
		Added:    len(q.added),
	}
}

// Empty reports whether no work is queued.
func (c PendingCounts) Empty() bool {
	return c == PendingCounts{}
}
