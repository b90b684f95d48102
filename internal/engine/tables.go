package engine

import (
	"cogentcore.org/core/base/ordmap"

	"github.com/roach88/scenesync/internal/adapter"
	"github.com/roach88/scenesync/internal/scenepath"
)

// adapterTable is the untyped view of a table used by the dispatch helpers.
type adapterTable interface {
	kind() adapter.Kind
	lookup(p scenepath.Path) (adapter.Adapter, bool)
	remove(p scenepath.Path) (adapter.Adapter, bool)
	all() []adapter.Adapter
}

// table owns the adapters of one kind, keyed by path. Iteration follows
// insertion order so settle and fan-out are deterministic.
type table[T adapter.Adapter] struct {
	k        adapter.Kind
	m        *ordmap.Map[scenepath.Path, T]
	onRemove func(T)
}

func newTable[T adapter.Adapter](k adapter.Kind) *table[T] {
	return &table[T]{k: k, m: ordmap.New[scenepath.Path, T]()}
}

func (t *table[T]) kind() adapter.Kind { return t.k }

func (t *table[T]) get(p scenepath.Path) (T, bool) {
	return t.m.ValueByKeyTry(p)
}

func (t *table[T]) has(p scenepath.Path) bool {
	_, ok := t.m.IndexByKeyTry(p)
	return ok
}

// insert adds a at p. It refuses to replace an existing entry.
func (t *table[T]) insert(p scenepath.Path, a T) bool {
	if p.IsEmpty() || t.has(p) {
		return false
	}
	t.m.Add(p, a)
	return true
}

func (t *table[T]) lookup(p scenepath.Path) (adapter.Adapter, bool) {
	a, ok := t.get(p)
	if !ok {
		return nil, false
	}
	return a, true
}

func (t *table[T]) erase(p scenepath.Path) (T, bool) {
	a, ok := t.get(p)
	if !ok {
		return a, false
	}
	t.m.DeleteKey(p)
	if t.onRemove != nil {
		t.onRemove(a)
	}
	return a, true
}

// eraseAll removes every listed path that is present and returns the removed
// adapters in table order. The ordered map is rebuilt once rather than
// shifted per key.
func (t *table[T]) eraseAll(ps []scenepath.Path) []T {
	drop := make(map[scenepath.Path]struct{}, len(ps))
	for _, p := range ps {
		if t.has(p) {
			drop[p] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return nil
	}
	kept := make([]ordmap.KeyValue[scenepath.Path, T], 0, t.m.Len()-len(drop))
	out := make([]T, 0, len(drop))
	for _, kv := range t.m.Order {
		if _, ok := drop[kv.Key]; ok {
			out = append(out, kv.Value)
			continue
		}
		kept = append(kept, kv)
	}
	t.m = ordmap.Make(kept)
	if t.onRemove != nil {
		for _, a := range out {
			t.onRemove(a)
		}
	}
	return out
}

func (t *table[T]) remove(p scenepath.Path) (adapter.Adapter, bool) {
	a, ok := t.erase(p)
	if !ok {
		return nil, false
	}
	return a, true
}

// each visits a snapshot of the table, so fn may insert or erase.
func (t *table[T]) each(fn func(T)) {
	for _, a := range t.m.Values() {
		fn(a)
	}
}

func (t *table[T]) all() []adapter.Adapter {
	out := make([]adapter.Adapter, 0, t.m.Len())
	for _, a := range t.m.Values() {
		out = append(out, a)
	}
	return out
}

func (t *table[T]) keys() []scenepath.Path { return t.m.Keys() }

func (t *table[T]) len() int { return t.m.Len() }
