package engine

import (
	"github.com/roach88/scenesync/internal/adapter"
	"github.com/roach88/scenesync/internal/scenepath"
)

// findAdapter searches tables in order and calls fn on the first adapter
// found at p. It reports whether one was found.
func findAdapter(p scenepath.Path, fn func(adapter.Adapter), tables ...adapterTable) bool {
	for _, t := range tables {
		if a, ok := t.lookup(p); ok {
			fn(a)
			return true
		}
	}
	return false
}

// getValue searches tables in order and returns fn of the first adapter found
// at p. A miss, or an adapter fn cannot answer for, yields def. Probing
// stops at the first table holding p either way.
func getValue[V any](p scenepath.Path, def V, fn func(adapter.Adapter) (V, bool), tables ...adapterTable) V {
	for _, t := range tables {
		a, ok := t.lookup(p)
		if !ok {
			continue
		}
		if v, ok := fn(a); ok {
			return v
		}
		return def
	}
	return def
}

// via adapts a method of capability C into a getValue callback. Adapters
// without the capability are not answerable.
func via[C, V any](f func(C) V) func(adapter.Adapter) (V, bool) {
	return func(a adapter.Adapter) (V, bool) {
		c, ok := a.(C)
		if !ok {
			var zero V
			return zero, false
		}
		return f(c), true
	}
}

// removeAdapter erases the adapter at p from the first table holding it,
// calling fn on it first.
func removeAdapter(p scenepath.Path, fn func(adapter.Adapter), tables ...adapterTable) bool {
	for _, t := range tables {
		a, ok := t.lookup(p)
		if !ok {
			continue
		}
		if fn != nil {
			fn(a)
		}
		t.remove(p)
		return true
	}
	return false
}

// mapAdapters calls fn on every adapter of the given tables. Each table is
// snapshotted before iteration.
func (e *Engine) mapAdapters(fn func(adapter.Adapter), tables ...adapterTable) {
	for _, t := range tables {
		for _, a := range t.all() {
			fn(a)
		}
	}
}
