// Package engine implements the scene synchronizer.
//
// The engine keeps a render index in step with a mutating host scene graph.
// It owns one adapter per representable host entity, in five tables keyed
// by render-index path (shapes, render items, cameras, lights, materials),
// and answers the render index's pull queries by dispatching to them.
//
// ARCHITECTURE:
//
// Ingest, then settle:
// Host notifications arrive at arbitrary times and are never applied
// directly. They land in deferred-work queues (recreate, rebuild, material
// tag, lights to add, nodes to add) and PreFrame drains the queues in a
// fixed order before the render index syncs:
//  1. display-style toggles (default material, x-ray)
//  2. material tag changes, rebuilding bound prims
//  3. pending light adapters
//  4. pending DAG nodes (structural mode)
//  5. destructive recreates, cancelling rebuilds for the same path
//  6. non-destructive rebuilds
//  7. the active-light pass
//
// Render items are the exception: complete viewport batches are applied
// immediately by OnCompleteSceneUpdate.
//
// Single-threaded:
// Every method must be called from the host's main thread. Adapters call
// back into the engine through adapter.Context, and the engine calls into
// adapters while iterating snapshots of its tables, so creation and removal
// during iteration are safe.
//
// Errors:
// Nothing here is fatal. Stale references, lookup misses, unsupported
// entities and duplicate creations are logged and skipped (see SyncError).
package engine
