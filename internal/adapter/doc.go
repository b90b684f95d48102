// Package adapter implements the per-entity adapters that translate host
// scene-graph entities into render-index primitives, and the Registry that
// decides which adapter represents an entity.
//
// Every adapter:
//   - holds a non-owning host.Entity handle and checks Valid before use
//   - owns its host subscriptions and releases them in RemoveCallbacks
//   - mirrors dirty bits into the render index only while populated
//
// Adapters never mutate the synchronizer's tables. Host callbacks that need
// structural work go through Context (RecreateAdapterOnIdle,
// RebuildAdapterOnIdle, MaterialTagChanged) and are applied at the next
// settle.
//
// Variants: Shape (meshes and curves), Light, Camera, Material and
// RenderItem. RenderItem adapters are created from the host's draw buffer,
// not from graph classification, so they are not in the Registry.
package adapter
