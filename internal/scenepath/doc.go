// Package scenepath provides the stable, hierarchical identifiers used to key
// render-index entities.
//
// A Path is an immutable value that can be compared with == and used as a map
// key. Two forms exist:
//
//	/world/group1/cube1          prim path
//	/world/group1/cube1.color    property path (instance-level data)
//
// Paths are derived from host scene-graph locations by a Mapper, which adds a
// discriminator root (rprims, sprims, materials) so that a shape and the light
// sharing its host location never collide.
//
// Name tokens are normalized to NFC and sanitized to identifier characters at
// construction time, so the same host name always yields the same Path.
package scenepath
