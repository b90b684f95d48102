// Package renderindex defines the render-graph collaborator: the
// path-indexed store of drawable (rprim) and state (sprim) primitives that
// the synchronizer populates, and the pull-query Delegate surface the render
// graph calls back into during its sync phase.
//
// Memory is an in-memory Index with a change tracker. Its Sync method plays
// the role of the render graph's sync phase: for every dirty primitive it
// pulls the dirty aspects from the owning Delegate, caches them on the
// primitive record and clears the dirty bits.
package renderindex
