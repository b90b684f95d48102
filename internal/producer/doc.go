// Package producer keeps the side table of externally supplied
// data-producing scene indices.
//
// A registration is scoped to one viewport or to every viewport, and to a
// comma-separated list of renderer names or to every renderer. Registrations
// for every viewport are remembered, so a viewport created later receives
// all matching ones through ViewportAdded. The table is independent of the
// engine's adapter tables; a Sink is told whenever a registration enters or
// leaves a viewport.
package producer
