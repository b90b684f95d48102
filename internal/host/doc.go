// Package host defines the host scene-graph collaborator consumed by the
// synchronizer.
//
// The host owns entity lifetime. The synchronizer only ever holds Entity
// handles, which are non-owning and must be checked with Valid before every
// dereference. All host access happens on the host's own thread; nothing in
// this package is safe for concurrent use.
//
// Scene is an in-memory Graph used by the scenario harness, the CLI and the
// tests. It supports instancing (one shape under several transforms), set
// membership connections and per-entity change subscriptions.
package host
