// Package snapshot captures render-index state in a canonical, hashable
// form. Scenario golden files and journal frame hashes are both built on it.
package snapshot
