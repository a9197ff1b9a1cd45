// Package adapter connects the resolution engine to directory sources.
//
// A Directory delivers the two feeds a run consumes (agent records and
// container records, both scoped to a base path) and answers on-demand
// lookups for paths outside that scope. Lookups always see the whole
// directory so managers outside the base still resolve.
//
// # Sources
//
// SnapshotDirectory serves an in-memory domain.Snapshot, usually loaded
// from a YAML snapshot file. The SQLite repository implements Directory
// too and is registered by the command layer.
//
// # Registry
//
// Registry maps a source kind ("yaml", "sqlite") to the Opener that
// builds it, so configuration picks the source by name.
package adapter
