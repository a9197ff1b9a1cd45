// Package hierarchy reconstructs the management tree from a flat,
// arbitrarily ordered stream of agent records.
//
// Agents live in an arena owned by a Registry and are linked by
// domain.Ref indices (parent, first child, next sibling). Every top-level
// agent hangs below the implicit root at domain.RootRef. The Builder
// resolves manager references as records arrive, falling back to an
// on-demand directory lookup for managers it has not seen yet; those
// ancestors enter the tree as placeholders and are completed in place if
// their own record shows up later.
//
// Structural changes go through two primitives only, Detach and AttachTo.
// AttachTo keeps every sibling list sorted by the configured
// domain.NameOrder, so export traversals are deterministic.
//
// Nothing in this package aborts a run. Anomalies are collected as
// domain.Warning values and logged.
package hierarchy
